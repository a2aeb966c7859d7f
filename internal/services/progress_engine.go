package services

import (
	"fmt"
	"math"
	"time"

	"github.com/careerbridge/careerbridge-backend/internal/pkg/apperr"
	"github.com/careerbridge/careerbridge-backend/internal/types"
)

// ErrInvalidSkillPoints rejects negative skillUpdate points before any
// state is touched.
var ErrInvalidSkillPoints = fmt.Errorf("skill points must be non-negative: %w", apperr.ErrInvalidArgument)

const (
	xpCourseEnrolled       = 10
	xpCourseCompleted      = 50
	xpApplicationSubmitted = 25
	xpInterviewScheduled   = 75
	xpOfferReceived        = 200
	xpProfileUpdated       = 15
	xpAssessmentTaken      = 30
	xpDailyLogin           = 5

	courseSkillGain = 10
	xpPerLevel      = 100
)

// applyProgressUpdate computes the next progress record from the current one
// and a single inbound update. The current record is never mutated. An
// unrecognized activity type is a benign no-op that still refreshes
// lastActive so the unchanged record can be re-broadcast.
func applyProgressUpdate(cur *types.ProgressRecord, input types.ProgressInput, now time.Time) (*types.ProgressRecord, []types.Achievement, error) {
	if input.SkillUpdate != nil && input.SkillUpdate.Points < 0 {
		return nil, nil, ErrInvalidSkillPoints
	}

	next := cur.Clone()
	var unlocked []types.Achievement

	if input.Activity != nil {
		applyActivity(next, input.Activity)
		unlocked = unlockAchievements(next, input.Activity.Type, now)
	}

	if input.SkillUpdate != nil {
		// Unrecognized skill keys are silently ignored.
		addSkillPoints(next, input.SkillUpdate.Skill, input.SkillUpdate.Points)
	}

	next.OverallScore = overallScore(next)
	next.Level = next.ExperiencePoints/xpPerLevel + 1
	next.LastActive = now

	return next, unlocked, nil
}

func applyActivity(rec *types.ProgressRecord, activity *types.Activity) {
	switch activity.Type {
	case types.ActivityCourseEnrolled:
		rec.Activities[types.CounterCoursesEnrolled]++
		rec.ExperiencePoints += xpCourseEnrolled
	case types.ActivityCourseCompleted:
		rec.Activities[types.CounterCoursesCompleted]++
		rec.ExperiencePoints += xpCourseCompleted
		addSkillPoints(rec, activity.SkillArea, courseSkillGain)
	case types.ActivityApplicationSubmitted:
		rec.Activities[types.CounterApplicationsSubmitted]++
		rec.ExperiencePoints += xpApplicationSubmitted
		rec.CareerMilestones[types.MilestoneFirstApplication] = true
	case types.ActivityInterviewScheduled:
		rec.Activities[types.CounterInterviewsScheduled]++
		rec.ExperiencePoints += xpInterviewScheduled
	case types.ActivityOfferReceived:
		rec.Activities[types.CounterOffersReceived]++
		rec.ExperiencePoints += xpOfferReceived
	case types.ActivityProfileUpdated:
		rec.CareerMilestones[types.MilestoneProfileCompleted] = true
		rec.ExperiencePoints += xpProfileUpdated
	case types.ActivityAssessmentTaken:
		rec.CareerMilestones[types.MilestoneFirstAssessment] = true
		rec.ExperiencePoints += xpAssessmentTaken
	case types.ActivityDailyLogin:
		rec.Streaks[types.StreakDailyLogin]++
		rec.ExperiencePoints += xpDailyLogin
	}
}

// addSkillPoints increments a skill's current value, clamped to its target.
// Unknown skill areas are a validated no-op.
func addSkillPoints(rec *types.ProgressRecord, skill types.SkillArea, points int) {
	sp, ok := rec.SkillsProgress[skill]
	if !ok || !types.KnownSkillArea(skill) {
		return
	}
	sp.Current += points
	if sp.Current > sp.Target {
		sp.Current = sp.Target
	}
	rec.SkillsProgress[skill] = sp
}

// overallScore averages three 0-100 components: mean skill completion,
// milestone completion, and a capped weighted activity score.
func overallScore(rec *types.ProgressRecord) int {
	var skillsSum float64
	for _, area := range types.SkillAreas {
		sp := rec.SkillsProgress[area]
		if sp.Target > 0 {
			skillsSum += float64(sp.Current) / float64(sp.Target) * 100
		}
	}
	skillsAverage := skillsSum / float64(len(types.SkillAreas))

	completed := 0
	for _, m := range types.Milestones {
		if rec.CareerMilestones[m] {
			completed++
		}
	}
	milestonesScore := float64(completed) / float64(len(types.Milestones)) * 100

	activitiesScore := rec.Activities[types.CounterCoursesCompleted]*10 +
		rec.Activities[types.CounterApplicationsSubmitted]*15 +
		rec.Activities[types.CounterOffersReceived]*50
	if activitiesScore > 100 {
		activitiesScore = 100
	}

	return int(math.Round((skillsAverage + milestonesScore + float64(activitiesScore)) / 3))
}
