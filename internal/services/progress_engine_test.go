package services

import (
	"errors"
	"testing"
	"time"

	"github.com/careerbridge/careerbridge-backend/internal/pkg/apperr"
	"github.com/careerbridge/careerbridge-backend/internal/types"
)

func mustApply(t *testing.T, rec *types.ProgressRecord, input types.ProgressInput) *types.ProgressRecord {
	t.Helper()
	next, _, err := applyProgressUpdate(rec, input, time.Now().UTC())
	if err != nil {
		t.Fatalf("applyProgressUpdate: %v", err)
	}
	return next
}

func activityInput(at types.ActivityType) types.ProgressInput {
	return types.ProgressInput{Activity: &types.Activity{Type: at}}
}

func TestApplyActivityTransformations(t *testing.T) {
	cases := []struct {
		name      string
		activity  types.Activity
		wantXP    int
		wantCheck func(t *testing.T, rec *types.ProgressRecord)
	}{
		{
			name:     "course_enrolled",
			activity: types.Activity{Type: types.ActivityCourseEnrolled},
			wantXP:   10,
			wantCheck: func(t *testing.T, rec *types.ProgressRecord) {
				if got := rec.Activities[types.CounterCoursesEnrolled]; got != 1 {
					t.Fatalf("coursesEnrolled=%d, want 1", got)
				}
			},
		},
		{
			name:     "course_completed",
			activity: types.Activity{Type: types.ActivityCourseCompleted, SkillArea: types.SkillTechnical},
			wantXP:   50,
			wantCheck: func(t *testing.T, rec *types.ProgressRecord) {
				if got := rec.Activities[types.CounterCoursesCompleted]; got != 1 {
					t.Fatalf("coursesCompleted=%d, want 1", got)
				}
				if got := rec.SkillsProgress[types.SkillTechnical].Current; got != 10 {
					t.Fatalf("technical.current=%d, want 10", got)
				}
			},
		},
		{
			name:     "application_submitted",
			activity: types.Activity{Type: types.ActivityApplicationSubmitted},
			wantXP:   25,
			wantCheck: func(t *testing.T, rec *types.ProgressRecord) {
				if !rec.CareerMilestones[types.MilestoneFirstApplication] {
					t.Fatalf("firstApplication milestone not set")
				}
			},
		},
		{
			name:     "interview_scheduled",
			activity: types.Activity{Type: types.ActivityInterviewScheduled},
			wantXP:   75,
			wantCheck: func(t *testing.T, rec *types.ProgressRecord) {
				if got := rec.Activities[types.CounterInterviewsScheduled]; got != 1 {
					t.Fatalf("interviewsScheduled=%d, want 1", got)
				}
			},
		},
		{
			name:     "offer_received",
			activity: types.Activity{Type: types.ActivityOfferReceived},
			wantXP:   200,
			wantCheck: func(t *testing.T, rec *types.ProgressRecord) {
				if got := rec.Activities[types.CounterOffersReceived]; got != 1 {
					t.Fatalf("offersReceived=%d, want 1", got)
				}
			},
		},
		{
			name:     "profile_updated",
			activity: types.Activity{Type: types.ActivityProfileUpdated},
			wantXP:   15,
			wantCheck: func(t *testing.T, rec *types.ProgressRecord) {
				if !rec.CareerMilestones[types.MilestoneProfileCompleted] {
					t.Fatalf("profileCompleted milestone not set")
				}
			},
		},
		{
			name:     "assessment_taken",
			activity: types.Activity{Type: types.ActivityAssessmentTaken},
			wantXP:   30,
			wantCheck: func(t *testing.T, rec *types.ProgressRecord) {
				if !rec.CareerMilestones[types.MilestoneFirstAssessment] {
					t.Fatalf("firstAssessment milestone not set")
				}
			},
		},
		{
			name:     "daily_login",
			activity: types.Activity{Type: types.ActivityDailyLogin},
			wantXP:   5,
			wantCheck: func(t *testing.T, rec *types.ProgressRecord) {
				if got := rec.Streaks[types.StreakDailyLogin]; got != 1 {
					t.Fatalf("dailyLogin streak=%d, want 1", got)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			activity := tc.activity
			next := mustApply(t, types.DefaultProgress(), types.ProgressInput{Activity: &activity})
			if next.ExperiencePoints != tc.wantXP {
				t.Fatalf("experiencePoints=%d, want %d", next.ExperiencePoints, tc.wantXP)
			}
			tc.wantCheck(t, next)
		})
	}
}

func TestUnknownActivityIsBenignNoOp(t *testing.T) {
	cur := types.DefaultProgress()
	cur.LastActive = time.Now().Add(-time.Hour)

	next := mustApply(t, cur, types.ProgressInput{Activity: &types.Activity{Type: "pet_the_office_dog"}})

	if next.ExperiencePoints != cur.ExperiencePoints {
		t.Fatalf("experiencePoints changed: %d", next.ExperiencePoints)
	}
	if next.OverallScore != cur.OverallScore {
		t.Fatalf("overallScore changed: %d", next.OverallScore)
	}
	if len(next.Achievements) != 0 {
		t.Fatalf("achievements appended for unknown activity: %v", next.Achievements)
	}
	if !next.LastActive.After(cur.LastActive) {
		t.Fatalf("lastActive not refreshed")
	}
}

func TestEmptyInputTouchesOnlyLastActive(t *testing.T) {
	cur := types.DefaultProgress()
	cur.LastActive = time.Now().Add(-time.Hour)

	next := mustApply(t, cur, types.ProgressInput{})

	if next.ExperiencePoints != 0 || next.OverallScore != 0 || next.Level != 1 {
		t.Fatalf("empty input mutated record: xp=%d score=%d level=%d", next.ExperiencePoints, next.OverallScore, next.Level)
	}
	if !next.LastActive.After(cur.LastActive) {
		t.Fatalf("lastActive not refreshed")
	}
}

func TestSkillUpdateClampsToTarget(t *testing.T) {
	next := mustApply(t, types.DefaultProgress(), types.ProgressInput{
		SkillUpdate: &types.SkillUpdate{Skill: types.SkillTechnical, Points: 1000},
	})
	sp := next.SkillsProgress[types.SkillTechnical]
	if sp.Current != sp.Target {
		t.Fatalf("technical.current=%d, want clamp to target %d", sp.Current, sp.Target)
	}
}

func TestSkillUpdateUnknownSkillIgnored(t *testing.T) {
	next := mustApply(t, types.DefaultProgress(), types.ProgressInput{
		SkillUpdate: &types.SkillUpdate{Skill: "underwaterBasketWeaving", Points: 10},
	})
	for _, area := range types.SkillAreas {
		if got := next.SkillsProgress[area].Current; got != 0 {
			t.Fatalf("%s.current=%d, want 0", area, got)
		}
	}
	if len(next.SkillsProgress) != len(types.SkillAreas) {
		t.Fatalf("unknown skill key added to record")
	}
}

func TestSkillUpdateNegativePointsRejected(t *testing.T) {
	_, _, err := applyProgressUpdate(types.DefaultProgress(), types.ProgressInput{
		SkillUpdate: &types.SkillUpdate{Skill: types.SkillTechnical, Points: -5},
	}, time.Now())
	if !errors.Is(err, ErrInvalidSkillPoints) {
		t.Fatalf("err=%v, want ErrInvalidSkillPoints", err)
	}
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("err=%v, want apperr.ErrInvalidArgument in chain", err)
	}
}

func TestLevelFormula(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{xp: 0, want: 1},
		{xp: 99, want: 1},
		{xp: 100, want: 2},
		{xp: 250, want: 3},
	}
	for _, tc := range cases {
		cur := types.DefaultProgress()
		cur.ExperiencePoints = tc.xp
		next := mustApply(t, cur, types.ProgressInput{})
		if next.Level != tc.want {
			t.Fatalf("level for xp=%d: got %d, want %d", tc.xp, next.Level, tc.want)
		}
	}
}

func TestOverallScoreStaysInBounds(t *testing.T) {
	rec := types.DefaultProgress()
	// Max out every scoring input.
	for _, area := range types.SkillAreas {
		rec.SkillsProgress[area] = types.SkillProgress{Current: 100, Target: 100}
	}
	for _, m := range types.Milestones {
		rec.CareerMilestones[m] = true
	}
	rec.Activities[types.CounterCoursesCompleted] = 1000
	rec.Activities[types.CounterApplicationsSubmitted] = 1000
	rec.Activities[types.CounterOffersReceived] = 1000

	if got := overallScore(rec); got != 100 {
		t.Fatalf("maxed score=%d, want 100", got)
	}
	if got := overallScore(types.DefaultProgress()); got != 0 {
		t.Fatalf("zero score=%d, want 0", got)
	}
}

func TestEndToEndScenario(t *testing.T) {
	rec := types.DefaultProgress()

	rec = mustApply(t, rec, activityInput(types.ActivityCourseEnrolled))
	if rec.ExperiencePoints != 10 {
		t.Fatalf("experiencePoints=%d, want 10", rec.ExperiencePoints)
	}
	if got := rec.Activities[types.CounterCoursesEnrolled]; got != 1 {
		t.Fatalf("coursesEnrolled=%d, want 1", got)
	}
	if rec.OverallScore != 0 {
		t.Fatalf("overallScore=%d, want 0", rec.OverallScore)
	}

	rec = mustApply(t, rec, types.ProgressInput{
		Activity: &types.Activity{Type: types.ActivityCourseCompleted, SkillArea: types.SkillTechnical},
	})
	if rec.ExperiencePoints != 60 {
		t.Fatalf("experiencePoints=%d, want 60", rec.ExperiencePoints)
	}
	if got := rec.Activities[types.CounterCoursesCompleted]; got != 1 {
		t.Fatalf("coursesCompleted=%d, want 1", got)
	}
	if got := rec.SkillsProgress[types.SkillTechnical].Current; got != 10 {
		t.Fatalf("technical.current=%d, want 10", got)
	}
	if len(rec.Achievements) != 1 || rec.Achievements[0].ID != "first_course" {
		t.Fatalf("achievements=%v, want exactly first_course", rec.Achievements)
	}
	// skills avg 2.5, milestones 0, activities 10 -> round(12.5/3) = 4
	if rec.OverallScore != 4 {
		t.Fatalf("overallScore=%d, want 4", rec.OverallScore)
	}
}

func TestApplyDoesNotMutateCurrent(t *testing.T) {
	cur := types.DefaultProgress()
	_ = mustApply(t, cur, activityInput(types.ActivityOfferReceived))
	if cur.ExperiencePoints != 0 || cur.Activities[types.CounterOffersReceived] != 0 || len(cur.Achievements) != 0 {
		t.Fatalf("current record mutated: %+v", cur)
	}
}
