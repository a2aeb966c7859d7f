package types

import (
	"encoding/json"
	"time"
)

// SkillArea is the closed set of tracked skill dimensions.
type SkillArea string

const (
	SkillTechnical      SkillArea = "technical"
	SkillCommunication  SkillArea = "communication"
	SkillLeadership     SkillArea = "leadership"
	SkillProblemSolving SkillArea = "problemSolving"
)

// SkillAreas lists every tracked skill area in scoring order.
var SkillAreas = []SkillArea{SkillTechnical, SkillCommunication, SkillLeadership, SkillProblemSolving}

func KnownSkillArea(s SkillArea) bool {
	switch s {
	case SkillTechnical, SkillCommunication, SkillLeadership, SkillProblemSolving:
		return true
	}
	return false
}

// Milestone is a one-time career-journey step.
type Milestone string

const (
	MilestoneProfileCompleted    Milestone = "profileCompleted"
	MilestoneFirstAssessment     Milestone = "firstAssessment"
	MilestoneFirstRecommendation Milestone = "firstRecommendation"
	MilestoneFirstApplication    Milestone = "firstApplication"
	MilestoneSkillsCertified     Milestone = "skillsCertified"
)

var Milestones = []Milestone{
	MilestoneProfileCompleted,
	MilestoneFirstAssessment,
	MilestoneFirstRecommendation,
	MilestoneFirstApplication,
	MilestoneSkillsCertified,
}

// ActivityCounter names a monotonically non-decreasing activity tally.
type ActivityCounter string

const (
	CounterCoursesEnrolled       ActivityCounter = "coursesEnrolled"
	CounterCoursesCompleted      ActivityCounter = "coursesCompleted"
	CounterApplicationsSubmitted ActivityCounter = "applicationsSubmitted"
	CounterInterviewsScheduled   ActivityCounter = "interviewsScheduled"
	CounterOffersReceived        ActivityCounter = "offersReceived"
)

// Streak names a streak counter.
type Streak string

const (
	StreakDailyLogin     Streak = "dailyLogin"
	StreakWeeklyGoals    Streak = "weeklyGoals"
	StreakMonthlyTargets Streak = "monthlyTargets"
)

// ActivityType is the closed enum of reportable user activities.
// Unknown types are accepted and treated as a benign no-op update.
type ActivityType string

const (
	ActivityCourseEnrolled       ActivityType = "course_enrolled"
	ActivityCourseCompleted      ActivityType = "course_completed"
	ActivityApplicationSubmitted ActivityType = "application_submitted"
	ActivityInterviewScheduled   ActivityType = "interview_scheduled"
	ActivityOfferReceived        ActivityType = "offer_received"
	ActivityProfileUpdated       ActivityType = "profile_updated"
	ActivityAssessmentTaken      ActivityType = "assessment_taken"
	ActivityDailyLogin           ActivityType = "daily_login"
)

type SkillProgress struct {
	Current int `json:"current"`
	Target  int `json:"target"`
}

type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// ProgressRecord is the per-user gamification document. It is stored as a
// JSONB column on the user row and mutated only through the progress service.
type ProgressRecord struct {
	OverallScore     int                       `json:"overallScore"`
	SkillsProgress   map[SkillArea]SkillProgress `json:"skillsProgress"`
	CareerMilestones map[Milestone]bool        `json:"careerMilestones"`
	Activities       map[ActivityCounter]int   `json:"activities"`
	Streaks          map[Streak]int            `json:"streaks"`
	Achievements     []Achievement             `json:"achievements"`
	Level            int                       `json:"level"`
	ExperiencePoints int                       `json:"experiencePoints"`
	Badges           []string                  `json:"badges"`
	LastActive       time.Time                 `json:"lastActive"`
}

// DefaultProgress returns the all-zero record created lazily on first access.
func DefaultProgress() *ProgressRecord {
	rec := &ProgressRecord{
		SkillsProgress:   make(map[SkillArea]SkillProgress, len(SkillAreas)),
		CareerMilestones: make(map[Milestone]bool, len(Milestones)),
		Activities: map[ActivityCounter]int{
			CounterCoursesEnrolled:       0,
			CounterCoursesCompleted:      0,
			CounterApplicationsSubmitted: 0,
			CounterInterviewsScheduled:   0,
			CounterOffersReceived:        0,
		},
		Streaks: map[Streak]int{
			StreakDailyLogin:     0,
			StreakWeeklyGoals:    0,
			StreakMonthlyTargets: 0,
		},
		Achievements:     []Achievement{},
		Level:            1,
		ExperiencePoints: 0,
		Badges:           []string{},
		LastActive:       time.Now().UTC(),
	}
	for _, area := range SkillAreas {
		rec.SkillsProgress[area] = SkillProgress{Current: 0, Target: 100}
	}
	for _, m := range Milestones {
		rec.CareerMilestones[m] = false
	}
	return rec
}

// Clone returns a deep copy so callers can mutate without aliasing the
// cached or broadcast record.
func (p *ProgressRecord) Clone() *ProgressRecord {
	cp := *p
	cp.SkillsProgress = make(map[SkillArea]SkillProgress, len(p.SkillsProgress))
	for k, v := range p.SkillsProgress {
		cp.SkillsProgress[k] = v
	}
	cp.CareerMilestones = make(map[Milestone]bool, len(p.CareerMilestones))
	for k, v := range p.CareerMilestones {
		cp.CareerMilestones[k] = v
	}
	cp.Activities = make(map[ActivityCounter]int, len(p.Activities))
	for k, v := range p.Activities {
		cp.Activities[k] = v
	}
	cp.Streaks = make(map[Streak]int, len(p.Streaks))
	for k, v := range p.Streaks {
		cp.Streaks[k] = v
	}
	cp.Achievements = append([]Achievement{}, p.Achievements...)
	cp.Badges = append([]string{}, p.Badges...)
	return &cp
}

// DecodeProgress parses a stored progress document, falling back to the
// lazily-created default when the column is empty.
func DecodeProgress(raw []byte) (*ProgressRecord, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return DefaultProgress(), nil
	}
	rec := DefaultProgress()
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Activity reports one discrete user action to the progress engine.
type Activity struct {
	Type      ActivityType `json:"type"`
	SkillArea SkillArea    `json:"skillArea,omitempty"`
}

// SkillUpdate optionally accompanies any activity. Unrecognized skills are
// ignored; negative points are rejected before any state changes.
type SkillUpdate struct {
	Skill  SkillArea `json:"skill"`
	Points int       `json:"points"`
}

// ProgressInput is the inbound trackProgress payload. Both fields absent is
// a valid no-op update that still touches lastActive.
type ProgressInput struct {
	Activity    *Activity    `json:"activity,omitempty"`
	SkillUpdate *SkillUpdate `json:"skillUpdate,omitempty"`
}

type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	Name             string `json:"name"`
	Score            int    `json:"score"`
	Level            int    `json:"level"`
	ExperiencePoints int    `json:"experiencePoints"`
}
