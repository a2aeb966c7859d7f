package services

import (
	"time"

	"github.com/careerbridge/careerbridge-backend/internal/types"
)

// achievementRule detects a threshold crossing on the post-update record.
// Rules tied to an exact counter value fire at most once per user; the
// offer_received rule matches every offer and therefore repeats on purpose
// (each offer is celebrated).
type achievementRule struct {
	trigger     types.ActivityType
	matches     func(rec *types.ProgressRecord) bool
	id          string
	title       string
	description string
	icon        string
}

var achievementRules = []achievementRule{
	{
		trigger:     types.ActivityCourseCompleted,
		matches:     func(rec *types.ProgressRecord) bool { return rec.Activities[types.CounterCoursesCompleted] == 1 },
		id:          "first_course",
		title:       "Learning Starter",
		description: "Completed your first course",
		icon:        "🎓",
	},
	{
		trigger:     types.ActivityCourseCompleted,
		matches:     func(rec *types.ProgressRecord) bool { return rec.Activities[types.CounterCoursesCompleted] == 5 },
		id:          "course_enthusiast",
		title:       "Course Enthusiast",
		description: "Completed 5 courses",
		icon:        "📚",
	},
	{
		trigger:     types.ActivityApplicationSubmitted,
		matches:     func(rec *types.ProgressRecord) bool { return rec.Activities[types.CounterApplicationsSubmitted] == 1 },
		id:          "first_application",
		title:       "Job Hunter",
		description: "Submitted your first application",
		icon:        "🎯",
	},
	{
		trigger:     types.ActivityOfferReceived,
		matches:     func(rec *types.ProgressRecord) bool { return true },
		id:          "offer_received",
		title:       "Success!",
		description: "Received a job offer",
		icon:        "🎉",
	},
}

// unlockAchievements appends every achievement newly earned by the activity
// just applied and returns the new entries. Existing entries are never
// removed or mutated.
func unlockAchievements(rec *types.ProgressRecord, activity types.ActivityType, now time.Time) []types.Achievement {
	var unlocked []types.Achievement
	for _, rule := range achievementRules {
		if rule.trigger != activity || !rule.matches(rec) {
			continue
		}
		unlocked = append(unlocked, types.Achievement{
			ID:          rule.id,
			Title:       rule.title,
			Description: rule.description,
			Icon:        rule.icon,
			EarnedAt:    now,
		})
	}
	rec.Achievements = append(rec.Achievements, unlocked...)
	return unlocked
}
