// Package achievements derives badges from a user's check-in history. The
// derivation is a pure function over the record list: nothing is persisted,
// nothing is mutated, and every view recomputes from scratch.
package achievements

import (
	"fmt"
	"strings"
	"time"

	"github.com/wisesobriety/wisesober/models"
)

// soberTokens classify a check-in as alcohol-free when any of them appears
// as a substring of the lowercased consumption text. The substring match is
// the documented contract, quirks included: "not sure" matches "no". Empty
// consumption text also classifies as sober.
var soberTokens = []string{"none", "no", "0", "zero"}

func soberClassified(consumption string) bool {
	lc := strings.ToLower(strings.TrimSpace(consumption))
	if lc == "" {
		return true
	}
	for _, tok := range soberTokens {
		if strings.Contains(lc, tok) {
			return true
		}
	}
	return false
}

// Derive runs the five classification passes over the record list and
// returns every badge whose threshold is met, in pass order: sobriety,
// motivation, coping, trigger, consistency. Badge dates are the computation
// day, not anything derived from the qualifying records, so an unchanged
// history recomputed tomorrow carries tomorrow's date.
func Derive(records []models.CheckInRecord) []models.Achievement {
	return deriveAt(records, time.Now())
}

func deriveAt(records []models.CheckInRecord, now time.Time) []models.Achievement {
	date := now.Format("2006-01-02")
	badges := []models.Achievement{}
	badges = append(badges, sobrietyPass(records, date)...)
	badges = append(badges, motivationPass(records, date)...)
	badges = append(badges, copingPass(records, date)...)
	badges = append(badges, triggerPass(records, date)...)
	badges = append(badges, consistencyPass(records, date)...)
	return badges
}

// sobrietyPass counts sober-classified records across the whole history.
// Despite the badge copy, this is a cumulative count, not a consecutive-day
// streak; each threshold is evaluated independently against the same total,
// so a 100-count history earns all three badges at once.
func sobrietyPass(records []models.CheckInRecord, date string) []models.Achievement {
	soberDays := 0
	for _, rec := range records {
		if soberClassified(rec.AlcoholConsumption) {
			soberDays++
		}
	}

	badges := []models.Achievement{}
	if soberDays >= 7 {
		badges = append(badges, models.Achievement{
			ID:          "sober_7_days",
			Title:       "7 Days Sober",
			Description: fmt.Sprintf("Completed %d consecutive days of sobriety", soberDays),
			Date:        date,
			Type:        models.AchievementTypeMilestone,
			Icon:        "trophy",
			Color:       "#fa709a",
		})
	}
	if soberDays >= 30 {
		badges = append(badges, models.Achievement{
			ID:          "sober_30_days",
			Title:       "30 Days Strong",
			Description: fmt.Sprintf("Reached one month milestone with %d sober days", soberDays),
			Date:        date,
			Type:        models.AchievementTypeMilestone,
			Icon:        "star",
			Color:       "#4facfe",
		})
	}
	if soberDays >= 100 {
		badges = append(badges, models.Achievement{
			ID:          "sober_100_days",
			Title:       "100 Days Champion",
			Description: fmt.Sprintf("Incredible! %d days of sobriety", soberDays),
			Date:        date,
			Type:        models.AchievementTypeMilestone,
			Icon:        "diamond",
			Color:       "#ffd700",
		})
	}
	return badges
}

func motivationPass(records []models.CheckInRecord, date string) []models.Achievement {
	highDays := 0
	steadyDays := 0
	for _, rec := range records {
		if rec.MotivationRating >= 4 {
			highDays++
		}
		if rec.MotivationRating >= 3 {
			steadyDays++
		}
	}

	badges := []models.Achievement{}
	if highDays >= 5 {
		badges = append(badges, models.Achievement{
			ID:          "high_motivation",
			Title:       "High Motivation",
			Description: fmt.Sprintf("Maintained high motivation for %d days", highDays),
			Date:        date,
			Type:        models.AchievementTypeBadge,
			Icon:        "trending-up",
			Color:       "#43e97b",
		})
	}
	if steadyDays >= 10 {
		badges = append(badges, models.Achievement{
			ID:          "consistent_progress",
			Title:       "Consistent Progress",
			Description: fmt.Sprintf("Stayed motivated for %d days", steadyDays),
			Date:        date,
			Type:        models.AchievementTypeBadge,
			Icon:        "heart",
			Color:       "#a8edea",
		})
	}
	return badges
}

// tally counts named options across both stored shapes. Only selected
// options contribute; structured free text never reaches the tallies.
func tally(lists []models.SelectionList) map[string]int {
	counts := map[string]int{}
	for _, list := range lists {
		for _, name := range list.Selected() {
			counts[name]++
		}
	}
	return counts
}

func copingPass(records []models.CheckInRecord, date string) []models.Achievement {
	lists := make([]models.SelectionList, 0, len(records))
	for _, rec := range records {
		lists = append(lists, rec.CopingStrategies)
	}
	counts := tally(lists)

	badges := []models.Achievement{}
	if counts["Exercise"] >= 5 {
		badges = append(badges, models.Achievement{
			ID:          "exercise_enthusiast",
			Title:       "Exercise Enthusiast",
			Description: fmt.Sprintf("Used exercise as coping strategy %d times", counts["Exercise"]),
			Date:        date,
			Type:        models.AchievementTypeBadge,
			Icon:        "fitness",
			Color:       "#ff6b6b",
		})
	}
	if counts["Meditation"] >= 10 {
		badges = append(badges, models.Achievement{
			ID:          "meditation_master",
			Title:       "Meditation Master",
			Description: fmt.Sprintf("Practiced meditation %d times", counts["Meditation"]),
			Date:        date,
			Type:        models.AchievementTypeBadge,
			Icon:        "leaf",
			Color:       "#4ecdc4",
		})
	}
	if counts["Called a friend"] >= 3 {
		badges = append(badges, models.Achievement{
			ID:          "support_seeker",
			Title:       "Support Seeker",
			Description: fmt.Sprintf("Reached out for support %d times", counts["Called a friend"]),
			Date:        date,
			Type:        models.AchievementTypeBadge,
			Icon:        "call",
			Color:       "#45b7d1",
		})
	}
	return badges
}

func triggerPass(records []models.CheckInRecord, date string) []models.Achievement {
	lists := make([]models.SelectionList, 0, len(records))
	for _, rec := range records {
		lists = append(lists, rec.CravingTriggers)
	}
	counts := tally(lists)

	badges := []models.Achievement{}
	if counts["Stress"] >= 5 {
		badges = append(badges, models.Achievement{
			ID:          "stress_handler",
			Title:       "Stress Handler",
			Description: fmt.Sprintf("Successfully managed stress triggers %d times", counts["Stress"]),
			Date:        date,
			Type:        models.AchievementTypeBadge,
			Icon:        "shield-checkmark",
			Color:       "#667eea",
		})
	}
	if counts["Social situations"] >= 3 {
		badges = append(badges, models.Achievement{
			ID:          "social_butterfly",
			Title:       "Social Butterfly",
			Description: fmt.Sprintf("Handled social situations without drinking %d times", counts["Social situations"]),
			Date:        date,
			Type:        models.AchievementTypeBadge,
			Icon:        "people",
			Color:       "#ff9a9e",
		})
	}
	return badges
}

func consistencyPass(records []models.CheckInRecord, date string) []models.Achievement {
	total := len(records)

	badges := []models.Achievement{}
	if total >= 7 {
		badges = append(badges, models.Achievement{
			ID:          "daily_checkin_7",
			Title:       "Daily Check-in",
			Description: fmt.Sprintf("Completed %d daily check-ins", total),
			Date:        date,
			Type:        models.AchievementTypeBadge,
			Icon:        "calendar",
			Color:       "#a8edea",
		})
	}
	if total >= 30 {
		badges = append(badges, models.Achievement{
			ID:          "daily_checkin_30",
			Title:       "Monthly Commitment",
			Description: fmt.Sprintf("Maintained daily check-ins for %d days", total),
			Date:        date,
			Type:        models.AchievementTypeBadge,
			Icon:        "calendar",
			Color:       "#4facfe",
		})
	}
	return badges
}
