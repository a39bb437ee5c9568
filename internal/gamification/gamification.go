// Package gamification holds the XP, level, streak, and badge rules. The
// numbers here are product decisions; everything else in the system treats
// them as opaque.
package gamification

// XP rules.
const (
	XPPerLevel           = 500
	RewardLessonComplete = 10
	RewardQuizCorrect    = 5
	MaxStreakBonus       = 20
)

// Badge is an achievement unlocked at an XP threshold.
type Badge struct {
	Slug      string
	Name      string
	Threshold int
}

// Badges lists every badge in ascending threshold order.
var Badges = []Badge{
	{Slug: "newbie", Name: "Newbie Explorer", Threshold: 0},
	{Slug: "scholar", Name: "Curious Scholar", Threshold: 100},
	{Slug: "wizard", Name: "Lesson Wizard", Threshold: 500},
	{Slug: "daily-hero", Name: "Daily Hero", Threshold: 1000},
}

// LevelForXP converts total XP to a level. Levels start at 1.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// XPProgress returns the XP gathered within the current level and the XP
// needed to reach the next one.
func XPProgress(xp int) (current, needed int) {
	if xp < 0 {
		xp = 0
	}
	return xp % XPPerLevel, XPPerLevel
}

// IsLevelUp reports whether moving from oldXP to newXP crosses a level
// boundary.
func IsLevelUp(oldXP, newXP int) bool {
	return LevelForXP(newXP) > LevelForXP(oldXP)
}

// StreakBonus converts a day streak into bonus XP, capped.
func StreakBonus(streak int) int {
	if streak <= 0 {
		return 0
	}
	bonus := 2 * streak
	if bonus > MaxStreakBonus {
		return MaxStreakBonus
	}
	return bonus
}

// LessonReward computes the XP earned for finishing a lesson with the given
// quiz score and current streak.
func LessonReward(correctAnswers, streak int) int {
	if correctAnswers < 0 {
		correctAnswers = 0
	}
	return RewardLessonComplete + RewardQuizCorrect*correctAnswers + StreakBonus(streak)
}

// EarnedBadges returns every badge unlocked at the given XP total.
func EarnedBadges(xp int) []Badge {
	var earned []Badge
	for _, b := range Badges {
		if xp >= b.Threshold {
			earned = append(earned, b)
		}
	}
	return earned
}
