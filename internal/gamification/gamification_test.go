package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForXP(t *testing.T) {
	assert.Equal(t, 1, LevelForXP(0))
	assert.Equal(t, 1, LevelForXP(499))
	assert.Equal(t, 2, LevelForXP(500))
	assert.Equal(t, 3, LevelForXP(1000))
	assert.Equal(t, 1, LevelForXP(-50))
}

func TestXPProgress(t *testing.T) {
	current, needed := XPProgress(620)
	assert.Equal(t, 120, current)
	assert.Equal(t, 500, needed)
}

func TestIsLevelUp(t *testing.T) {
	assert.True(t, IsLevelUp(490, 510))
	assert.False(t, IsLevelUp(100, 490))
	assert.True(t, IsLevelUp(0, 1200))
}

func TestStreakBonus(t *testing.T) {
	assert.Equal(t, 0, StreakBonus(0))
	assert.Equal(t, 0, StreakBonus(-3))
	assert.Equal(t, 2, StreakBonus(1))
	assert.Equal(t, 10, StreakBonus(5))
	assert.Equal(t, 20, StreakBonus(10))
	assert.Equal(t, 20, StreakBonus(100))
}

func TestLessonReward(t *testing.T) {
	// Base completion only.
	assert.Equal(t, 10, LessonReward(0, 0))
	// Three correct answers, no streak.
	assert.Equal(t, 25, LessonReward(3, 0))
	// Streak bonus added on top, capped.
	assert.Equal(t, 10+5*2+20, LessonReward(2, 50))
	// Negative scores are treated as zero.
	assert.Equal(t, 10, LessonReward(-1, 0))
}

func TestEarnedBadges(t *testing.T) {
	assert.Len(t, EarnedBadges(0), 1)
	assert.Len(t, EarnedBadges(99), 1)
	assert.Len(t, EarnedBadges(100), 2)
	assert.Len(t, EarnedBadges(5000), 4)
}
