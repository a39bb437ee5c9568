package store

import (
	"time"

	"gorm.io/datatypes"
)

// User is a student account. XP, Level, and Streak are denormalized here so
// the progress endpoints avoid aggregation queries.
type User struct {
	ID        string `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex"`
	Name      string
	Role      string `gorm:"default:student"`
	XP        int
	Level     int `gorm:"default:1"`
	Streak    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Lesson is a generated lesson. Content holds the full lesson JSON exactly
// as produced by the generator; image update operations rewrite fields
// inside it rather than normalizing steps into rows.
type Lesson struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	Topic     string
	Level     string
	Language  string
	Provider  string
	Content   datatypes.JSON
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Progress records one completed lesson.
type Progress struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       string `gorm:"index"`
	LessonID     string
	QuizScore    int
	XPEarned     int
	CompletedAt  time.Time
}

// Badge is a catalog row seeded from the gamification rules.
type Badge struct {
	Slug      string `gorm:"primaryKey"`
	Name      string
	Threshold int
}

// UserBadge links a user to an earned badge.
type UserBadge struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   string `gorm:"index:idx_user_badge,unique"`
	Slug     string `gorm:"index:idx_user_badge,unique"`
	EarnedAt time.Time
}
