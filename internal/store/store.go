// Package store persists users, lessons, progress, and badges. It is the
// only package that touches the database; everything above it works with the
// returned structs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/edumagic/edumagic/internal/gamification"
	"github.com/edumagic/edumagic/internal/lesson"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store wraps the gorm handle.
type Store struct {
	db *gorm.DB
}

// Open connects to the sqlite database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(&User{}, &Lesson{}, &Progress{}, &Badge{}, &UserBadge{}); err != nil {
		return err
	}

	// Seed the badge catalog from the gamification rules. Clauses keep this
	// idempotent across restarts.
	for _, b := range gamification.Badges {
		row := Badge{Slug: b.Slug, Name: b.Name, Threshold: b.Threshold}
		if err := s.db.Where(Badge{Slug: b.Slug}).FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// EnsureUser creates the user row on first sight of an id.
func (s *Store) EnsureUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where(User{ID: id}).
		Attrs(User{Level: 1, Role: "student"}).
		FirstOrCreate(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateLesson stores generated lesson content and returns the row.
func (s *Store) CreateLesson(ctx context.Context, userID, topic, level, language, providerName string, content *lesson.Content) (*Lesson, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encoding lesson content: %w", err)
	}

	row := &Lesson{
		ID:       uuid.NewString(),
		UserID:   userID,
		Topic:    topic,
		Level:    level,
		Language: language,
		Provider: providerName,
		Content:  datatypes.JSON(raw),
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// LessonsByUser returns the user's lessons, newest first.
func (s *Store) LessonsByUser(ctx context.Context, userID string) ([]Lesson, error) {
	var rows []Lesson
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// LessonByID fetches one lesson owned by the user.
func (s *Store) LessonByID(ctx context.Context, userID, lessonID string) (*Lesson, error) {
	var row Lesson
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", lessonID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateLessonImage writes an image URL into the lesson's stored content.
//
// The target is addressed by stepIndex: a non-negative index names a step,
// -1 names the introduction image, and legacy selects the old quizzes array
// instead of steps for content generated before steps carried their own
// quizzes.
func (s *Store) UpdateLessonImage(ctx context.Context, userID, lessonID string, stepIndex int, legacy bool, imageURL string) (*Lesson, error) {
	row, err := s.LessonByID(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}

	var content lesson.Content
	if err := json.Unmarshal(row.Content, &content); err != nil {
		return nil, fmt.Errorf("decoding lesson content: %w", err)
	}

	switch {
	case stepIndex == -1:
		content.IntroductionImageURL = imageURL
	case legacy:
		if stepIndex < 0 || stepIndex >= len(content.Quizzes) {
			return nil, fmt.Errorf("quiz index %d out of range", stepIndex)
		}
		content.Quizzes[stepIndex].ImageURL = imageURL
	default:
		if stepIndex < 0 || stepIndex >= len(content.Steps) {
			return nil, fmt.Errorf("step index %d out of range", stepIndex)
		}
		content.Steps[stepIndex].ImageURL = imageURL
	}

	raw, err := json.Marshal(&content)
	if err != nil {
		return nil, fmt.Errorf("encoding lesson content: %w", err)
	}
	row.Content = datatypes.JSON(raw)

	if err := s.db.WithContext(ctx).Model(row).Update("content", row.Content).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// ProgressResult summarizes the outcome of recording a completed lesson.
type ProgressResult struct {
	XPEarned  int                  `json:"xpEarned"`
	TotalXP   int                  `json:"totalXp"`
	Level     int                  `json:"level"`
	LeveledUp bool                 `json:"leveledUp"`
	Streak    int                  `json:"streak"`
	NewBadges []gamification.Badge `json:"newBadges,omitempty"`
}

// RecordProgress awards XP for a completed lesson, advances the streak,
// recomputes the level, and grants any badges crossed.
func (s *Store) RecordProgress(ctx context.Context, userID, lessonID string, quizScore int) (*ProgressResult, error) {
	user, err := s.EnsureUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	newStreak := user.Streak + 1
	earned := gamification.LessonReward(quizScore, newStreak)
	oldXP := user.XP
	newXP := oldXP + earned
	newLevel := gamification.LevelForXP(newXP)

	result := &ProgressResult{
		XPEarned:  earned,
		TotalXP:   newXP,
		Level:     newLevel,
		LeveledUp: gamification.IsLevelUp(oldXP, newXP),
		Streak:    newStreak,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Badges are awarded against what the user already holds, so the
		// zero-threshold badge lands on the very first completion.
		var held []UserBadge
		if err := tx.Where("user_id = ?", userID).Find(&held).Error; err != nil {
			return err
		}
		heldSlugs := make(map[string]bool, len(held))
		for _, h := range held {
			heldSlugs[h.Slug] = true
		}
		for _, b := range gamification.EarnedBadges(newXP) {
			if !heldSlugs[b.Slug] {
				result.NewBadges = append(result.NewBadges, b)
			}
		}

		if err := tx.Model(&User{ID: userID}).Updates(map[string]any{
			"xp":     newXP,
			"level":  newLevel,
			"streak": newStreak,
		}).Error; err != nil {
			return err
		}

		if err := tx.Create(&Progress{
			UserID:      userID,
			LessonID:    lessonID,
			QuizScore:   quizScore,
			XPEarned:    earned,
			CompletedAt: time.Now(),
		}).Error; err != nil {
			return err
		}

		for _, b := range result.NewBadges {
			award := UserBadge{UserID: userID, Slug: b.Slug, EarnedAt: time.Now()}
			if err := tx.Where(UserBadge{UserID: userID, Slug: b.Slug}).FirstOrCreate(&award).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("[store] user %s earned %d xp (level %d, streak %d)", userID, earned, newLevel, newStreak)
	return result, nil
}

// ProgressSummary is what the progress endpoint returns. Recent holds the
// latest completions, newest first, capped at five.
type ProgressSummary struct {
	XP             int                  `json:"xp"`
	Level          int                  `json:"level"`
	XPInLevel      int                  `json:"xpInLevel"`
	XPForNextLevel int                  `json:"xpForNextLevel"`
	Streak         int                  `json:"streak"`
	LessonCount    int64                `json:"lessonCount"`
	Badges         []gamification.Badge `json:"badges"`
	Recent         []Progress           `json:"recent"`
}

// ProgressFor builds the user's progress summary.
func (s *Store) ProgressFor(ctx context.Context, userID string) (*ProgressSummary, error) {
	user, err := s.EnsureUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&Progress{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, err
	}

	var recent []Progress
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(5).
		Find(&recent).Error; err != nil {
		return nil, err
	}

	inLevel, forNext := gamification.XPProgress(user.XP)
	return &ProgressSummary{
		XP:             user.XP,
		Level:          gamification.LevelForXP(user.XP),
		XPInLevel:      inLevel,
		XPForNextLevel: forNext,
		Streak:         user.Streak,
		LessonCount:    count,
		Badges:         gamification.EarnedBadges(user.XP),
		Recent:         recent,
	}, nil
}
