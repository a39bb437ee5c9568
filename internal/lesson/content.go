// Package lesson produces structured lesson content for a topic, level and
// language by calling the configured AI text providers with credential
// rotation and a primary-to-secondary fallback chain.
package lesson

import (
	"errors"
	"fmt"
	"strings"
)

// Level is a normalized difficulty level.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// NormalizeLevel maps a free-form level string onto one of the three known
// levels using case-insensitive substring checks against common synonyms.
// Unmatched values fall back to beginner.
func NormalizeLevel(level string) Level {
	l := strings.ToLower(level)
	switch {
	case strings.Contains(l, "beginner"), strings.Contains(l, "easy"), strings.Contains(l, "basic"):
		return LevelBeginner
	case strings.Contains(l, "intermediate"), strings.Contains(l, "medium"), strings.Contains(l, "mid"):
		return LevelIntermediate
	case strings.Contains(l, "advanced"), strings.Contains(l, "hard"), strings.Contains(l, "expert"):
		return LevelAdvanced
	default:
		return LevelBeginner
	}
}

// Resource is one recommended external resource.
type Resource struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Difficulty  string `json:"difficulty,omitempty"`
}

// Quiz is a single four-option question. Answer carries the literal text of
// the correct option, not an index.
type Quiz struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Hint        string   `json:"hint,omitempty"`
	Explanation string   `json:"explanation,omitempty"`

	// ImageURL survives from the legacy content shape where quizzes carried
	// their own illustration. Persisted by the update-image flow.
	ImageURL string `json:"imageUrl,omitempty"`
}

// Step is one concept in the guided journey.
type Step struct {
	Title             string     `json:"title"`
	Explanation       string     `json:"explanation"`
	VisualDescription string     `json:"visual_description,omitempty"`
	RealWorld         string     `json:"real_world,omitempty"`
	Resources         []Resource `json:"resources,omitempty"`
	Quiz              *Quiz      `json:"quiz,omitempty"`

	// ImageURL is filled in after the fact by the image gateway's caller.
	ImageURL string `json:"imageUrl,omitempty"`
}

// Content is the full generated lesson.
type Content struct {
	Introduction         string     `json:"introduction"`
	IntroductionVisual   string     `json:"introduction_visual,omitempty"`
	IntroductionImageURL string     `json:"introductionImageUrl,omitempty"`
	KeyConcepts          []string   `json:"key_concepts,omitempty"`
	Steps                []Step     `json:"steps"`
	Summary              string     `json:"summary,omitempty"`
	FinalMotivation      string     `json:"final_motivation,omitempty"`
	Resources            []Resource `json:"resources,omitempty"`

	// Quizzes is the legacy flat shape kept for lessons generated before
	// steps carried their own quiz.
	Quizzes []Quiz `json:"quizzes,omitempty"`
}

// ErrInvalidContent marks a lesson that parsed as JSON but violates the
// content invariants. It is a content error, distinct from transport errors.
var ErrInvalidContent = errors.New("invalid lesson content")

// Validate checks the content invariants: steps must be a non-empty ordered
// sequence, and every quiz's answer must be byte-equal to one of its options.
func Validate(c *Content) error {
	if c == nil {
		return fmt.Errorf("%w: nil content", ErrInvalidContent)
	}
	if len(c.Steps) == 0 && len(c.Quizzes) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidContent)
	}
	for i, step := range c.Steps {
		if step.Quiz == nil {
			continue
		}
		if err := validateQuiz(step.Quiz); err != nil {
			return fmt.Errorf("%w: step %d: %v", ErrInvalidContent, i, err)
		}
	}
	for i := range c.Quizzes {
		if err := validateQuiz(&c.Quizzes[i]); err != nil {
			return fmt.Errorf("%w: quiz %d: %v", ErrInvalidContent, i, err)
		}
	}
	return nil
}

func validateQuiz(q *Quiz) error {
	if len(q.Options) == 0 {
		return errors.New("quiz has no options")
	}
	for _, opt := range q.Options {
		if opt == q.Answer {
			return nil
		}
	}
	return fmt.Errorf("answer %q is not one of the options", q.Answer)
}
