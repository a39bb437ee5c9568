package lesson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"beginner", LevelBeginner},
		{"Beginner", LevelBeginner},
		{"super easy", LevelBeginner},
		{"basics please", LevelBeginner},
		{"intermediate", LevelIntermediate},
		{"medium", LevelIntermediate},
		{"mid-level", LevelIntermediate},
		{"advanced", LevelAdvanced},
		{"HARD", LevelAdvanced},
		{"expert mode", LevelAdvanced},
		{"", LevelBeginner},
		{"whatever", LevelBeginner},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLevel(tt.in), "input %q", tt.in)
	}
}

func validContent() *Content {
	return &Content{
		Introduction: "Welcome!",
		Steps: []Step{
			{
				Title:       "First concept",
				Explanation: "Explained here.",
				Quiz: &Quiz{
					Question: "Pick A.",
					Options:  []string{"A", "B", "C", "D"},
					Answer:   "A",
				},
			},
		},
	}
}

func TestValidateAcceptsGoodContent(t *testing.T) {
	assert.NoError(t, Validate(validContent()))
}

func TestValidateRejectsNil(t *testing.T) {
	err := Validate(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestValidateRejectsEmptySteps(t *testing.T) {
	err := Validate(&Content{Introduction: "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestValidateRejectsAnswerNotInOptions(t *testing.T) {
	c := validContent()
	c.Steps[0].Quiz.Answer = "E"

	err := Validate(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestValidateAnswerMustMatchExactly(t *testing.T) {
	c := validContent()
	c.Steps[0].Quiz.Answer = "a"

	// Case differences are not a match; the frontend compares byte-for-byte.
	assert.Error(t, Validate(c))
}

func TestValidateStepWithoutQuizIsFine(t *testing.T) {
	c := validContent()
	c.Steps[0].Quiz = nil
	assert.NoError(t, Validate(c))
}

func TestValidateLegacyQuizzesOnly(t *testing.T) {
	c := &Content{
		Introduction: "old shape",
		Quizzes: []Quiz{
			{Question: "q", Options: []string{"yes", "no"}, Answer: "yes"},
		},
	}
	assert.NoError(t, Validate(c))

	c.Quizzes[0].Answer = "maybe"
	assert.Error(t, Validate(c))
}

func TestBuildLessonPromptCalibratesPerLevel(t *testing.T) {
	beginner := buildLessonPrompt("Photosynthesis", "beginner", "English")
	advanced := buildLessonPrompt("Photosynthesis", "advanced", "English")

	assert.Contains(t, beginner, "5-6 steps")
	assert.Contains(t, advanced, "7-8 steps")
	assert.Contains(t, beginner, `"Photosynthesis"`)
	assert.NotEqual(t, beginner, advanced)
}
