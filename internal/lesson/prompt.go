package lesson

import "fmt"

// levelContext calibrates the prompt per difficulty level: depth of
// explanation, step count, quiz style and resource style.
type levelContext struct {
	depth          string
	steps          string
	quizStyle      string
	resourcesStyle string
}

var levelContexts = map[Level]levelContext{
	LevelBeginner: {
		depth:          "Assume ZERO prior knowledge. Use very simple language, everyday analogies, and avoid jargon. Focus on the 'what' and 'why'. Build a solid mental model from scratch.",
		steps:          "5-6 steps",
		quizStyle:      "simple recognition and recall questions",
		resourcesStyle: "beginner-friendly YouTube videos, simple articles, and introductory books",
	},
	LevelIntermediate: {
		depth:          "Assume the student knows the basics. Go deeper into the 'how'. Introduce technical terms with clear definitions. Cover edge cases, common mistakes, and practical patterns. Build on prior knowledge explicitly.",
		steps:          "6-7 steps",
		quizStyle:      "application and comprehension questions that require understanding, not just recall",
		resourcesStyle: "official documentation, intermediate tutorials, practice projects, and technical blogs",
	},
	LevelAdvanced: {
		depth:          "Assume strong foundational knowledge. Explore the 'why it works this way' at a deep level. Cover internals, performance, trade-offs, design patterns, and expert-level nuances. Challenge assumptions.",
		steps:          "7-8 steps",
		quizStyle:      "analysis and synthesis questions requiring critical thinking and expert judgment",
		resourcesStyle: "research papers, advanced books, source code repositories, conference talks, and expert blogs",
	},
}

// buildLessonPrompt assembles the full generation prompt: persona, level
// calibration, content requirements, the exact JSON shape expected back, and
// the URL quality rule. The provider is asked for a single JSON object and
// nothing else; extraction still defends against fenced or chatty output.
func buildLessonPrompt(topic, level, language string) string {
	ctx := levelContexts[NormalizeLevel(level)]

	return fmt.Sprintf(`You are a world-class AI educator and deep research specialist. Your task is to create a comprehensive, level-calibrated "Guided Learning Journey".

TOPIC: %q
LEVEL: %q
LANGUAGE: %s

LEVEL CALIBRATION RULES (CRITICAL - follow exactly):
- %s
- Number of steps: %s
- Quiz style: %s
- Resources style: %s

CONTENT REQUIREMENTS:
1. Each step must teach ONE distinct concept, going progressively deeper.
2. Steps must be UNIQUE and NOT repeat information from other steps.
3. For %s level, the complexity, vocabulary, and depth MUST be appropriate. Do NOT reuse beginner content for intermediate/advanced.
4. Include real-world applications and concrete examples at the appropriate level.
5. The ENTIRE response (except visual_description and resource URLs) must be in %s.

Format the response as a valid JSON object with this EXACT structure:
{
  "introduction": "A compelling hook that acknowledges the student's current level and what they will master",
  "introduction_visual": "Detailed cinematic English prompt for a cover image representing this topic at %s level",
  "key_concepts": ["concept1", "concept2", "concept3", "concept4"],
  "steps": [
    {
      "title": "Step title",
      "explanation": "Rich explanation using Markdown with **bold**, bullet points, and code blocks where relevant",
      "visual_description": "Detailed English prompt for an educational diagram/illustration for this specific concept",
      "real_world": "A concrete real-world example or application of this concept at %s level",
      "resources": [
        {
          "type": "video",
          "title": "Specific video for this step",
          "description": "Short explanation of why this video helps with THIS step",
          "url": "https://www.youtube.com/results?search_query=[specific+topic+search]",
          "difficulty": "%s"
        },
        {
          "type": "article",
          "title": "Deep dive article",
          "url": "https://www.google.com/search?q=[specific+topic+article+search]",
          "difficulty": "%s"
        }
      ],
      "quiz": {
        "question": "A %s question",
        "options": ["Option A", "Option B", "Option C", "Option D"],
        "answer": "The exact correct option string",
        "hint": "A helpful hint that guides without giving away the answer",
        "explanation": "Brief explanation of WHY the answer is correct"
      }
    }
  ],
  "summary": "Concise recap of all key points covered",
  "final_motivation": "Inspiring, level-appropriate closing message",
  "resources": [
    {
      "type": "video",
      "title": "Resource title",
      "description": "Why this resource is perfect for %s learners of this topic",
      "url": "https://www.youtube.com/results?search_query=[topic+tutorial]",
      "difficulty": "%s"
    },
    {
      "type": "article",
      "title": "Resource title",
      "description": "Brief description",
      "url": "https://www.google.com/search?q=[topic+advanced+guide]",
      "difficulty": "%s"
    }
  ]
}

Return ONLY the JSON object. No markdown fences, no extra text.
CRITICAL URL RULE: Provide REAL, functional, and specific links. If you don't know a specific URL, provide a HIGHLY TARGETED search URL (e.g., https://www.youtube.com/results?search_query=specific+topic+name). NEVER return placeholders like "https://youtube.com/" or bracketed text like "[topic]". Every URL must be a complete, valid string that works in a browser immediately.`,
		topic, level, language,
		ctx.depth, ctx.steps, ctx.quizStyle, ctx.resourcesStyle,
		level, language,
		level, level, level, level,
		ctx.quizStyle,
		level, level, level,
	)
}

// assistantPrompt shapes the chat companion's persona: a casual, encouraging
// study buddy that explains concepts with everyday analogies.
func assistantPrompt(text string) string {
	return fmt.Sprintf(`Act as a cool, friendly study buddy inside a learning app.
User says: %q

Your goal is to explain educational concepts or respond to the user in a very casual, helpful, street-smart way.
- Keep it encouraging and funny.
- If the user asks for an explanation, break it down using real-life analogies (markets, taxis, football).
- Keep it short and very readable.

Respond directly as the buddy. No preamble.`, text)
}
