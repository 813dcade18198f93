package evaluator

import "github.com/abhisek/picwrite/internal/llm"

var score = map[string]any{
	"type":    "integer",
	"minimum": 0,
	"maximum": 100,
}

var stringList = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "string"},
}

// EvaluationSchema is enforced on model output in strict mode.
var EvaluationSchema = &llm.Schema{
	Name:        "writing-evaluation",
	Description: "CEFR-based evaluation of a paragraph written about an image",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"relevance_score":  score,
			"grammar_score":    score,
			"vocabulary_score": score,
			"mistakes":         stringList,
			"corrections":      map[string]any{"type": "string"},
			"learning_level": map[string]any{
				"type": "string",
				"enum": []any{"A1", "A2", "B1", "B2", "C1", "C2"},
			},
			"tips":                 stringList,
			"highlight":            map[string]any{"type": "string"},
			"motivational_comment": map[string]any{"type": "string"},
		},
		"required": []any{
			"relevance_score", "grammar_score", "vocabulary_score",
			"mistakes", "corrections", "learning_level",
			"tips", "highlight", "motivational_comment",
		},
	},
}
