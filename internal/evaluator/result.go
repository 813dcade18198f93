package evaluator

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Evaluation is the typed form of an evaluation. Fallback results are
// built from it; results parsed from the model are kept verbatim in Result
// and only decoded into Evaluation on demand.
type Evaluation struct {
	RelevanceScore      int      `json:"relevance_score"`
	GrammarScore        int      `json:"grammar_score"`
	VocabularyScore     int      `json:"vocabulary_score"`
	Mistakes            []string `json:"mistakes"`
	Corrections         string   `json:"corrections"`
	LearningLevel       string   `json:"learning_level"`
	Highlight           string   `json:"highlight"`
	MotivationalComment string   `json:"motivational_comment"`
	Tips                []string `json:"tips"`
}

// Result is the JSON object produced by Evaluate.
type Result struct {
	raw      json.RawMessage
	fallback bool
}

// MarshalJSON returns the object as received, or the encoded fallback.
func (r Result) MarshalJSON() ([]byte, error) {
	if len(r.raw) == 0 {
		return []byte("{}"), nil
	}
	return r.raw, nil
}

// Raw returns the JSON bytes of the result.
func (r Result) Raw() json.RawMessage {
	return r.raw
}

// Fallback reports whether the result stands in for a failed evaluation.
func (r Result) Fallback() bool {
	return r.fallback
}

// Evaluation decodes the result into its typed form. Fields the model
// left out keep their zero values.
func (r Result) Evaluation() (Evaluation, error) {
	var e Evaluation
	if err := json.Unmarshal(r.raw, &e); err != nil {
		return Evaluation{}, fmt.Errorf("decode evaluation: %w", err)
	}
	return e, nil
}

// fallbackResult builds a result with zero scores and the given tips.
func fallbackResult(tips ...string) Result {
	e := Evaluation{
		Mistakes:            []string{},
		Corrections:         "N/A",
		LearningLevel:       "Unknown",
		Highlight:           "N/A",
		MotivationalComment: "N/A",
		Tips:                tips,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Evaluation only holds strings and ints.
	_ = enc.Encode(e)

	return Result{raw: bytes.TrimSpace(buf.Bytes()), fallback: true}
}

// parsedResult accepts text as a result when it is a JSON object.
func parsedResult(text string) (Result, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return Result{}, err
	}
	if obj == nil {
		return Result{}, fmt.Errorf("expected a JSON object, got null")
	}
	return Result{raw: json.RawMessage(text)}, nil
}
