package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaSet compiles each Schema once, keyed by name.
type schemaSet struct {
	mu     sync.Mutex
	byName map[string]*jsonschema.Schema
}

var compiledSchemas = &schemaSet{byName: make(map[string]*jsonschema.Schema)}

func (s *schemaSet) get(schema *Schema) (*jsonschema.Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if compiled, ok := s.byName[schema.Name]; ok {
		return compiled, nil
	}

	raw, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %q: %w", schema.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode schema %q: %w", schema.Name, err)
	}

	loc := "mem://picwrite/" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(loc, doc); err != nil {
		return nil, err
	}
	compiled, err := c.Compile(loc)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", schema.Name, err)
	}

	s.byName[schema.Name] = compiled
	return compiled, nil
}

// validateResponse checks raw against schema and reports problems as
// *ErrInvalidResponse. A nil schema accepts anything.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}

	invalid := func(format string, err error) error {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf(format, err)}
	}

	compiled, err := compiledSchemas.get(schema)
	if err != nil {
		return invalid("%w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return invalid("invalid JSON: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return invalid("does not match schema: %w", err)
	}
	return nil
}

// structuredContent turns the text a backend returned into Response
// content. Without a schema the text passes through. With one, any code
// fence is stripped and the remainder validated. A reply cut short by the
// token limit that fails validation is reported as ErrMaxTokensExceeded.
func structuredContent(req Request, text, stopReason string) (json.RawMessage, error) {
	if req.Schema == nil {
		return json.RawMessage(text), nil
	}

	content := json.RawMessage(StripCodeFence(text))
	if err := validateResponse(req.Schema, content); err != nil {
		if stopReason == "max_tokens" {
			return nil, &ErrMaxTokensExceeded{Content: content}
		}
		return nil, err
	}
	return content, nil
}
