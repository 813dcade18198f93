package llm

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey bool
		wantErr bool
	}{
		{"deepseek without key", func(c *Config) {}, true, true},
		{"deepseek with key", func(c *Config) { c.DeepSeek.APIKey = "k" }, false, false},
		{"openai without key", func(c *Config) { c.Provider = "openai" }, true, true},
		{"anthropic with key", func(c *Config) { c.Provider = "anthropic"; c.Anthropic.APIKey = "k" }, false, false},
		{"gemini without key", func(c *Config) { c.Provider = "gemini" }, true, true},
		{"mock", func(c *Config) { c.Provider = "mock" }, false, false},
		{"unknown", func(c *Config) { c.Provider = "nope" }, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantKey && !errors.Is(err, ErrMissingAPIKey) {
				t.Fatalf("expected ErrMissingAPIKey, got %v", err)
			}
		})
	}
}
