package config

import (
	"errors"
	"testing"

	"github.com/timmy/memeforge/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("REPLICATE_API_TOKEN", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Gemini.PlanModel != "gemini-2.5-flash" {
		t.Errorf("unexpected plan model: %q", cfg.Gemini.PlanModel)
	}
	if cfg.Replicate.Model != "black-forest-labs/flux-1.1-pro" {
		t.Errorf("unexpected replicate model: %q", cfg.Replicate.Model)
	}
	if cfg.Output.Dir != "output" {
		t.Errorf("unexpected output dir: %q", cfg.Output.Dir)
	}
	if cfg.Pipeline.MaxAttempts != 2 {
		t.Errorf("unexpected max attempts: %d", cfg.Pipeline.MaxAttempts)
	}
	if cfg.Pipeline.Timeout().Seconds() != 60 {
		t.Errorf("unexpected timeout: %s", cfg.Pipeline.Timeout())
	}
}

func TestLoadBindsCredentialEnvVars(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("REPLICATE_API_TOKEN", "rep-token")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.APIKey != "gem-key" {
		t.Errorf("GEMINI_API_KEY not bound: %q", cfg.Gemini.APIKey)
	}
	if cfg.Replicate.APIToken != "rep-token" {
		t.Errorf("REPLICATE_API_TOKEN not bound: %q", cfg.Replicate.APIToken)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate with credentials set: %v", err)
	}
}

func TestValidateReportsAllMissingCredentials(t *testing.T) {
	tests := []struct {
		name        string
		geminiKey   string
		replicate   string
		wantMissing []string
	}{
		{
			name:        "both missing",
			wantMissing: []string{"GEMINI_API_KEY", "REPLICATE_API_TOKEN"},
		},
		{
			name:        "gemini missing",
			replicate:   "tok",
			wantMissing: []string{"GEMINI_API_KEY"},
		},
		{
			name:        "replicate missing",
			geminiKey:   "key",
			wantMissing: []string{"REPLICATE_API_TOKEN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Gemini.APIKey = tt.geminiKey
			cfg.Replicate.APIToken = tt.replicate

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}

			var cfgErr *domain.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %T", err)
			}
			if len(cfgErr.Missing) != len(tt.wantMissing) {
				t.Fatalf("missing = %v, want %v", cfgErr.Missing, tt.wantMissing)
			}
			for i, name := range tt.wantMissing {
				if cfgErr.Missing[i] != name {
					t.Errorf("missing[%d] = %q, want %q", i, cfgErr.Missing[i], name)
				}
			}
		})
	}
}
