package oracle

import (
	"fmt"
	"testing"

	domainoracle "promptforge/internal/domain/services/oracle"
)

func TestParseModel(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantProvider string
		wantModel    string
		wantErr      bool
	}{
		{
			name:         "claude prefix infers anthropic",
			input:        "claude-haiku-4-5",
			wantProvider: "anthropic",
			wantModel:    "claude-haiku-4-5",
		},
		{
			name:         "lorem prefix infers lorem",
			input:        "lorem-fast",
			wantProvider: "lorem",
			wantModel:    "lorem-fast",
		},
		{
			name:         "explicit provider prefix",
			input:        "anthropic/claude-haiku-4-5",
			wantProvider: "anthropic",
			wantModel:    "claude-haiku-4-5",
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "unknown prefix",
			input:   "gpt-4",
			wantErr: true,
		},
		{
			name:    "malformed explicit prefix",
			input:   "/model",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ParseModel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseModel: %v", err)
			}
			if info.Provider != tt.wantProvider || info.Model != tt.wantModel {
				t.Errorf("ParseModel(%q) = (%s, %s), want (%s, %s)",
					tt.input, info.Provider, info.Model, tt.wantProvider, tt.wantModel)
			}
		})
	}
}

func TestRegistry_CachesProviders(t *testing.T) {
	created := 0
	registry := NewRegistry(func(provider string) (domainoracle.Oracle, error) {
		if provider != "lorem" {
			return nil, fmt.Errorf("unknown oracle provider: %s", provider)
		}
		created++
		return &flakyOracle{}, nil
	})

	first, err := registry.ForModel("lorem-fast")
	if err != nil {
		t.Fatalf("ForModel: %v", err)
	}
	second, err := registry.ForModel("lorem-standard")
	if err != nil {
		t.Fatalf("ForModel: %v", err)
	}

	if first != second {
		t.Error("same provider not cached across models")
	}
	if created != 1 {
		t.Errorf("factory invoked %d times, want 1", created)
	}

	if _, err := registry.GetProvider("anthropic"); err == nil {
		t.Error("factory error not propagated")
	}
	if _, err := registry.GetProvider(""); err == nil {
		t.Error("empty provider accepted")
	}
}
