package domain

import (
	"strings"
	"testing"
)

func TestGenerateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		wantErr bool
	}{
		{
			name:    "generate test key",
			env:     EnvTest,
			wantErr: false,
		},
		{
			name:    "generate live key",
			env:     EnvLive,
			wantErr: false,
		},
		{
			name:    "invalid environment",
			env:     "staging",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plainKey, hash, prefix, err := GenerateAPIKey(tt.env)

			if tt.wantErr {
				if err == nil {
					t.Errorf("GenerateAPIKey() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateAPIKey() error = %v", err)
			}

			wantPrefix := "atd_" + tt.env + "_"
			if !strings.HasPrefix(plainKey, wantPrefix) {
				t.Errorf("plainKey = %q, want prefix %q", plainKey, wantPrefix)
			}
			if !strings.HasPrefix(plainKey, prefix) {
				t.Errorf("display prefix %q is not a prefix of %q", prefix, plainKey)
			}
			if hash != HashAPIKey(plainKey) {
				t.Error("hash does not match HashAPIKey(plainKey)")
			}
			if !IsValidKeyFormat(plainKey) {
				t.Errorf("IsValidKeyFormat(%q) = false, want true", plainKey)
			}
		})
	}
}

func TestGenerateAPIKey_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key, _, _, err := GenerateAPIKey(EnvTest)
		if err != nil {
			t.Fatalf("GenerateAPIKey() error = %v", err)
		}
		if seen[key] {
			t.Fatalf("duplicate key generated: %s", key)
		}
		seen[key] = true
	}
}

func TestHashAPIKey_Deterministic(t *testing.T) {
	key := "atd_test_abcdefghijklmnopqrstuvwxyz012345"

	h1 := HashAPIKey(key)
	h2 := HashAPIKey(key)

	if h1 != h2 {
		t.Error("HashAPIKey is not deterministic")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
}

func TestIsValidKeyFormat(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"too few segments", "atd_test", false},
		{"wrong prefix", "sk_test_abcdefghijklmnopqrstuvwxyz012345", false},
		{"wrong environment", "atd_prod_abcdefghijklmnopqrstuvwxyz012345", false},
		{"random part too short", "atd_live_abc123", false},
		{"non base62 characters", "atd_live_abcdefghijklmnopqrstuvwxyz01234!", false},
		{"valid live key", "atd_live_abcdefghijklmnopqrstuvwxyz012345", true},
		{"valid test key", "atd_test_ABCDEFGHIJKLMNOPQRSTUVWXYZ012345", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidKeyFormat(tt.key); got != tt.want {
				t.Errorf("IsValidKeyFormat(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
