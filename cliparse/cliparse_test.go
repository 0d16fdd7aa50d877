// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("SESSION_SECRET", "test-session")
	t.Setenv("ADMIN_KEY", "test-admin")
	t.Setenv("FINGERPRINT_SALT", "test-salt")
}

func TestParseFlags_EnvVars(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_TIMEOUT", "2s")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected default database type sqlite, got %q", cfg.DatabaseType)
	}
	if cfg.StoreTimeout != 2*time.Second {
		t.Errorf("expected store timeout 2s, got %v", cfg.StoreTimeout)
	}
	if cfg.GateMaxWait != time.Hour {
		t.Errorf("expected default gate max wait 1h, got %v", cfg.GateMaxWait)
	}
	if cfg.VoteBurst != 10 {
		t.Errorf("expected default burst 10, got %d", cfg.VoteBurst)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:other.db", "-admin-key", "k1", "-t", "postgres"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.AdminKey != "k1" {
		t.Errorf("expected admin key from CLI, got %q", cfg.AdminKey)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected postgres, got %q", cfg.DatabaseType)
	}
}

func TestParseFlags_MissingSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("ADMIN_KEY", "")
	t.Setenv("FINGERPRINT_SALT", "")

	if _, err := ParseFlags([]string{}); err == nil {
		t.Error("expected error when SESSION_SECRET is missing")
	}
}

func TestParseFlags_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad timeout", "STORE_TIMEOUT", "soon"},
		{"negative wait", "GATE_MAX_WAIT", "-1m"},
		{"bad rate", "VOTE_RATE", "zero"},
		{"bad database type", "DATABASE_TYPE", "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)
			if _, err := ParseFlags([]string{}); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestParseFlags_EnvFile(t *testing.T) {
	setRequired(t)
	t.Setenv("NATS_URL", "")
	os.Unsetenv("NATS_URL")

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("NATS_URL=nats://127.0.0.1:4222\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseFlags([]string{"-env-file", path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NATSURL != "nats://127.0.0.1:4222" {
		t.Errorf("expected NATS URL from env file, got %q", cfg.NATSURL)
	}
}

func TestParseFlags_WSOrigins(t *testing.T) {
	setRequired(t)
	t.Setenv("WS_ALLOWED_ORIGINS", "example.com, *.example.org ,")

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.WSOrigins) != 2 || cfg.WSOrigins[0] != "example.com" || cfg.WSOrigins[1] != "*.example.org" {
		t.Errorf("unexpected origins %q", cfg.WSOrigins)
	}
}
