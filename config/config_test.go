package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lowkaihon/beads-harness/harnesserr"
)

func TestLoadMissingAPIKeyIsFatal(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("BEADS_BIN", "")

	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("expected an error when ANTHROPIC_API_KEY is unset")
	}
	var cfgErr *harnesserr.ConfigurationError
	if !asConfigurationError(err, &cfgErr) {
		t.Fatalf("expected a *harnesserr.ConfigurationError, got %T: %v", err, err)
	}
}

func TestLoadReadsDotEnvWithoutOverridingExistingVars(t *testing.T) {
	dir := t.TempDir()
	writeEnvFile(t, dir, "ANTHROPIC_API_KEY=from-dotenv\nBEADS_BIN=\"custom-bd\"\n")

	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("BEADS_BIN", "already-set")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "from-dotenv" {
		t.Errorf("APIKey = %q, want value loaded from .env", cfg.APIKey)
	}
	if cfg.BeadsBin != "already-set" {
		t.Errorf("BeadsBin = %q, want the pre-existing env var to win over .env", cfg.BeadsBin)
	}
}

func TestLoadDefaultsBeadsBinWhenUnset(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "key")
	t.Setenv("BEADS_BIN", "")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BeadsBin != "bd" {
		t.Errorf("BeadsBin = %q, want default %q", cfg.BeadsBin, "bd")
	}
}

func writeEnvFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0644); err != nil {
		t.Fatalf("writing .env fixture: %v", err)
	}
}

func asConfigurationError(err error, target **harnesserr.ConfigurationError) bool {
	ce, ok := err.(*harnesserr.ConfigurationError)
	if ok {
		*target = ce
	}
	return ok
}
