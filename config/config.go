// Package config resolves the harness's startup configuration: the
// Anthropic API key, model, and budget defaults. Absence of the API key
// is a fatal configuration error — there is no interactive prompting and
// no multi-provider menu.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/lowkaihon/beads-harness/harnesserr"
)

// apiKeyEnvVar is the single named environment variable the harness reads
// at startup.
const apiKeyEnvVar = "ANTHROPIC_API_KEY"

// Config holds the resolved runtime configuration.
type Config struct {
	APIKey        string
	Model         string
	MaxTokens     int64
	ContextWindow int
	ProjectRoot   string
	BeadsBin      string
}

// Load reads a .env file in projectRoot (if present) then the
// ANTHROPIC_API_KEY environment variable. A missing key is returned as
// *harnesserr.ConfigurationError, which callers should treat as fatal.
func Load(projectRoot string) (*Config, error) {
	loadEnvFile(filepath.Join(projectRoot, ".env"))

	apiKey := strings.TrimSpace(os.Getenv(apiKeyEnvVar))
	if apiKey == "" {
		return nil, &harnesserr.ConfigurationError{
			Msg: apiKeyEnvVar + " is not set",
		}
	}

	beadsBin := os.Getenv("BEADS_BIN")
	if beadsBin == "" {
		beadsBin = "bd"
	}

	return &Config{
		APIKey:        apiKey,
		Model:         defaultModel,
		MaxTokens:     defaultMaxTokens,
		ContextWindow: defaultContextWindow,
		ProjectRoot:   projectRoot,
		BeadsBin:      beadsBin,
	}, nil
}

const (
	defaultModel         = "claude-sonnet-4-5-20250929"
	defaultMaxTokens     = 8192
	defaultContextWindow = 200000
)

// ModelRate is the per-million-token cost for a model, used to derive
// LoopOutcome.estimated_cost.
type ModelRate struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// modelRates is a small static table of known model rates. Unrecognized
// models fall back to a zero rate rather than failing cost estimation;
// the fallback is not logged.
var modelRates = map[string]ModelRate{
	"claude-sonnet-4-5-20250929": {InputPerMillion: 3.0, OutputPerMillion: 15.0},
	"claude-opus-4-1-20250805":   {InputPerMillion: 15.0, OutputPerMillion: 75.0},
	"claude-haiku-4-5-20251001":  {InputPerMillion: 0.8, OutputPerMillion: 4.0},
}

// RateFor returns the per-million-token rates for model, and whether the
// model was recognized.
func RateFor(model string) (ModelRate, bool) {
	rate, ok := modelRates[model]
	return rate, ok
}

// loadEnvFile reads a .env file and sets environment variables. Lines are
// KEY=VALUE; comments (#) and blank lines are skipped; existing env vars
// are never overridden.
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			value = value[1 : len(value)-1]
		}
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
