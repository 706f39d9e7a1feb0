package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmanldn/pokertool/internal/tracker"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "advisord.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 80*time.Millisecond, cfg.Deadline())
	assert.Len(t, cfg.Ranges.Priors, 6, "every position gets a prior")

	rc, err := cfg.RangesConfig()
	require.NoError(t, err)
	assert.Len(t, rc.Priors, 6)
	assert.Greater(t, rc.BaselineWeight, 0.0)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default().Engine.DeadlineMs, cfg.Engine.DeadlineMs)
}

func TestLoadParsesHCL(t *testing.T) {
	path := writeConfig(t, `
engine {
  deadline_ms     = 120
  max_enumeration = 500000
  workers         = 2
}

decision {
  raise_sizings    = [0.33, 0.75]
  stderr_threshold = 0.03
}

ranges {
  baseline_weight = 0.2

  prior "button" {
    range = "22+,A2s+,KTo+"
  }

  weight "raise" {
    premium = 4.0
    trash   = 0.1
  }
}

feed {
  listen = "localhost:9000"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 120*time.Millisecond, cfg.Deadline())
	assert.Equal(t, 500000, cfg.EquityConfig().MaxEnumeration)
	assert.Equal(t, 2, cfg.EquityConfig().Workers)
	assert.Equal(t, []float64{0.33, 0.75}, cfg.DecisionConfig().RaiseSizings)
	assert.Equal(t, 0.03, cfg.DecisionConfig().StdErrorThreshold)
	assert.Equal(t, "localhost:9000", cfg.Feed.Listen)

	rc, err := cfg.RangesConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.2, rc.BaselineWeight)
	require.Contains(t, rc.Priors, tracker.PositionButton)
	assert.NotEmpty(t, rc.Priors[tracker.PositionButton])

	rule, ok := rc.Weights[tracker.Raise]
	require.True(t, ok)
	assert.Equal(t, 4.0, rule["premium"])
	assert.Equal(t, 0.1, rule["trash"])
	_, hasMedium := rule["medium"]
	assert.False(t, hasMedium, "unset categories stay at the implicit 1.0")
}

func TestLoadRejectsBadNotation(t *testing.T) {
	path := writeConfig(t, `
ranges {
  prior "button" {
    range = "ZZ+"
  }
}
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownPosition(t *testing.T) {
	path := writeConfig(t, `
ranges {
  prior "utg+2" {
    range = "AA"
  }
}
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsNegativeSizing(t *testing.T) {
	path := writeConfig(t, `
decision {
  raise_sizings = [-0.5]
}
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedHCL(t *testing.T) {
	path := writeConfig(t, `engine { deadline_ms = `)
	_, err := Load(path)
	assert.Error(t, err)
}
