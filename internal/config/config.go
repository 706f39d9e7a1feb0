// Package config loads the static analytics configuration: prior range
// tables, action weight rules, bet sizing candidates, equity budgets and
// confidence thresholds. Loaded once at startup and immutable afterwards.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/gmanldn/pokertool/internal/decision"
	"github.com/gmanldn/pokertool/internal/equity"
	"github.com/gmanldn/pokertool/internal/ranges"
	"github.com/gmanldn/pokertool/internal/tracker"
	"github.com/gmanldn/pokertool/poker"
)

// Config is the complete analytics configuration.
type Config struct {
	Engine   *EngineSettings   `hcl:"engine,block"`
	Decision *DecisionSettings `hcl:"decision,block"`
	Ranges   *RangeSettings    `hcl:"ranges,block"`
	Feed     *FeedSettings     `hcl:"feed,block"`
}

// EngineSettings tunes the equity engine.
type EngineSettings struct {
	DeadlineMs     int   `hcl:"deadline_ms,optional"`
	MaxEnumeration int   `hcl:"max_enumeration,optional"`
	Workers        int   `hcl:"workers,optional"`
	SampleChunk    int   `hcl:"sample_chunk,optional"`
	MaxSamples     int   `hcl:"max_samples,optional"`
	Seed           int64 `hcl:"seed,optional"`
}

// DecisionSettings tunes the decision engine.
type DecisionSettings struct {
	RaiseSizings             []float64 `hcl:"raise_sizings,optional"`
	StdErrThreshold          float64   `hcl:"stderr_threshold,optional"`
	InputConfidenceThreshold float64   `hcl:"input_confidence_threshold,optional"`
	FoldEquityScale          float64   `hcl:"fold_equity_scale,optional"`
	MaxFoldProbability       float64   `hcl:"max_fold_probability,optional"`
}

// RangeSettings carries the prior range tables and action weight rules.
type RangeSettings struct {
	BaselineWeight float64       `hcl:"baseline_weight,optional"`
	Priors         []PriorBlock  `hcl:"prior,block"`
	Weights        []WeightBlock `hcl:"weight,block"`
}

// PriorBlock names the default range for one position, in standard notation.
type PriorBlock struct {
	Position string `hcl:"position,label"`
	Range    string `hcl:"range"`
}

// WeightBlock sets the per-category multipliers applied when one action kind
// is observed.
type WeightBlock struct {
	Action  string  `hcl:"action,label"`
	Premium float64 `hcl:"premium,optional"`
	Strong  float64 `hcl:"strong,optional"`
	Medium  float64 `hcl:"medium,optional"`
	Weak    float64 `hcl:"weak,optional"`
	Trash   float64 `hcl:"trash,optional"`
}

// FeedSettings configures the GUI push feed.
type FeedSettings struct {
	Listen string `hcl:"listen,optional"`
}

// Default returns the shipped configuration.
func Default() *Config {
	return &Config{
		Engine: &EngineSettings{
			DeadlineMs:     80,
			MaxEnumeration: 2_000_000,
			Workers:        8,
			SampleChunk:    256,
			MaxSamples:     1 << 20,
		},
		Decision: &DecisionSettings{
			RaiseSizings:             []float64{0.5, 1.0},
			StdErrThreshold:          0.05,
			InputConfidenceThreshold: 0.8,
			FoldEquityScale:          1.0,
			MaxFoldProbability:       0.9,
		},
		Ranges: &RangeSettings{
			BaselineWeight: 0.15,
			Priors: []PriorBlock{
				{Position: "early", Range: "77+,AJs+,KQs,AQo+"},
				{Position: "middle", Range: "55+,A9s+,KTs+,QTs+,JTs,ATo+,KJo+"},
				{Position: "late", Range: "22+,A2s+,K8s+,Q9s+,J9s+,T8s+,98s,A8o+,KTo+,QTo+,JTo"},
				{Position: "button", Range: "22+,A2s+,K2s+,Q6s+,J7s+,T7s+,96s+,86s+,75s+,65s,A2o+,K8o+,Q9o+,J9o+,T9o"},
				{Position: "small_blind", Range: "22+,A2s+,K5s+,Q8s+,J8s+,T8s+,97s+,87s,A5o+,K9o+,QTo+,JTo"},
				{Position: "big_blind", Range: "22+,A2s+,K2s+,Q2s+,J4s+,T6s+,96s+,85s+,75s+,64s+,54s,A2o+,K5o+,Q8o+,J8o+,T8o+,98o"},
			},
		},
		Feed: &FeedSettings{Listen: "localhost:8417"},
	}
}

// Load reads configuration from an HCL file, falling back to the defaults
// when the file does not exist.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Engine == nil {
		c.Engine = def.Engine
	}
	if c.Decision == nil {
		c.Decision = def.Decision
	}
	if c.Ranges == nil {
		c.Ranges = def.Ranges
	}
	if c.Feed == nil {
		c.Feed = def.Feed
	}
	if c.Engine.DeadlineMs == 0 {
		c.Engine.DeadlineMs = def.Engine.DeadlineMs
	}
	if c.Ranges.BaselineWeight == 0 {
		c.Ranges.BaselineWeight = def.Ranges.BaselineWeight
	}
	if len(c.Ranges.Priors) == 0 {
		c.Ranges.Priors = def.Ranges.Priors
	}
	if c.Feed.Listen == "" {
		c.Feed.Listen = def.Feed.Listen
	}
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	if c.Engine.DeadlineMs < 0 {
		return fmt.Errorf("deadline_ms must not be negative")
	}
	for _, sizing := range c.Decision.RaiseSizings {
		if sizing <= 0 {
			return fmt.Errorf("raise sizing %.2f must be positive", sizing)
		}
	}
	for _, p := range c.Ranges.Priors {
		if !validPosition(p.Position) {
			return fmt.Errorf("prior %q: unknown position", p.Position)
		}
		if _, err := ranges.ParseNotation(p.Range); err != nil {
			return fmt.Errorf("prior %q: %w", p.Position, err)
		}
	}
	for _, w := range c.Ranges.Weights {
		if _, ok := tracker.ParseActionKind(w.Action); !ok {
			return fmt.Errorf("weight %q: unknown action", w.Action)
		}
	}
	return nil
}

func validPosition(s string) bool {
	switch tracker.Position(s) {
	case tracker.PositionButton, tracker.PositionSmallBlind, tracker.PositionBigBlind,
		tracker.PositionEarly, tracker.PositionMiddle, tracker.PositionLate:
		return true
	}
	return false
}

// Deadline returns the equity deadline as a duration.
func (c *Config) Deadline() time.Duration {
	return time.Duration(c.Engine.DeadlineMs) * time.Millisecond
}

// EquityConfig materializes the equity engine configuration.
func (c *Config) EquityConfig() equity.Config {
	return equity.Config{
		MaxEnumeration: c.Engine.MaxEnumeration,
		Workers:        c.Engine.Workers,
		SampleChunk:    c.Engine.SampleChunk,
		MaxSamples:     c.Engine.MaxSamples,
	}
}

// DecisionConfig materializes the decision engine configuration.
func (c *Config) DecisionConfig() decision.Config {
	return decision.Config{
		RaiseSizings:             c.Decision.RaiseSizings,
		StdErrorThreshold:        c.Decision.StdErrThreshold,
		InputConfidenceThreshold: c.Decision.InputConfidenceThreshold,
		FoldEquityScale:          c.Decision.FoldEquityScale,
		MaxFoldProbability:       c.Decision.MaxFoldProbability,
	}
}

// RangesConfig parses the prior notations and weight rules into the range
// estimator's model.
func (c *Config) RangesConfig() (ranges.Config, error) {
	cfg := ranges.Config{
		BaselineWeight: c.Ranges.BaselineWeight,
		Priors:         make(map[tracker.Position]map[poker.Hand]float64, len(c.Ranges.Priors)),
	}

	for _, p := range c.Ranges.Priors {
		combos, err := ranges.ParseNotation(p.Range)
		if err != nil {
			return ranges.Config{}, fmt.Errorf("prior %q: %w", p.Position, err)
		}
		cfg.Priors[tracker.Position(p.Position)] = combos
	}

	if len(c.Ranges.Weights) > 0 {
		cfg.Weights = make(map[tracker.ActionKind]ranges.WeightRule, len(c.Ranges.Weights))
		for _, w := range c.Ranges.Weights {
			kind, ok := tracker.ParseActionKind(w.Action)
			if !ok {
				return ranges.Config{}, fmt.Errorf("weight %q: unknown action", w.Action)
			}
			rule := ranges.WeightRule{}
			setIfPositive(rule, poker.CategoryPremium, w.Premium)
			setIfPositive(rule, poker.CategoryStrong, w.Strong)
			setIfPositive(rule, poker.CategoryMedium, w.Medium)
			setIfPositive(rule, poker.CategoryWeak, w.Weak)
			setIfPositive(rule, poker.CategoryTrash, w.Trash)
			cfg.Weights[kind] = rule
		}
	}
	return cfg, nil
}

func setIfPositive(rule ranges.WeightRule, cat poker.HoleCardCategory, v float64) {
	if v > 0 {
		rule[cat] = v
	}
}
