package equity

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/gmanldn/pokertool/internal/ranges"
	"github.com/gmanldn/pokertool/poker"
)

// Config tunes the engine. Zero values take the defaults below.
type Config struct {
	// MaxEnumeration is the evaluation budget below which exact enumeration
	// is attempted instead of sampling.
	MaxEnumeration int

	// Workers is the sampling fan-out width.
	Workers int

	// SampleChunk is how many samples each worker runs between deadline and
	// cancellation checks.
	SampleChunk int

	// MaxSamples caps total samples across workers. With a cap set and a
	// generous deadline, results are reproducible for a fixed seed.
	MaxSamples int
}

const (
	defaultMaxEnumeration = 2_000_000
	defaultWorkers        = 8
	defaultSampleChunk    = 256
	defaultMaxSamples     = 1 << 22
)

func (c Config) withDefaults() Config {
	if c.MaxEnumeration <= 0 {
		c.MaxEnumeration = defaultMaxEnumeration
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.SampleChunk <= 0 {
		c.SampleChunk = defaultSampleChunk
	}
	if c.MaxSamples <= 0 {
		c.MaxSamples = defaultMaxSamples
	}
	return c
}

// Request is one equity computation.
type Request struct {
	Hero      poker.Hand   // hero's two hole cards
	Board     []poker.Card // 0, 3, 4 or 5 revealed cards
	Opponents []*ranges.Distribution

	// Deadline is the wall-clock budget. The engine never blocks past it;
	// zero means no deadline.
	Deadline time.Duration

	// Seed drives sampling mode. Fixed seed plus fixed sample budget gives
	// reproducible results for test replay.
	Seed int64

	Confidence  float64
	HandVersion uint64
}

// Engine computes equity snapshots. Safe for sequential reuse; each Compute
// call owns its own accumulators.
type Engine struct {
	cfg    Config
	clock  quartz.Clock
	logger *log.Logger
}

// New creates an engine. The injected clock makes deadlines testable.
func New(cfg Config, clock quartz.Clock, logger *log.Logger) *Engine {
	return &Engine{
		cfg:    cfg.withDefaults(),
		clock:  clock,
		logger: logger.WithPrefix("equity"),
	}
}

// Compute returns hero's equity against the opponent ranges. It is an
// anytime computation: cancellation returns ctx.Err, while a deadline expiry
// returns the best estimate accumulated so far, marked approximate.
func (e *Engine) Compute(ctx context.Context, req Request) (*Snapshot, error) {
	if req.Hero.CountCards() != 2 {
		return nil, fmt.Errorf("hero hand must have exactly 2 cards, got %d", req.Hero.CountCards())
	}
	if len(req.Board) > 5 {
		return nil, fmt.Errorf("board cannot have more than 5 cards, got %d", len(req.Board))
	}

	start := e.clock.Now()
	board := poker.NewHand(req.Board...)
	finish := func(snap Snapshot) *Snapshot {
		snap.Confidence = req.Confidence
		snap.HandVersion = req.HandVersion
		snap.ComputedAt = start
		snap.Elapsed = e.clock.Now().Sub(start)
		for _, dist := range req.Opponents {
			snap.GiveUpMass += dist.CategoryMass(board, poker.CategoryWeak, poker.CategoryTrash) / float64(len(req.Opponents))
			if dist.Degenerate() {
				snap.DegenerateRange = true
			}
		}
		return &snap
	}

	// No live opponents: equity is trivially 100%.
	if len(req.Opponents) == 0 {
		return finish(Snapshot{Win: 1, Exact: true, Trials: 1}), nil
	}

	dead := req.Hero | board
	opponents := make([][]ranges.ComboWeight, len(req.Opponents))
	for i, dist := range req.Opponents {
		entries := legalEntries(dist, dead)
		if len(entries) == 0 {
			return nil, fmt.Errorf("opponent %d has no combos consistent with visible cards", i)
		}
		opponents[i] = entries
	}

	var deadlineAt time.Time
	if req.Deadline > 0 {
		deadlineAt = start.Add(req.Deadline)
	}

	if e.enumerationCost(opponents, dead, len(req.Board)) <= e.cfg.MaxEnumeration {
		snap, err := e.computeExact(ctx, req.Hero, req.Board, opponents, dead, deadlineAt)
		if err != nil {
			return nil, err
		}
		return finish(snap), nil
	}

	snap, err := e.computeSampled(ctx, req, opponents, dead, deadlineAt)
	if err != nil {
		return nil, err
	}
	return finish(snap), nil
}

// legalEntries filters a distribution down to combos that do not conflict
// with the visible cards, preserving the stable order.
func legalEntries(dist *ranges.Distribution, dead poker.Hand) []ranges.ComboWeight {
	all := dist.Entries()
	out := make([]ranges.ComboWeight, 0, len(all))
	for _, cw := range all {
		if !cw.Combo.Overlaps(dead) {
			out = append(out, cw)
		}
	}
	return out
}

// enumerationCost estimates the number of hand evaluations exact mode needs.
func (e *Engine) enumerationCost(opponents [][]ranges.ComboWeight, dead poker.Hand, boardLen int) int {
	assignments := 1
	for _, entries := range opponents {
		if assignments > e.cfg.MaxEnumeration/max(len(entries), 1) {
			return math.MaxInt // overflow guard
		}
		assignments *= len(entries)
	}

	unseen := 52 - dead.CountCards() - 2*len(opponents)
	runouts := binomial(unseen, 5-boardLen)
	evalsPerRunout := 1 + len(opponents)

	cost := assignments
	for _, factor := range []int{runouts, evalsPerRunout} {
		if cost > e.cfg.MaxEnumeration/max(factor, 1) {
			return math.MaxInt
		}
		cost *= factor
	}
	return cost
}

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	result := 1
	for i := 0; i < k; i++ {
		result = result * (n - i) / (i + 1)
	}
	return result
}
