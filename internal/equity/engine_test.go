package equity

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmanldn/pokertool/internal/ranges"
	"github.com/gmanldn/pokertool/poker"
)

func testEngine(cfg Config) *Engine {
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	return New(cfg, quartz.NewReal(), logger)
}

func hand(s string) poker.Hand {
	return poker.NewHand(poker.MustParseCards(s)...)
}

func singleCombo(s string, dead poker.Hand) *ranges.Distribution {
	return ranges.NewWeighted(map[poker.Hand]float64{hand(s): 1.0}, dead)
}

func TestComputeValidatesRequest(t *testing.T) {
	e := testEngine(Config{})

	_, err := e.Compute(context.Background(), Request{Hero: hand("As")})
	assert.Error(t, err, "one hero card")

	_, err = e.Compute(context.Background(), Request{
		Hero:  hand("AsKs"),
		Board: poker.MustParseCards("2c3c4c5c6c7c"),
	})
	assert.Error(t, err, "six board cards")
}

func TestNoOpponentsIsCertainWin(t *testing.T) {
	e := testEngine(Config{})
	snap, err := e.Compute(context.Background(), Request{Hero: hand("AsKs"), Confidence: 0.9})
	require.NoError(t, err)

	assert.Equal(t, 1.0, snap.Win)
	assert.True(t, snap.Exact)
	assert.Equal(t, 1.0, snap.Equity())
	assert.Equal(t, 0.9, snap.Confidence)
}

func TestExactRiverShowdown(t *testing.T) {
	e := testEngine(Config{})
	board := poker.MustParseCards("AhKh2c2d7s")
	dead := hand("AsKs") | poker.NewHand(board...)

	// Hero holds top two pair, the lone opponent combo holds threes.
	snap, err := e.Compute(context.Background(), Request{
		Hero:      hand("AsKs"),
		Board:     board,
		Opponents: []*ranges.Distribution{singleCombo("3c3d", dead)},
	})
	require.NoError(t, err)

	assert.True(t, snap.Exact)
	assert.Equal(t, 1.0, snap.Win)
	assert.Zero(t, snap.StdError)
}

func TestExactBoardPlaysIsChop(t *testing.T) {
	e := testEngine(Config{})
	board := poker.MustParseCards("AhKhQhJhTh")
	dead := hand("2c3d") | poker.NewHand(board...)

	snap, err := e.Compute(context.Background(), Request{
		Hero:      hand("2c3d"),
		Board:     board,
		Opponents: []*ranges.Distribution{singleCombo("4c5d", dead)},
	})
	require.NoError(t, err)

	assert.True(t, snap.Exact)
	assert.Equal(t, 1.0, snap.Tie)
	assert.InDelta(t, 0.5, snap.Equity(), 1e-9)
}

func TestExactTurnEnumeration(t *testing.T) {
	e := testEngine(Config{})
	board := poker.MustParseCards("AhKh2c7s")
	dead := hand("AsAd") | poker.NewHand(board...)

	snap, err := e.Compute(context.Background(), Request{
		Hero:      hand("AsAd"),
		Board:     board,
		Opponents: []*ranges.Distribution{singleCombo("KsKd", dead)},
	})
	require.NoError(t, err)

	// Hero has top set; only a river king rescues the opponent (2 outs
	// land a losing boat... the set of kings stays behind the set of aces,
	// so hero should be far ahead).
	assert.True(t, snap.Exact)
	assert.Greater(t, snap.Win, 0.9)
	assert.Equal(t, 44, snap.Trials, "one evaluation per river card")
}

func TestSampledPreflopAcesVsRandom(t *testing.T) {
	e := testEngine(Config{MaxSamples: 100_000, Workers: 4})

	snap, err := e.Compute(context.Background(), Request{
		Hero:      hand("AsAh"),
		Opponents: []*ranges.Distribution{ranges.NewUniform(hand("AsAh"))},
		Seed:      42,
	})
	require.NoError(t, err)

	assert.False(t, snap.Exact)
	assert.InDelta(t, 0.85, snap.Equity(), 0.02, "aces against a random hand")
	assert.Greater(t, snap.Trials, 90_000)
	assert.Less(t, snap.StdError, 0.01)
}

func TestSampledReproducibleForFixedSeed(t *testing.T) {
	cfg := Config{MaxSamples: 20_000, Workers: 4}
	req := Request{
		Hero:      hand("JsTs"),
		Board:     poker.MustParseCards("9s8s2c"),
		Opponents: []*ranges.Distribution{ranges.NewUniform(hand("JsTs9s8s2c"))},
		Seed:      7,
	}

	a, err := testEngine(cfg).Compute(context.Background(), req)
	require.NoError(t, err)
	b, err := testEngine(cfg).Compute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, a.Win, b.Win)
	assert.Equal(t, a.Tie, b.Tie)
	assert.Equal(t, a.Trials, b.Trials)
	assert.Equal(t, a.StdError, b.StdError)
}

func TestSeedChangesSampledResult(t *testing.T) {
	cfg := Config{MaxSamples: 20_000, Workers: 4}
	req := Request{
		Hero:      hand("JsTs"),
		Board:     poker.MustParseCards("9s8s2c"),
		Opponents: []*ranges.Distribution{ranges.NewUniform(hand("JsTs9s8s2c"))},
		Seed:      7,
	}
	a, err := testEngine(cfg).Compute(context.Background(), req)
	require.NoError(t, err)

	req.Seed = 8
	b, err := testEngine(cfg).Compute(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, a.Win, b.Win)
}

func TestStdErrorShrinksWithBudget(t *testing.T) {
	req := Request{
		Hero:      hand("QdQc"),
		Opponents: []*ranges.Distribution{ranges.NewUniform(hand("QdQc"))},
		Seed:      11,
	}

	small, err := testEngine(Config{MaxSamples: 5_000, Workers: 4}).Compute(context.Background(), req)
	require.NoError(t, err)
	large, err := testEngine(Config{MaxSamples: 80_000, Workers: 4}).Compute(context.Background(), req)
	require.NoError(t, err)

	assert.Less(t, large.StdError, small.StdError)
}

func TestDeadlineReturnsPartialEstimate(t *testing.T) {
	// A budget far beyond what 50ms allows: the engine must come back with
	// whatever it accumulated rather than blocking.
	e := testEngine(Config{MaxSamples: 1 << 22, Workers: 2, SampleChunk: 256})

	start := time.Now()
	snap, err := e.Compute(context.Background(), Request{
		Hero:      hand("AsAh"),
		Opponents: []*ranges.Distribution{ranges.NewUniform(hand("AsAh"))},
		Deadline:  50 * time.Millisecond,
		Seed:      3,
	})
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.False(t, snap.Exact)
	assert.Greater(t, snap.Trials, 0)
	assert.Less(t, snap.Trials, 1<<22)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestExactModeHonorsTightDeadline(t *testing.T) {
	// One fixed opponent combo preflop enumerates C(48,5) = 1,712,304
	// runouts in a single assignment, all under the exact-mode budget. The
	// deadline must interrupt that walk partway, not after it finishes.
	dead := hand("AsAh")
	e := testEngine(Config{MaxEnumeration: 4_000_000})

	start := time.Now()
	snap, err := e.Compute(context.Background(), Request{
		Hero:      hand("AsAh"),
		Opponents: []*ranges.Distribution{singleCombo("KsKd", dead)},
		Deadline:  5 * time.Millisecond,
	})
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.False(t, snap.Exact)
	assert.Greater(t, snap.Trials, 0)
	assert.Less(t, snap.Trials, 1_712_304)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestCancellationAborts(t *testing.T) {
	e := testEngine(Config{MaxSamples: 1 << 22, Workers: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Compute(ctx, Request{
		Hero:      hand("AsAh"),
		Opponents: []*ranges.Distribution{ranges.NewUniform(hand("AsAh"))},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBlockedOpponentRangeErrors(t *testing.T) {
	e := testEngine(Config{})

	// Opponent's only combo shares hero's ace.
	opp := singleCombo("AsAd", 0)
	_, err := e.Compute(context.Background(), Request{
		Hero:      hand("AsKs"),
		Opponents: []*ranges.Distribution{opp},
	})
	assert.Error(t, err)
}

func TestSnapshotCarriesRangeSignals(t *testing.T) {
	e := testEngine(Config{})
	board := poker.MustParseCards("AhKh2c2d7s")
	dead := hand("AsKs") | poker.NewHand(board...)

	deg := ranges.NewWeighted(map[poker.Hand]float64{hand("AhKd"): 1.0}, dead)
	require.True(t, deg.Degenerate(), "all mass blocked forces the uniform fallback")

	snap, err := e.Compute(context.Background(), Request{
		Hero:      hand("AsKs"),
		Board:     board,
		Opponents: []*ranges.Distribution{deg},
		Deadline:  0,
	})
	require.NoError(t, err)
	assert.True(t, snap.DegenerateRange)
	assert.GreaterOrEqual(t, snap.GiveUpMass, 0.0)
	assert.LessOrEqual(t, snap.GiveUpMass, 1.0)
}
