package tracker

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmanldn/pokertool/poker"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	return New(log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel}))
}

func newHand(stacks ...int) NewHandEvent {
	positions := []Position{PositionButton, PositionSmallBlind, PositionBigBlind, PositionEarly, PositionMiddle, PositionLate}
	seats := make([]SeatInfo, len(stacks))
	for i, s := range stacks {
		seats[i] = SeatInfo{ID: i, Position: positions[i], Stack: s}
	}
	hole := poker.MustParseCards("AsKd")
	return NewHandEvent{
		HandID:     "hand-1",
		Seats:      seats,
		HeroSeat:   0,
		HeroHole:   [2]poker.Card{hole[0], hole[1]},
		Confidence: 1.0,
	}
}

// chipSum is the conserved quantity: chips behind plus chips in the pot.
func chipSum(st *HandState) int {
	total := st.Pot
	for _, s := range st.Seats {
		total += s.Stack
	}
	return total
}

func TestNewHandResetsState(t *testing.T) {
	tr := newTestTracker(t)
	st, err := tr.Apply(newHand(1000, 1000, 1000))
	require.NoError(t, err)

	assert.Equal(t, Preflop, st.Street)
	assert.Equal(t, 0, st.Pot)
	assert.Len(t, st.Seats, 3)
	assert.Equal(t, 2, st.HeroHole.CountCards())
	assert.Equal(t, 1.0, st.Confidence)
}

func TestConservationThroughHand(t *testing.T) {
	tr := newTestTracker(t)
	events := []Event{
		newHand(1000, 1000, 1000),
		ActionEvent{Seat: 1, Kind: Bet, Amount: 5, Confidence: 1},     // small blind
		ActionEvent{Seat: 2, Kind: Raise, Amount: 10, Confidence: 1},  // big blind
		ActionEvent{Seat: 0, Kind: Raise, Amount: 30, Confidence: 1},
		ActionEvent{Seat: 1, Kind: Fold, Confidence: 1},
		ActionEvent{Seat: 2, Kind: Call, Confidence: 1},
		StreetAdvanceEvent{Street: Flop, Cards: poker.MustParseCards("7h8h2c"), Confidence: 1},
		ActionEvent{Seat: 2, Kind: Check, Confidence: 1},
		ActionEvent{Seat: 0, Kind: Bet, Amount: 40, Confidence: 1},
		ActionEvent{Seat: 2, Kind: Call, Confidence: 1},
		StreetAdvanceEvent{Street: Turn, Cards: poker.MustParseCards("Qs"), Confidence: 1},
	}

	for i, ev := range events {
		st, err := tr.Apply(ev)
		require.NoError(t, err, "event %d", i)
		assert.Equal(t, 3000, chipSum(st), "event %d", i)

		committed := 0
		for _, s := range st.Seats {
			committed += s.Committed
		}
		assert.Equal(t, st.Pot, committed, "event %d", i)
	}

	st := tr.State()
	assert.Equal(t, Turn, st.Street)
	assert.Equal(t, 145, st.Pot) // 5 folded + 2x30 + 2x40
	assert.Equal(t, 0, st.BetToCall)
}

func TestBetExceedingStackRejected(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Apply(newHand(100, 100))
	require.NoError(t, err)
	before := tr.State()

	_, err = tr.Apply(ActionEvent{Seat: 1, Kind: Bet, Amount: 150, Confidence: 1})
	require.Error(t, err)

	var rec *RecoverableStateError
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, InvariantStackConservation, rec.Invariant)

	// Rejected events leave the state untouched.
	after := tr.State()
	assert.Equal(t, before.Pot, after.Pot)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.Seats[1].Stack, after.Seats[1].Stack)
}

func TestShortCallForRemainingStack(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Apply(newHand(1000, 30))
	require.NoError(t, err)

	_, err = tr.Apply(ActionEvent{Seat: 0, Kind: Bet, Amount: 100, Confidence: 1})
	require.NoError(t, err)

	st, err := tr.Apply(ActionEvent{Seat: 1, Kind: Call, Confidence: 1})
	require.NoError(t, err)

	seat := st.Seat(1)
	assert.Equal(t, 0, seat.Stack)
	assert.True(t, seat.AllIn)
	assert.Equal(t, 130, st.Pot)
	assert.Equal(t, 1030, chipSum(st))
}

func TestFoldedOutOnLastFold(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Apply(newHand(1000, 1000, 1000))
	require.NoError(t, err)

	_, err = tr.Apply(ActionEvent{Seat: 0, Kind: Bet, Amount: 50, Confidence: 1})
	require.NoError(t, err)
	_, err = tr.Apply(ActionEvent{Seat: 1, Kind: Fold, Confidence: 1})
	require.NoError(t, err)

	st, err := tr.Apply(ActionEvent{Seat: 2, Kind: Fold, Confidence: 1})
	require.NoError(t, err)
	assert.Equal(t, FoldedOut, st.Street)
	assert.True(t, st.Street.Terminal())

	// No further actions on a finished hand.
	_, err = tr.Apply(ActionEvent{Seat: 0, Kind: Check, Confidence: 1})
	var rec *RecoverableStateError
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, InvariantStreetOrder, rec.Invariant)
}

func TestFatalErrorResetsTracker(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Apply(newHand(1000, 1000))
	require.NoError(t, err)
	_, err = tr.Apply(ActionEvent{Seat: 1, Kind: Fold, Confidence: 1})
	require.NoError(t, err)
	require.Equal(t, FoldedOut, tr.State().Street)

	_, err = tr.Apply(StreetAdvanceEvent{Street: Flop, Cards: poker.MustParseCards("7h8h2c"), Confidence: 1})
	var fatal *FatalStateError
	require.ErrorAs(t, err, &fatal)

	assert.Equal(t, AwaitingHand, tr.State().Street)
}

func TestStreetOrderEnforced(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Apply(newHand(1000, 1000))
	require.NoError(t, err)

	// Skipping the flop is rejected.
	_, err = tr.Apply(StreetAdvanceEvent{Street: Turn, Cards: poker.MustParseCards("Qs"), Confidence: 1})
	var rec *RecoverableStateError
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, InvariantStreetOrder, rec.Invariant)

	// Wrong card count for the flop.
	_, err = tr.Apply(StreetAdvanceEvent{Street: Flop, Cards: poker.MustParseCards("7h8h"), Confidence: 1})
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, InvariantBoardCards, rec.Invariant)

	// Board card colliding with hero's hole cards.
	_, err = tr.Apply(StreetAdvanceEvent{Street: Flop, Cards: poker.MustParseCards("As8h2c"), Confidence: 1})
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, InvariantBoardCards, rec.Invariant)
}

func TestStreetAdvanceRequiresResolvedBets(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Apply(newHand(1000, 1000))
	require.NoError(t, err)
	_, err = tr.Apply(ActionEvent{Seat: 0, Kind: Bet, Amount: 50, Confidence: 1})
	require.NoError(t, err)

	_, err = tr.Apply(StreetAdvanceEvent{Street: Flop, Cards: poker.MustParseCards("7h8h2c"), Confidence: 1})
	var rec *RecoverableStateError
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, InvariantUnresolvedBets, rec.Invariant)
}

func TestStreetSweepsBetsIntoPot(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Apply(newHand(1000, 1000))
	require.NoError(t, err)
	_, err = tr.Apply(ActionEvent{Seat: 0, Kind: Bet, Amount: 50, Confidence: 1})
	require.NoError(t, err)
	_, err = tr.Apply(ActionEvent{Seat: 1, Kind: Call, Confidence: 1})
	require.NoError(t, err)

	st, err := tr.Apply(StreetAdvanceEvent{Street: Flop, Cards: poker.MustParseCards("7h8h2c"), Confidence: 1})
	require.NoError(t, err)
	assert.Equal(t, 100, st.Pot)
	assert.Equal(t, 0, st.BetToCall)
	for _, s := range st.Seats {
		assert.Equal(t, 0, s.StreetBet)
	}
	assert.Equal(t, 3, len(st.Board))
}

func TestConfidenceAbsorbsMinimum(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Apply(newHand(1000, 1000))
	require.NoError(t, err)

	st, err := tr.Apply(ActionEvent{Seat: 0, Kind: Check, Confidence: 0.7})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, st.Confidence, 1e-9)

	// Higher confidence events never raise it back.
	st, err = tr.Apply(ActionEvent{Seat: 1, Kind: Check, Confidence: 0.95})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, st.Confidence, 1e-9)
}

func TestActionBeforeHandRejected(t *testing.T) {
	tr := newTestTracker(t)
	_, err := tr.Apply(ActionEvent{Seat: 0, Kind: Check, Confidence: 1})
	var rec *RecoverableStateError
	require.ErrorAs(t, err, &rec)
	assert.Equal(t, InvariantNoHand, rec.Invariant)
}

func TestVersionIncrementsPerEvent(t *testing.T) {
	tr := newTestTracker(t)
	st, err := tr.Apply(newHand(1000, 1000))
	require.NoError(t, err)
	v1 := st.Version

	st, err = tr.Apply(ActionEvent{Seat: 0, Kind: Check, Confidence: 1})
	require.NoError(t, err)
	assert.Equal(t, v1+1, st.Version)
}
