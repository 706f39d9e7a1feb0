package tracker

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/gmanldn/pokertool/poker"
)

// Tracker applies vision events to a single hand state. It is a single-writer
// consumer: Apply must be called from one goroutine, in arrival order.
type Tracker struct {
	state  *HandState
	logger *log.Logger
}

// New creates a tracker awaiting its first hand.
func New(logger *log.Logger) *Tracker {
	return &Tracker{
		state:  &HandState{Street: AwaitingHand, Confidence: 1.0},
		logger: logger.WithPrefix("tracker"),
	}
}

// State returns a snapshot of the current hand state.
func (t *Tracker) State() *HandState {
	return t.state.Clone()
}

// Apply applies one event. On success it returns the updated snapshot. A
// *RecoverableStateError leaves state untouched; a *FatalStateError resets
// the tracker to AwaitingHand.
func (t *Tracker) Apply(ev Event) (*HandState, error) {
	var err error
	switch e := ev.(type) {
	case NewHandEvent:
		t.applyNewHand(e)
	case ActionEvent:
		err = t.applyAction(e)
	case StreetAdvanceEvent:
		err = t.applyStreetAdvance(e)
	default:
		err = recoverable(InvariantSeatState, "unknown event type %T", ev)
	}

	if err != nil {
		if _, fatal := err.(*FatalStateError); fatal {
			t.logger.Error("discarding hand after impossible transition", "err", err)
			t.state = &HandState{Street: AwaitingHand, Confidence: 1.0}
		}
		return nil, err
	}

	t.state.Version++
	t.absorbConfidence(ev.EventConfidence())
	return t.state.Clone(), nil
}

func (t *Tracker) absorbConfidence(c float64) {
	if c <= 0 || c > 1 {
		return
	}
	if c < t.state.Confidence {
		t.state.Confidence = c
	}
}

func (t *Tracker) applyNewHand(e NewHandEvent) {
	seats := make([]*Seat, len(e.Seats))
	for i, info := range e.Seats {
		seats[i] = &Seat{ID: info.ID, Position: info.Position, Stack: info.Stack}
	}

	t.state = &HandState{
		HandID:     e.HandID,
		Street:     Preflop,
		Seats:      seats,
		HeroSeat:   e.HeroSeat,
		HeroHole:   poker.NewHand(e.HeroHole[0], e.HeroHole[1]),
		Confidence: 1.0,
	}
	t.logger.Debug("new hand", "id", e.HandID, "seats", len(seats))
}

func (t *Tracker) applyAction(e ActionEvent) error {
	st := t.state
	if st.Street == AwaitingHand {
		return recoverable(InvariantNoHand, "action %s before any hand started", e.Kind)
	}
	if st.Street.Terminal() {
		return recoverable(InvariantStreetOrder, "action %s on terminal street %s", e.Kind, st.Street)
	}

	seat := st.Seat(e.Seat)
	if seat == nil {
		return recoverable(InvariantSeatState, "unknown seat %d", e.Seat)
	}
	if !seat.Acting() {
		return recoverable(InvariantSeatState, "seat %d cannot act (folded=%v allin=%v)", e.Seat, seat.Folded, seat.AllIn)
	}

	// Chips the seat must add, validated against its remaining stack before
	// any mutation so a rejected event leaves the state untouched.
	var add int
	switch e.Kind {
	case Fold:
		add = 0
	case Check:
		if seat.StreetBet < st.BetToCall {
			return recoverable(InvariantUnresolvedBets, "seat %d checks facing %d to call", e.Seat, st.BetToCall-seat.StreetBet)
		}
	case Call:
		add = st.BetToCall - seat.StreetBet
		if add <= 0 {
			return recoverable(InvariantUnresolvedBets, "seat %d calls with nothing to call", e.Seat)
		}
		if add > seat.Stack {
			// Short call for the remaining stack.
			add = seat.Stack
		}
	case Bet:
		if st.BetToCall > 0 {
			return recoverable(InvariantUnresolvedBets, "seat %d bets while facing a bet of %d", e.Seat, st.BetToCall)
		}
		if e.Amount <= 0 {
			return recoverable(InvariantStackConservation, "seat %d bet of %d is not positive", e.Seat, e.Amount)
		}
		add = e.Amount - seat.StreetBet
		if add > seat.Stack {
			return recoverable(InvariantStackConservation,
				"seat %d bet of %d exceeds remaining stack %d", e.Seat, e.Amount, seat.Stack)
		}
	case Raise:
		if e.Amount <= st.BetToCall {
			return recoverable(InvariantUnresolvedBets, "seat %d raise to %d does not exceed bet %d", e.Seat, e.Amount, st.BetToCall)
		}
		add = e.Amount - seat.StreetBet
		if add > seat.Stack {
			return recoverable(InvariantStackConservation,
				"seat %d raise to %d exceeds remaining stack %d", e.Seat, e.Amount, seat.Stack)
		}
	case AllIn:
		add = seat.Stack
	default:
		return recoverable(InvariantSeatState, "unknown action kind %d", e.Kind)
	}

	before := st.totalChips()

	seat.Stack -= add
	seat.StreetBet += add
	seat.Committed += add
	st.Pot += add
	if seat.Stack == 0 && add > 0 {
		seat.AllIn = true
	}
	if seat.StreetBet > st.BetToCall {
		st.BetToCall = seat.StreetBet
	}
	if e.Kind == Fold {
		seat.Folded = true
	}

	st.Actions = append(st.Actions, ActionRecord{Seat: e.Seat, Kind: e.Kind, Amount: add, Street: st.Street})

	if after := st.totalChips(); after != before {
		// Should be unreachable; conservation is checked up front.
		panic(fmt.Sprintf("chip conservation broken: %d != %d", after, before))
	}

	if t.countLive() == 1 {
		st.Street = FoldedOut
		t.logger.Debug("hand folded out", "id", st.HandID, "pot", st.Pot)
	}
	return nil
}

func (t *Tracker) applyStreetAdvance(e StreetAdvanceEvent) error {
	st := t.state
	if st.Street == AwaitingHand {
		return recoverable(InvariantNoHand, "street advance before any hand started")
	}
	if st.Street.Terminal() {
		return &FatalStateError{Detail: fmt.Sprintf("street advance to %s on terminal street %s", e.Street, st.Street)}
	}
	if e.Street != st.Street+1 {
		return recoverable(InvariantStreetOrder, "cannot advance from %s to %s", st.Street, e.Street)
	}
	if len(e.Cards) != boardCardsFor(e.Street) {
		return recoverable(InvariantBoardCards, "%s expects %d new cards, got %d", e.Street, boardCardsFor(e.Street), len(e.Cards))
	}

	known := st.BoardHand() | st.HeroHole
	for _, c := range e.Cards {
		if known.HasCard(c) {
			return recoverable(InvariantBoardCards, "board card %s already visible", c)
		}
		known.AddCard(c)
	}

	// All live seats that can still act must have matched the current bet.
	for _, s := range st.Seats {
		if s.Acting() && s.StreetBet != st.BetToCall {
			return recoverable(InvariantUnresolvedBets,
				"seat %d has %d in front with %d to match", s.ID, s.StreetBet, st.BetToCall)
		}
	}

	for _, s := range st.Seats {
		s.StreetBet = 0
	}
	st.BetToCall = 0
	st.Street = e.Street
	st.Board = append(st.Board, e.Cards...)
	t.logger.Debug("street advance", "street", st.Street, "board", st.BoardHand())
	return nil
}

func (t *Tracker) countLive() int {
	n := 0
	for _, s := range t.state.Seats {
		if s.Live() {
			n++
		}
	}
	return n
}
