package tracker

import "fmt"

// Invariant names used by RecoverableStateError.
const (
	InvariantStackConservation = "stack-conservation"
	InvariantUnresolvedBets    = "unresolved-bets"
	InvariantStreetOrder       = "street-order"
	InvariantBoardCards        = "board-cards"
	InvariantSeatState         = "seat-state"
	InvariantNoHand            = "no-hand"
)

// RecoverableStateError rejects an event that would violate a conservation
// invariant. State is left unchanged; the caller may resubmit a corrected
// event or re-scrape.
type RecoverableStateError struct {
	Invariant string
	Detail    string
}

func (e *RecoverableStateError) Error() string {
	return fmt.Sprintf("recoverable state error [%s]: %s", e.Invariant, e.Detail)
}

func recoverable(invariant, format string, args ...any) error {
	return &RecoverableStateError{Invariant: invariant, Detail: fmt.Sprintf(format, args...)}
}

// FatalStateError marks an impossible transition. The tracker discards the
// current hand entirely and resets to AwaitingHand rather than propagating a
// corrupt state forward.
type FatalStateError struct {
	Detail string
}

func (e *FatalStateError) Error() string {
	return fmt.Sprintf("fatal state error: %s", e.Detail)
}
