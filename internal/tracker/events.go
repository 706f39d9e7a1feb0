package tracker

import (
	"github.com/gmanldn/pokertool/poker"
)

// Event is the narrow interface accepted from the vision collaborator. The
// tracker never sees capture or OCR internals, only these payloads.
type Event interface {
	// EventConfidence is the vision collaborator's confidence in the read,
	// in (0, 1]. Values <= 0 are treated as fully confident.
	EventConfidence() float64
	isEvent()
}

// SeatInfo describes one seat at hand start.
type SeatInfo struct {
	ID       int
	Position Position
	Stack    int
}

// NewHandEvent resets the tracker for a fresh hand. It always succeeds.
type NewHandEvent struct {
	HandID     string
	Seats      []SeatInfo
	HeroSeat   int
	HeroHole   [2]poker.Card
	Confidence float64
}

func (NewHandEvent) isEvent()                   {}
func (e NewHandEvent) EventConfidence() float64 { return e.Confidence }

// ActionEvent is one observed player action. For Bet and Raise, Amount is
// the seat's resulting total bet for the current street (the "bet to" size).
type ActionEvent struct {
	Seat       int
	Kind       ActionKind
	Amount     int
	Confidence float64
}

func (ActionEvent) isEvent()                   {}
func (e ActionEvent) EventConfidence() float64 { return e.Confidence }

// StreetAdvanceEvent reveals the next street. Cards carries the newly dealt
// board cards (3 for the flop, 1 for turn and river, none for showdown).
type StreetAdvanceEvent struct {
	Street     Street
	Cards      []poker.Card
	Confidence float64
}

func (StreetAdvanceEvent) isEvent()                   {}
func (e StreetAdvanceEvent) EventConfidence() float64 { return e.Confidence }
