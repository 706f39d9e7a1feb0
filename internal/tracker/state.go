// Package tracker maintains the authoritative hand-state snapshot from the
// stream of scrape-derived table events, enforcing pot and stack conservation.
package tracker

import (
	"github.com/gmanldn/pokertool/poker"
)

// Street represents the stage of the current hand.
type Street int

const (
	AwaitingHand Street = iota
	Preflop
	Flop
	Turn
	River
	Showdown
	FoldedOut
)

func (s Street) String() string {
	return [...]string{"awaiting_hand", "preflop", "flop", "turn", "river", "showdown", "folded_out"}[s]
}

// Terminal reports whether the hand is over.
func (s Street) Terminal() bool {
	return s == Showdown || s == FoldedOut
}

// boardCardsFor returns how many board cards a street reveals on entry.
func boardCardsFor(s Street) int {
	switch s {
	case Flop:
		return 3
	case Turn, River:
		return 1
	default:
		return 0
	}
}

// Position is the table position label used to index prior range tables.
type Position string

const (
	PositionButton     Position = "button"
	PositionSmallBlind Position = "small_blind"
	PositionBigBlind   Position = "big_blind"
	PositionEarly      Position = "early"
	PositionMiddle     Position = "middle"
	PositionLate       Position = "late"
)

// ActionKind enumerates player actions.
type ActionKind int

const (
	Fold ActionKind = iota
	Check
	Call
	Bet
	Raise
	AllIn
)

func (a ActionKind) String() string {
	return [...]string{"fold", "check", "call", "bet", "raise", "allin"}[a]
}

// ParseActionKind parses an action name as delivered by the vision feed.
func ParseActionKind(s string) (ActionKind, bool) {
	switch s {
	case "fold":
		return Fold, true
	case "check":
		return Check, true
	case "call":
		return Call, true
	case "bet":
		return Bet, true
	case "raise":
		return Raise, true
	case "allin", "all_in", "all-in":
		return AllIn, true
	}
	return 0, false
}

// Seat holds one player's state within the current hand.
type Seat struct {
	ID        int
	Position  Position
	Stack     int // chips behind
	StreetBet int // chips in front for the current street
	Committed int // total chips committed this hand (includes StreetBet)
	Folded    bool
	AllIn     bool
}

// Live reports whether the seat can still win the pot.
func (s *Seat) Live() bool { return !s.Folded }

// Acting reports whether the seat can still take actions.
func (s *Seat) Acting() bool { return !s.Folded && !s.AllIn }

// ActionRecord is one applied action in the hand's log.
type ActionRecord struct {
	Seat   int
	Kind   ActionKind
	Amount int // chips committed by this action
	Street Street
}

// HandState aggregates everything known about the current hand. Instances
// returned by the tracker are snapshots; the caller may read them freely.
type HandState struct {
	HandID     string
	Version    uint64
	Street     Street
	Board      []poker.Card
	Seats      []*Seat
	HeroSeat   int
	HeroHole   poker.Hand
	Pot        int
	BetToCall  int // highest StreetBet among live seats
	Actions    []ActionRecord
	Confidence float64 // lowest confidence among applied events, 1.0 = certain
}

// Clone returns a deep copy safe for concurrent readers.
func (h *HandState) Clone() *HandState {
	c := *h
	c.Board = append([]poker.Card(nil), h.Board...)
	c.Actions = append([]ActionRecord(nil), h.Actions...)
	c.Seats = make([]*Seat, len(h.Seats))
	for i, s := range h.Seats {
		seat := *s
		c.Seats[i] = &seat
	}
	return &c
}

// Seat returns the seat with the given ID, or nil if unknown.
func (h *HandState) Seat(id int) *Seat {
	for _, s := range h.Seats {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// BoardHand returns the board as a bit-packed Hand.
func (h *HandState) BoardHand() poker.Hand {
	return poker.NewHand(h.Board...)
}

// LiveOpponents returns the IDs of unfolded seats other than hero.
func (h *HandState) LiveOpponents() []int {
	var ids []int
	for _, s := range h.Seats {
		if s.ID != h.HeroSeat && s.Live() {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// HeroToCall returns the chips hero must add to continue.
func (h *HandState) HeroToCall() int {
	hero := h.Seat(h.HeroSeat)
	if hero == nil {
		return 0
	}
	toCall := h.BetToCall - hero.StreetBet
	if toCall < 0 {
		return 0
	}
	if toCall > hero.Stack {
		return hero.Stack
	}
	return toCall
}

// totalChips returns sum(stack) + pot, the conserved quantity within a hand.
func (h *HandState) totalChips() int {
	total := h.Pot
	for _, s := range h.Seats {
		total += s.Stack
	}
	return total
}
