// Package feed is the process boundary: it parses vision records arriving as
// JSON lines into tracker events, and pushes advice updates to GUI clients
// over WebSocket.
package feed

import (
	"encoding/json"
	"fmt"

	"github.com/gmanldn/pokertool/internal/tracker"
	"github.com/gmanldn/pokertool/poker"
)

// record is the wire shape of one vision event. Type selects which of the
// remaining fields are meaningful.
type record struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`

	// new_hand
	HandID   string       `json:"hand_id,omitempty"`
	Seats    []seatRecord `json:"seats,omitempty"`
	HeroSeat int          `json:"hero_seat,omitempty"`
	HeroHole []string     `json:"hero_hole,omitempty"`

	// action
	Seat   int    `json:"seat,omitempty"`
	Action string `json:"action,omitempty"`
	Amount int    `json:"amount,omitempty"`

	// street
	Street string   `json:"street,omitempty"`
	Cards  []string `json:"cards,omitempty"`
}

type seatRecord struct {
	ID       int    `json:"id"`
	Position string `json:"position"`
	Stack    int    `json:"stack"`
}

// ParseEvent decodes one JSON vision record into a tracker event.
func ParseEvent(data []byte) (tracker.Event, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("malformed event: %w", err)
	}

	switch rec.Type {
	case "new_hand":
		return parseNewHand(rec)
	case "action":
		return parseAction(rec)
	case "street":
		return parseStreet(rec)
	default:
		return nil, fmt.Errorf("unknown event type %q", rec.Type)
	}
}

func parseNewHand(rec record) (tracker.Event, error) {
	if len(rec.HeroHole) != 2 {
		return nil, fmt.Errorf("new_hand needs 2 hero cards, got %d", len(rec.HeroHole))
	}
	var hole [2]poker.Card
	for i, s := range rec.HeroHole {
		c, err := poker.ParseCard(s)
		if err != nil {
			return nil, fmt.Errorf("hero card %q: %w", s, err)
		}
		hole[i] = c
	}

	seats := make([]tracker.SeatInfo, len(rec.Seats))
	for i, s := range rec.Seats {
		seats[i] = tracker.SeatInfo{
			ID:       s.ID,
			Position: tracker.Position(s.Position),
			Stack:    s.Stack,
		}
	}

	return tracker.NewHandEvent{
		HandID:     rec.HandID,
		Seats:      seats,
		HeroSeat:   rec.HeroSeat,
		HeroHole:   hole,
		Confidence: rec.Confidence,
	}, nil
}

func parseAction(rec record) (tracker.Event, error) {
	kind, ok := tracker.ParseActionKind(rec.Action)
	if !ok {
		return nil, fmt.Errorf("unknown action %q", rec.Action)
	}
	return tracker.ActionEvent{
		Seat:       rec.Seat,
		Kind:       kind,
		Amount:     rec.Amount,
		Confidence: rec.Confidence,
	}, nil
}

func parseStreet(rec record) (tracker.Event, error) {
	street, ok := streetByName(rec.Street)
	if !ok {
		return nil, fmt.Errorf("unknown street %q", rec.Street)
	}

	cards := make([]poker.Card, len(rec.Cards))
	for i, s := range rec.Cards {
		c, err := poker.ParseCard(s)
		if err != nil {
			return nil, fmt.Errorf("board card %q: %w", s, err)
		}
		cards[i] = c
	}

	return tracker.StreetAdvanceEvent{
		Street:     street,
		Cards:      cards,
		Confidence: rec.Confidence,
	}, nil
}

func streetByName(s string) (tracker.Street, bool) {
	switch s {
	case "flop":
		return tracker.Flop, true
	case "turn":
		return tracker.Turn, true
	case "river":
		return tracker.River, true
	case "showdown":
		return tracker.Showdown, true
	}
	return 0, false
}
