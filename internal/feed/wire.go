package feed

import (
	"time"

	"github.com/gmanldn/pokertool/internal/advisor"
	"github.com/gmanldn/pokertool/internal/decision"
	"github.com/gmanldn/pokertool/internal/equity"
	"github.com/gmanldn/pokertool/poker"
)

// updateMessage is the outbound wire shape. Equity and Advice are omitted
// between decision points.
type updateMessage struct {
	Type      string    `json:"type"`
	Version   uint64    `json:"version"`
	Timestamp time.Time `json:"timestamp"`

	HandID     string   `json:"hand_id"`
	Street     string   `json:"street"`
	Board      []string `json:"board"`
	Pot        int      `json:"pot"`
	Confidence float64  `json:"confidence"`

	Equity *equityMessage `json:"equity,omitempty"`
	Advice *adviceMessage `json:"advice,omitempty"`
}

type equityMessage struct {
	Equity   float64 `json:"equity"`
	Win      float64 `json:"win"`
	Tie      float64 `json:"tie"`
	Lose     float64 `json:"lose"`
	Trials   int     `json:"trials"`
	Exact    bool    `json:"exact"`
	StdError float64 `json:"std_error"`
}

type adviceMessage struct {
	Action          string       `json:"action"`
	Amount          int          `json:"amount,omitempty"`
	EV              float64      `json:"ev"`
	Actions         []evMessage  `json:"actions"`
	PotOdds         float64      `json:"pot_odds"`
	SPR             float64      `json:"spr"`
	LowConfidence   bool         `json:"low_confidence"`
	DegenerateRange bool         `json:"degenerate_range"`
	Rationale       string       `json:"rationale"`
}

type evMessage struct {
	Action string  `json:"action"`
	Amount int     `json:"amount,omitempty"`
	EV     float64 `json:"ev"`
}

func wireUpdate(u advisor.Update) updateMessage {
	msg := updateMessage{
		Type:      "update",
		Timestamp: time.Now().UTC(),
	}
	if u.State != nil {
		msg.Version = u.State.Version
		msg.HandID = u.State.HandID
		msg.Street = u.State.Street.String()
		msg.Board = cardNames(u.State.Board)
		msg.Pot = u.State.Pot
		msg.Confidence = u.State.Confidence
	}
	msg.Equity = wireEquity(u.Snapshot)
	msg.Advice = wireAdvice(u.Recommendation)
	return msg
}

func wireEquity(snap *equity.Snapshot) *equityMessage {
	if snap == nil {
		return nil
	}
	return &equityMessage{
		Equity:   snap.Equity(),
		Win:      snap.Win,
		Tie:      snap.Tie,
		Lose:     snap.Lose,
		Trials:   snap.Trials,
		Exact:    snap.Exact,
		StdError: snap.StdError,
	}
}

func wireAdvice(rec *decision.Recommendation) *adviceMessage {
	if rec == nil {
		return nil
	}
	actions := make([]evMessage, len(rec.Actions))
	for i, a := range rec.Actions {
		actions[i] = evMessage{Action: a.Action.String(), Amount: a.Amount, EV: a.EV}
	}
	return &adviceMessage{
		Action:          rec.Action.String(),
		Amount:          rec.Amount,
		EV:              rec.EV,
		Actions:         actions,
		PotOdds:         rec.PotOdds,
		SPR:             rec.SPR,
		LowConfidence:   rec.LowConfidence,
		DegenerateRange: rec.DegenerateRange,
		Rationale:       rec.Rationale,
	}
}

func cardNames(cards []poker.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
