// Package decision turns an equity snapshot into an actionable
// recommendation: per-action EV estimates from pot odds, stack-to-pot ratio
// and a simplified fold-equity model, with a minimum-variance tie break.
package decision

import (
	"fmt"
	"sort"

	"github.com/gmanldn/pokertool/internal/equity"
	"github.com/gmanldn/pokertool/internal/tracker"
)

// Config carries the static decision policy.
type Config struct {
	// RaiseSizings are the candidate raise sizes as fractions of the pot.
	RaiseSizings []float64

	// StdErrorThreshold flags recommendations built on sampling estimates
	// whose standard error exceeds it.
	StdErrorThreshold float64

	// InputConfidenceThreshold flags recommendations built on low-confidence
	// vision reads.
	InputConfidenceThreshold float64

	// FoldEquityScale scales the opponent give-up mass into a fold
	// probability; MaxFoldProbability clamps the result.
	FoldEquityScale    float64
	MaxFoldProbability float64
}

func (c Config) withDefaults() Config {
	if len(c.RaiseSizings) == 0 {
		c.RaiseSizings = []float64{0.5, 1.0}
	}
	// Ascending order keeps the variance tie break meaningful: smaller
	// sizings are preferred on EV-neutral spots.
	sort.Float64s(c.RaiseSizings)
	if c.StdErrorThreshold <= 0 {
		c.StdErrorThreshold = 0.05
	}
	if c.InputConfidenceThreshold <= 0 {
		c.InputConfidenceThreshold = 0.8
	}
	if c.FoldEquityScale <= 0 {
		c.FoldEquityScale = 1.0
	}
	if c.MaxFoldProbability <= 0 {
		c.MaxFoldProbability = 0.9
	}
	return c
}

// ActionEV is the EV estimate for one candidate action. Amount is the chips
// hero adds (call amount, or total raise cost including the call).
type ActionEV struct {
	Action tracker.ActionKind
	Amount int
	EV     float64
}

// Recommendation is the engine's output for one decision point. Ephemeral:
// issued once per decision point and superseded by the next.
type Recommendation struct {
	Action  tracker.ActionKind
	Amount  int
	EV      float64
	Actions []ActionEV

	Equity  float64
	PotOdds float64
	SPR     float64

	LowConfidence   bool
	DegenerateRange bool
	Rationale       string
	HandVersion     uint64
}

// Engine computes recommendations. Decide is a pure function of its inputs:
// identical (state, snapshot, stack) always yields the identical result.
type Engine struct {
	cfg Config
}

// New creates a decision engine with the given policy.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Decide selects the maximum-EV action among fold, check/call and the
// configured raise sizings. EV ties break toward the lower-variance action.
func (e *Engine) Decide(state *tracker.HandState, snap *equity.Snapshot, heroStack int) Recommendation {
	pot := state.Pot
	toCall := state.HeroToCall()
	if toCall > heroStack {
		toCall = heroStack
	}
	eq := snap.Equity()

	potOdds := 0.0
	if toCall > 0 {
		potOdds = float64(toCall) / float64(pot+toCall)
	}
	spr := 0.0
	if pot > 0 {
		spr = float64(heroStack) / float64(pot)
	}

	// Candidates in ascending variance order; the tie break prefers earlier
	// entries so EV-neutral spots do not pick up needless variance.
	var candidates []ActionEV
	if toCall > 0 {
		candidates = append(candidates, ActionEV{Action: tracker.Fold, EV: 0})
		candidates = append(candidates, ActionEV{
			Action: tracker.Call,
			Amount: toCall,
			EV:     eq*float64(pot+toCall) - (1-eq)*float64(toCall),
		})
	} else {
		candidates = append(candidates, ActionEV{Action: tracker.Check, EV: eq * float64(pot)})
	}
	candidates = append(candidates, e.raiseCandidates(state, snap, heroStack, toCall)...)

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.EV > best.EV+evEpsilon {
			best = c
		}
	}

	lowConfidence := snap.Confidence < e.cfg.InputConfidenceThreshold ||
		(!snap.Exact && snap.StdError > e.cfg.StdErrorThreshold)

	return Recommendation{
		Action:          best.Action,
		Amount:          best.Amount,
		EV:              best.EV,
		Actions:         candidates,
		Equity:          eq,
		PotOdds:         potOdds,
		SPR:             spr,
		LowConfidence:   lowConfidence,
		DegenerateRange: snap.DegenerateRange,
		Rationale: fmt.Sprintf("equity %.1f%%, pot odds %.1f%%, SPR %.1f",
			eq*100, potOdds*100, spr),
		HandVersion: snap.HandVersion,
	}
}

const evEpsilon = 1e-9

// raiseCandidates enumerates the configured sizings, capped at hero's stack.
// Sizings that would put the whole stack in collapse into one all-in entry.
func (e *Engine) raiseCandidates(state *tracker.HandState, snap *equity.Snapshot, heroStack, toCall int) []ActionEV {
	if heroStack <= toCall {
		return nil // calling already commits the stack
	}

	pot := state.Pot
	eq := snap.Equity()

	kind := tracker.Bet
	if toCall > 0 {
		kind = tracker.Raise
	}

	var out []ActionEV
	allInAdded := false
	for _, sizing := range e.cfg.RaiseSizings {
		cost := toCall + int(sizing*float64(pot))
		if cost <= toCall {
			continue
		}

		action := kind
		if cost >= heroStack {
			if allInAdded {
				continue
			}
			cost = heroStack
			action = tracker.AllIn
			allInAdded = true
		}

		raisePortion := cost - toCall
		foldProb := snap.GiveUpMass * e.cfg.FoldEquityScale * sizingPressure(sizing)
		if foldProb > e.cfg.MaxFoldProbability {
			foldProb = e.cfg.MaxFoldProbability
		}

		// Opponents fold: hero takes the pot as is. Opponents continue:
		// assume the raise is matched, growing the pot by twice the raise
		// portion beyond the current pot.
		continueEV := eq*float64(pot+2*raisePortion+toCall) - (1-eq)*float64(cost)
		ev := foldProb*float64(pot) + (1-foldProb)*continueEV

		out = append(out, ActionEV{Action: action, Amount: cost, EV: ev})
	}
	return out
}

// sizingPressure grows fold probability with bet size, saturating so an
// overbet never promises more folds than the give-up mass supports.
func sizingPressure(sizing float64) float64 {
	return sizing / (sizing + 0.5)
}
