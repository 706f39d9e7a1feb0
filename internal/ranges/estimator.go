package ranges

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/gmanldn/pokertool/internal/tracker"
	"github.com/gmanldn/pokertool/poker"
)

// WeightRule maps hand-strength categories to multiplicative weight factors
// for one observed action kind.
type WeightRule map[poker.HoleCardCategory]float64

// Config carries the static range model: position-indexed priors and the
// action-to-weight rules. Built once at startup from configuration.
type Config struct {
	// Priors maps a position to combo weights parsed from range notation.
	Priors map[tracker.Position]map[poker.Hand]float64

	// BaselineWeight is the mass given to combos outside the named prior
	// range, so the prior stays full-support.
	BaselineWeight float64

	// Weights maps action kinds to per-category factors. Categories absent
	// from a rule default to 1.0 (no evidence either way).
	Weights map[tracker.ActionKind]WeightRule
}

// DefaultWeights is the shipped action model: raises concentrate mass on
// strong holdings, calls on medium and drawing holdings, checks shade weak.
func DefaultWeights() map[tracker.ActionKind]WeightRule {
	return map[tracker.ActionKind]WeightRule{
		tracker.Bet: {
			poker.CategoryPremium: 2.5,
			poker.CategoryStrong:  2.0,
			poker.CategoryMedium:  1.0,
			poker.CategoryWeak:    0.5,
			poker.CategoryTrash:   0.3,
		},
		tracker.Raise: {
			poker.CategoryPremium: 3.0,
			poker.CategoryStrong:  2.2,
			poker.CategoryMedium:  0.8,
			poker.CategoryWeak:    0.3,
			poker.CategoryTrash:   0.15,
		},
		tracker.AllIn: {
			poker.CategoryPremium: 4.0,
			poker.CategoryStrong:  2.5,
			poker.CategoryMedium:  0.6,
			poker.CategoryWeak:    0.2,
			poker.CategoryTrash:   0.1,
		},
		tracker.Call: {
			poker.CategoryPremium: 0.8,
			poker.CategoryStrong:  1.2,
			poker.CategoryMedium:  1.6,
			poker.CategoryWeak:    1.0,
			poker.CategoryTrash:   0.4,
		},
		tracker.Check: {
			poker.CategoryPremium: 0.6,
			poker.CategoryStrong:  0.8,
			poker.CategoryMedium:  1.0,
			poker.CategoryWeak:    1.3,
			poker.CategoryTrash:   1.3,
		},
	}
}

// Estimator owns one distribution per live opponent seat. Updates are
// serialized per hand but independent across seats, so a single action fans
// out across seats in parallel.
type Estimator struct {
	cfg    Config
	logger *log.Logger

	mu    sync.RWMutex
	seats map[int]*Distribution
}

// NewEstimator creates an estimator with the given range model.
func NewEstimator(cfg Config, logger *log.Logger) *Estimator {
	if cfg.BaselineWeight <= 0 {
		cfg.BaselineWeight = 0.15
	}
	if cfg.Weights == nil {
		cfg.Weights = DefaultWeights()
	}
	return &Estimator{
		cfg:    cfg,
		logger: logger.WithPrefix("ranges"),
		seats:  make(map[int]*Distribution),
	}
}

// Prior builds the position-indexed default distribution, excluding combos
// that conflict with the dead cards (hero's holding at hand start).
func (e *Estimator) Prior(pos tracker.Position, dead poker.Hand) *Distribution {
	named, ok := e.cfg.Priors[pos]
	if !ok || len(named) == 0 {
		return NewUniform(dead)
	}

	weights := make(map[poker.Hand]float64, 1326)
	for _, combo := range poker.AllCombos() {
		if w, in := named[combo]; in {
			weights[combo] = w
		} else {
			weights[combo] = e.cfg.BaselineWeight
		}
	}
	return NewWeighted(weights, dead)
}

// StartHand resets per-seat distributions to the priors for a new hand.
func (e *Estimator) StartHand(state *tracker.HandState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seats = make(map[int]*Distribution, len(state.Seats))
	for _, seat := range state.Seats {
		if seat.ID == state.HeroSeat {
			continue
		}
		e.seats[seat.ID] = e.Prior(seat.Position, state.HeroHole)
	}
}

// Narrow updates the acting seat's distribution from an observed action. A
// fold discards the seat's distribution; anything else reweights by the
// configured action rule and renormalizes. A modeling contradiction falls
// back to uniform and is flagged on the returned distribution.
func (e *Estimator) Narrow(seatID int, kind tracker.ActionKind, state *tracker.HandState) (*Distribution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if seatID == state.HeroSeat {
		return nil, nil // hero's cards are known; no range to track
	}

	dist, ok := e.seats[seatID]
	if !ok {
		return nil, fmt.Errorf("no distribution for seat %d", seatID)
	}

	if kind == tracker.Fold {
		delete(e.seats, seatID)
		return nil, nil
	}

	dead := state.BoardHand() | state.HeroHole
	board := state.BoardHand()
	rule := e.cfg.Weights[kind]

	ok = dist.reweight(dead, func(combo poker.Hand) float64 {
		if rule == nil {
			return 1.0
		}
		if f, in := rule[poker.ComboCategory(combo, board)]; in {
			return f
		}
		return 1.0
	})
	if !ok {
		e.logger.Warn("degenerate range, falling back to uniform", "seat", seatID, "action", kind)
		dist = degenerateFallback(dead)
		e.seats[seatID] = dist
	}
	return dist.Clone(), nil
}

// ObserveBoard removes combos conflicting with newly revealed board cards
// from every tracked seat. Seats run independently, so they are pruned in
// parallel.
func (e *Estimator) ObserveBoard(ctx context.Context, state *tracker.HandState) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	dead := state.BoardHand() | state.HeroHole

	g, _ := errgroup.WithContext(ctx)
	for id, dist := range e.seats {
		g.Go(func() error {
			if !dist.pruneDead(dead) {
				e.logger.Warn("board pruned range to nothing, falling back to uniform", "seat", id)
				*dist = *degenerateFallback(dead)
			}
			return nil
		})
	}
	return g.Wait()
}

// Ranges returns a clone of every live opponent distribution keyed by seat.
func (e *Estimator) Ranges() map[int]*Distribution {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[int]*Distribution, len(e.seats))
	for id, dist := range e.seats {
		out[id] = dist.Clone()
	}
	return out
}

// GiveUpMass returns the probability mass a seat's range holds in weak and
// trash combos against the board, feeding the decision engine's fold-equity
// term.
func (e *Estimator) GiveUpMass(seatID int, board poker.Hand) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	dist, ok := e.seats[seatID]
	if !ok {
		return 0
	}
	return dist.CategoryMass(board, poker.CategoryWeak, poker.CategoryTrash)
}
