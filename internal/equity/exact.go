package equity

import (
	"context"
	"time"

	"github.com/gmanldn/pokertool/internal/ranges"
	"github.com/gmanldn/pokertool/poker"
)

// deadlineCheckInterval is how many scored runouts pass between clock reads.
// A single opponent assignment can cover over a million runouts, so the check
// has to live inside the runout walk, not per assignment.
const deadlineCheckInterval = 4096

// computeExact enumerates every legal opponent holding assignment and every
// legal runout, weighting holdings by their range mass and runouts uniformly.
// If the deadline expires mid-enumeration the partial accumulation is
// returned marked approximate.
func (e *Engine) computeExact(ctx context.Context, hero poker.Hand, board []poker.Card,
	opponents [][]ranges.ComboWeight, dead poker.Hand, deadlineAt time.Time) (Snapshot, error) {

	var acc accumulator
	need := 5 - len(board)
	boardHand := poker.NewHand(board...)

	assignment := make([]poker.Hand, len(opponents))
	checked := 0
	complete := true
	var ctxErr error

	// stop reads the clock once per deadlineCheckInterval calls. A fired
	// deadline flips complete; a cancelled ctx surfaces through ctxErr.
	stop := func() bool {
		checked++
		if checked%deadlineCheckInterval != 0 {
			return false
		}
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			return true
		default:
		}
		if !deadlineAt.IsZero() && e.clock.Now().After(deadlineAt) {
			complete = false
			return true
		}
		return false
	}

	var enumerate func(oppIdx int, used poker.Hand, weight float64) error
	enumerate = func(oppIdx int, used poker.Hand, weight float64) error {
		if !complete {
			return nil
		}
		if oppIdx == len(opponents) {
			if !e.enumerateRunouts(&acc, hero, boardHand, assignment, used, need, weight, stop) {
				complete = false
				return ctxErr
			}
			return nil
		}

		for _, cw := range opponents[oppIdx] {
			if cw.Combo.Overlaps(used) {
				continue
			}
			assignment[oppIdx] = cw.Combo
			if err := enumerate(oppIdx+1, used|cw.Combo, weight*cw.Weight); err != nil {
				return err
			}
		}
		return nil
	}

	if err := enumerate(0, dead, 1.0); err != nil {
		return Snapshot{}, err
	}

	if !complete {
		e.logger.Debug("exact enumeration interrupted by deadline", "trials", acc.trials)
	}
	return acc.snapshot(complete), nil
}

// enumerateRunouts walks every combination of `need` cards from the unseen
// remainder and scores hero against the assigned opponent holdings. Returns
// false when stop fires partway through the walk.
func (e *Engine) enumerateRunouts(acc *accumulator, hero, board poker.Hand,
	assignment []poker.Hand, used poker.Hand, need int, weight float64, stop func() bool) bool {

	remaining := poker.RemainingCards(used)

	var walk func(start int, runout poker.Hand, picked int) bool
	walk = func(start int, runout poker.Hand, picked int) bool {
		if picked == need {
			if stop() {
				return false
			}
			scoreShowdown(acc, hero, board|runout, assignment, weight)
			return true
		}
		for i := start; i <= len(remaining)-(need-picked); i++ {
			if !walk(i+1, runout|poker.Hand(remaining[i]), picked+1) {
				return false
			}
		}
		return true
	}
	return walk(0, 0, 0)
}

// scoreShowdown scores one complete runout: win if hero strictly beats every
// opponent, tie if hero shares the best rank.
func scoreShowdown(acc *accumulator, hero, fullBoard poker.Hand, opponents []poker.Hand, weight float64) {
	heroRank := poker.Evaluate7(hero | fullBoard)

	best := true
	tied := false
	for _, opp := range opponents {
		switch heroRank.Compare(poker.Evaluate7(opp | fullBoard)) {
		case -1:
			best = false
		case 0:
			tied = true
		}
		if !best {
			break
		}
	}

	switch {
	case !best:
		acc.addLose(weight)
	case tied:
		acc.addTie(weight)
	default:
		acc.addWin(weight)
	}
}
