// Package equity computes hero win/tie/lose probabilities against weighted
// opponent ranges, by exact enumeration when the space is small enough and by
// weighted Monte Carlo sampling under a wall-clock deadline otherwise.
package equity

import (
	"math"
	"time"
)

// Snapshot is one immutable equity result. It is superseded by the next
// snapshot; consumers use HandVersion to discard stale results.
type Snapshot struct {
	Win  float64
	Tie  float64
	Lose float64

	// Trials is the number of enumerated runout evaluations (exact mode) or
	// Monte Carlo samples (sampling mode) behind the estimate.
	Trials int

	// Exact is true when every legal runout and holding was enumerated.
	Exact bool

	// StdError is the standard error of the equity estimate. Zero in exact
	// mode; 1 when no trials completed before the deadline.
	StdError float64

	// Confidence is the propagated input confidence from the vision feed.
	Confidence float64

	// GiveUpMass is the mean probability mass opponents hold in give-up
	// combos against this board; the decision engine's fold-equity input.
	GiveUpMass float64

	// DegenerateRange is set when any opponent range fell back to uniform
	// after a modeling contradiction.
	DegenerateRange bool

	HandVersion uint64
	ComputedAt  time.Time
	Elapsed     time.Duration
}

// Equity returns the scalar equity: win probability plus half the tie mass.
func (s *Snapshot) Equity() float64 {
	return s.Win + s.Tie/2
}

// accumulator tracks running win/tie/lose mass together with the sum and sum
// of squares of per-trial equity values, for the standard-error bound.
type accumulator struct {
	win, tie, lose float64 // weighted mass
	trials         int
	sum, sumSq     float64
}

func (a *accumulator) addWin(w float64) {
	a.win += w
	a.trials++
	a.sum += w
	a.sumSq += w * w
}

func (a *accumulator) addTie(w float64) {
	a.tie += w
	a.trials++
	a.sum += w / 2
	a.sumSq += (w / 2) * (w / 2)
}

func (a *accumulator) addLose(w float64) {
	a.lose += w
	a.trials++
}

func (a *accumulator) merge(o accumulator) {
	a.win += o.win
	a.tie += o.tie
	a.lose += o.lose
	a.trials += o.trials
	a.sum += o.sum
	a.sumSq += o.sumSq
}

// stdError returns the standard error of the mean equity across trials.
func (a *accumulator) stdError() float64 {
	if a.trials < 2 {
		return 1
	}
	n := float64(a.trials)
	mean := a.sum / n
	variance := (a.sumSq - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance / n)
}

func (a *accumulator) snapshot(exact bool) Snapshot {
	total := a.win + a.tie + a.lose
	if total <= 0 {
		return Snapshot{StdError: 1, Exact: exact}
	}
	snap := Snapshot{
		Win:    a.win / total,
		Tie:    a.tie / total,
		Lose:   a.lose / total,
		Trials: a.trials,
		Exact:  exact,
	}
	if !exact {
		snap.StdError = a.stdError()
	}
	return snap
}
