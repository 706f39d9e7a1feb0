package equity

import (
	"context"
	rand "math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gmanldn/pokertool/internal/randutil"
	"github.com/gmanldn/pokertool/internal/ranges"
	"github.com/gmanldn/pokertool/poker"
)

// sampler holds the read-only inputs shared by all sampling workers.
type sampler struct {
	hero       poker.Hand
	board      poker.Hand
	need       int
	dead       poker.Hand
	candidates []poker.Card // unseen cards, runout pool
	opponents  [][]ranges.ComboWeight
	cumulative [][]float64 // per-opponent cumulative weights for weighted draws
}

// computeSampled runs weighted Monte Carlo across a worker pool with a single
// reduction point. The sample budget is split evenly so results for a fixed
// seed are reproducible whenever the deadline does not cut workers short.
func (e *Engine) computeSampled(ctx context.Context, req Request,
	opponents [][]ranges.ComboWeight, dead poker.Hand, deadlineAt time.Time) (Snapshot, error) {

	s := &sampler{
		hero:       req.Hero,
		board:      poker.NewHand(req.Board...),
		need:       5 - len(req.Board),
		dead:       dead,
		candidates: poker.RemainingCards(dead),
		opponents:  opponents,
	}
	s.cumulative = make([][]float64, len(opponents))
	for i, entries := range opponents {
		cum := make([]float64, len(entries))
		total := 0.0
		for j, cw := range entries {
			total += cw.Weight
			cum[j] = total
		}
		s.cumulative[i] = cum
	}

	workers := e.cfg.Workers
	budget := e.cfg.MaxSamples
	perWorker := budget / workers
	remainder := budget % workers

	results := make([]accumulator, workers)
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < workers; w++ {
		samples := perWorker
		if w < remainder {
			samples++
		}
		seed := randutil.Derive(req.Seed, w)
		acc := &results[w]

		g.Go(func() error {
			rng := randutil.New(seed)
			return e.runWorker(gctx, s, rng, samples, deadlineAt, acc)
		})
	}

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	// Single reduction point, merged in worker order for determinism.
	var total accumulator
	for i := range results {
		total.merge(results[i])
	}
	if total.trials == 0 {
		e.logger.Warn("deadline expired before any sample completed")
	}
	return total.snapshot(false), nil
}

// runWorker samples in chunks, checking cancellation and the deadline between
// chunks so the engine never blocks past its budget.
func (e *Engine) runWorker(ctx context.Context, s *sampler, rng *rand.Rand,
	samples int, deadlineAt time.Time, acc *accumulator) error {

	done := 0
	for done < samples {
		chunk := e.cfg.SampleChunk
		if rest := samples - done; rest < chunk {
			chunk = rest
		}

		for i := 0; i < chunk; i++ {
			s.sampleTrial(rng, acc)
		}
		done += chunk

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !deadlineAt.IsZero() && e.clock.Now().After(deadlineAt) {
			return nil
		}
	}
	return nil
}

// maxDrawAttempts bounds rejection sampling when opponent combos collide.
const maxDrawAttempts = 64

// sampleTrial draws one opponent holding per seat proportionally to range
// weight, completes the board uniformly, and scores the showdown.
func (s *sampler) sampleTrial(rng *rand.Rand, acc *accumulator) {
	used := s.dead
	holdings := make([]poker.Hand, len(s.opponents))

	for i, entries := range s.opponents {
		combo, ok := drawCombo(entries, s.cumulative[i], used, rng)
		if !ok {
			return // blocked trial, skip
		}
		holdings[i] = combo
		used |= combo
	}

	runout := poker.Hand(0)
	for picked := 0; picked < s.need; picked++ {
		ok := false
		for attempt := 0; attempt < maxDrawAttempts; attempt++ {
			c := s.candidates[rng.IntN(len(s.candidates))]
			if !used.HasCard(c) {
				used.AddCard(c)
				runout.AddCard(c)
				ok = true
				break
			}
		}
		if !ok {
			return
		}
	}

	scoreShowdown(acc, s.hero, s.board|runout, holdings, 1.0)
}

// drawCombo picks a combo proportionally to weight, rejecting draws that
// conflict with cards already in play this trial.
func drawCombo(entries []ranges.ComboWeight, cumulative []float64, used poker.Hand, rng *rand.Rand) (poker.Hand, bool) {
	total := cumulative[len(cumulative)-1]
	for attempt := 0; attempt < maxDrawAttempts; attempt++ {
		r := rng.Float64() * total
		idx := searchCumulative(cumulative, r)
		combo := entries[idx].Combo
		if !combo.Overlaps(used) {
			return combo, true
		}
	}
	return 0, false
}

// searchCumulative returns the first index whose cumulative weight exceeds r.
func searchCumulative(cumulative []float64, r float64) int {
	lo, hi := 0, len(cumulative)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cumulative[mid] > r {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
