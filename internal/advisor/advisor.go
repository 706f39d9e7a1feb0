// Package advisor wires the hand tracker, range estimator, equity engine and
// decision engine into one pipeline. A single goroutine owns all state
// mutation; equity computations run concurrently and are cancelled the moment
// a newer event lands.
package advisor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/gmanldn/pokertool/internal/decision"
	"github.com/gmanldn/pokertool/internal/equity"
	"github.com/gmanldn/pokertool/internal/randutil"
	"github.com/gmanldn/pokertool/internal/ranges"
	"github.com/gmanldn/pokertool/internal/tracker"
)

// Update is one versioned pipeline output. Snapshot and Recommendation are
// nil while the hand is between decision points (or after a fatal reset).
type Update struct {
	State          *tracker.HandState
	Snapshot       *equity.Snapshot
	Recommendation *decision.Recommendation
}

// Config assembles the pipeline's moving parts.
type Config struct {
	Tracker   *tracker.Tracker
	Estimator *ranges.Estimator
	Equity    *equity.Engine
	Decision  *decision.Engine

	// Deadline bounds each equity computation; zero disables the bound.
	Deadline time.Duration

	// Seed drives sampling. Each computation derives its own child seed
	// from the hand version, so replays of the same event stream reproduce
	// identical advice.
	Seed int64

	Clock  quartz.Clock
	Logger *log.Logger
}

// Pipeline consumes table events and publishes advice. Submit is safe from
// any goroutine; all processing happens on the Run goroutine.
type Pipeline struct {
	cfg    Config
	logger *log.Logger

	events  chan tracker.Event
	updates chan Update

	// version is the latest applied state version. Compute results from an
	// older version are stale and dropped instead of published.
	version atomic.Uint64

	cancelCompute context.CancelFunc
	computeWG     sync.WaitGroup
}

// New creates a pipeline. Call Run to start processing.
func New(cfg Config) *Pipeline {
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	return &Pipeline{
		cfg:     cfg,
		logger:  cfg.Logger.WithPrefix("advisor"),
		events:  make(chan tracker.Event, 64),
		updates: make(chan Update, 16),
	}
}

// Submit queues an event for processing. Blocks only if the pipeline is
// saturated, which keeps event ordering intact under load.
func (p *Pipeline) Submit(ctx context.Context, ev tracker.Event) error {
	select {
	case p.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Updates is the stream of published advice. Closed when Run returns.
func (p *Pipeline) Updates() <-chan Update {
	return p.updates
}

// Run processes events until ctx is cancelled. It is the single writer for
// tracker and estimator state.
func (p *Pipeline) Run(ctx context.Context) error {
	// The compute goroutine publishes into p.updates, so it must be fully
	// stopped before the channel closes.
	defer func() {
		p.stopCompute()
		p.computeWG.Wait()
		close(p.updates)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-p.events:
			p.handle(ctx, ev)
		}
	}
}

func (p *Pipeline) handle(ctx context.Context, ev tracker.Event) {
	// Any new event supersedes whatever equity run is in flight.
	p.stopCompute()

	state, err := p.cfg.Tracker.Apply(ev)
	if err != nil {
		var rec *tracker.RecoverableStateError
		if errors.As(err, &rec) {
			p.logger.Warn("event rejected", "invariant", rec.Invariant, "err", err)
		} else {
			p.logger.Error("fatal state error, tracker reset", "err", err)
			p.publish(Update{State: p.cfg.Tracker.State()})
		}
		return
	}
	p.version.Store(state.Version)

	switch e := ev.(type) {
	case tracker.NewHandEvent:
		p.cfg.Estimator.StartHand(state)
	case tracker.ActionEvent:
		if _, err := p.cfg.Estimator.Narrow(e.Seat, e.Kind, state); err != nil {
			p.logger.Warn("range narrow failed", "seat", e.Seat, "err", err)
		}
	case tracker.StreetAdvanceEvent:
		if err := p.cfg.Estimator.ObserveBoard(ctx, state); err != nil {
			p.logger.Warn("board prune failed", "err", err)
		}
	}

	p.advise(ctx, state)
}

// advise publishes for the given state: terminal streets get an immediate
// trivial update, live streets start an equity computation.
func (p *Pipeline) advise(ctx context.Context, state *tracker.HandState) {
	switch state.Street {
	case tracker.AwaitingHand:
		return
	case tracker.FoldedOut:
		// Everyone else folded. No computation needed, hero's equity in
		// the pot is total.
		snap := &equity.Snapshot{
			Win:         1,
			Trials:      1,
			Exact:       true,
			Confidence:  state.Confidence,
			HandVersion: state.Version,
			ComputedAt:  p.cfg.Clock.Now(),
		}
		p.publish(Update{State: state, Snapshot: snap})
		return
	case tracker.Showdown:
		p.publish(Update{State: state})
		return
	}

	hero := state.Seat(state.HeroSeat)
	if hero == nil || hero.Folded {
		p.publish(Update{State: state})
		return
	}

	dists := p.cfg.Estimator.Ranges()
	opponents := make([]*ranges.Distribution, 0, len(dists))
	for _, id := range state.LiveOpponents() {
		if dist, ok := dists[id]; ok {
			opponents = append(opponents, dist)
		}
	}

	req := equity.Request{
		Hero:        state.HeroHole,
		Board:       state.Board,
		Opponents:   opponents,
		Deadline:    p.cfg.Deadline,
		Seed:        randutil.Derive(p.cfg.Seed, int(state.Version)),
		Confidence:  state.Confidence,
		HandVersion: state.Version,
	}

	computeCtx, cancel := context.WithCancel(ctx)
	p.cancelCompute = cancel
	heroStack := hero.Stack

	p.computeWG.Add(1)
	go func() {
		defer p.computeWG.Done()
		snap, err := p.cfg.Equity.Compute(computeCtx, req)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				p.logger.Error("equity computation failed", "err", err)
			}
			return
		}
		// A newer event may have landed while we computed.
		if snap.HandVersion != p.version.Load() {
			return
		}
		rec := p.cfg.Decision.Decide(state, snap, heroStack)
		p.publish(Update{State: state, Snapshot: snap, Recommendation: &rec})
	}()
}

func (p *Pipeline) stopCompute() {
	if p.cancelCompute != nil {
		p.cancelCompute()
		p.cancelCompute = nil
	}
}

// publish never blocks the event loop: if the consumer lags, the oldest
// update is dropped in favour of the fresh one.
func (p *Pipeline) publish(u Update) {
	for {
		select {
		case p.updates <- u:
			return
		default:
		}
		select {
		case <-p.updates:
			p.logger.Debug("dropped stale update")
		default:
		}
	}
}
