// advisord runs the analytics pipeline as a daemon: vision events arrive as
// JSON lines on stdin, advice updates stream to GUI clients over WebSocket.
package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/gmanldn/pokertool/internal/advisor"
	"github.com/gmanldn/pokertool/internal/config"
	"github.com/gmanldn/pokertool/internal/decision"
	"github.com/gmanldn/pokertool/internal/equity"
	"github.com/gmanldn/pokertool/internal/feed"
	"github.com/gmanldn/pokertool/internal/ranges"
	"github.com/gmanldn/pokertool/internal/tracker"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Config   string           `short:"c" default:"advisord.hcl" help:"Path to HCL config file"`
	Listen   string           `short:"l" help:"Feed listen address (overrides config)"`
	Seed     int64            `help:"Base sampling seed; 0 derives one from the clock"`
	LogLevel string           `default:"info" enum:"debug,info,warn,error" help:"Log level"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("advisord"),
		kong.Description("Poker analytics daemon: tracks hand state and streams advice"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           parseLevel(cli.LogLevel),
	})

	cfg, err := config.Load(cli.Config)
	if err != nil {
		logger.Fatal("config", "err", err)
	}
	if cli.Listen != "" {
		cfg.Feed.Listen = cli.Listen
	}

	seed := cli.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	err = run(cfg, seed, logger)
	kctx.FatalIfErrorf(err)
}

func run(cfg *config.Config, seed int64, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rangeCfg, err := cfg.RangesConfig()
	if err != nil {
		return err
	}

	clock := quartz.NewReal()
	pipeline := advisor.New(advisor.Config{
		Tracker:   tracker.New(logger),
		Estimator: ranges.NewEstimator(rangeCfg, logger),
		Equity:    equity.New(cfg.EquityConfig(), clock, logger),
		Decision:  decision.New(cfg.DecisionConfig()),
		Deadline:  cfg.Deadline(),
		Seed:      seed,
		Clock:     clock,
		Logger:    logger,
	})

	srv := feed.NewServer(logger)
	httpSrv := &http.Server{Addr: cfg.Feed.Listen, Handler: srv.Handler()}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := pipeline.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		srv.Consume(ctx, pipeline.Updates())
		return nil
	})

	g.Go(func() error {
		logger.Info("feed listening", "addr", cfg.Feed.Listen)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return readEvents(ctx, os.Stdin, pipeline, logger)
	})

	return g.Wait()
}

// readEvents feeds stdin JSON lines into the pipeline. Malformed lines are
// logged and skipped; the vision collaborator retries on its side. The
// scanner runs on its own goroutine so a signal stops the daemon even while
// stdin is open but idle.
func readEvents(ctx context.Context, r io.Reader, pipeline *advisor.Pipeline, logger *log.Logger) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return err
					}
				default:
				}
				logger.Info("event stream closed")
				<-ctx.Done()
				return nil
			}
			if len(line) == 0 {
				continue
			}
			ev, err := feed.ParseEvent(line)
			if err != nil {
				logger.Warn("skipping event", "err", err)
				continue
			}
			if err := pipeline.Submit(ctx, ev); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

func parseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
