// advice is a one-shot analysis tool: give it a hero hand, a board and
// opponent ranges and it prints the equity breakdown and the recommended
// action. Useful for spot checks and range-model debugging.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/gmanldn/pokertool/internal/decision"
	"github.com/gmanldn/pokertool/internal/equity"
	"github.com/gmanldn/pokertool/internal/ranges"
	"github.com/gmanldn/pokertool/internal/tracker"
	"github.com/gmanldn/pokertool/poker"
)

type CLI struct {
	Hand string `arg:"" help:"Hero hole cards, e.g. 'AsKd'" required:""`

	Board     string   `short:"b" help:"Community cards, e.g. 'Td7s8h'"`
	Range     []string `short:"r" help:"Opponent range in standard notation (repeat per opponent); omitted opponents are uniform"`
	Opponents int      `short:"n" default:"1" help:"Number of opponents"`
	Pot       int      `help:"Current pot size" default:"100"`
	ToCall    int      `help:"Chips hero must call" default:"0"`
	Stack     int      `help:"Hero stack behind" default:"1000"`
	Deadline  int      `help:"Computation budget in milliseconds; 0 for unbounded" default:"0"`
	Samples   int      `short:"i" help:"Monte Carlo sample budget" default:"200000"`
	Seed      *int64   `help:"Sampling seed for reproducible results"`
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	adviceStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("11"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("advice"),
		kong.Description("One-shot poker equity and EV analysis"),
		kong.UsageOnError(),
	)

	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.WarnLevel})

	seed := time.Now().UnixNano()
	if cli.Seed != nil {
		seed = *cli.Seed
	}

	hero, err := poker.ParseCards(strings.ReplaceAll(cli.Hand, " ", ""))
	if err != nil || len(hero) != 2 {
		fmt.Fprintf(os.Stderr, "Error: hand must be exactly 2 cards: %v\n", err)
		kctx.Exit(1)
	}
	heroHand := poker.NewHand(hero...)

	var board []poker.Card
	if cli.Board != "" {
		board, err = poker.ParseCards(strings.ReplaceAll(cli.Board, " ", ""))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing board: %v\n", err)
			kctx.Exit(1)
		}
		if len(board) > 5 {
			fmt.Fprintln(os.Stderr, "Board cannot have more than 5 cards")
			kctx.Exit(1)
		}
	}
	dead := heroHand | poker.NewHand(board...)
	if dead.CountCards() != 2+len(board) {
		fmt.Fprintln(os.Stderr, "Error: duplicate card between hand and board")
		kctx.Exit(1)
	}

	opponents, err := buildOpponents(cli, dead)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		kctx.Exit(1)
	}

	engine := equity.New(equity.Config{MaxSamples: cli.Samples}, quartz.NewReal(), logger)
	snap, err := engine.Compute(context.Background(), equity.Request{
		Hero:       heroHand,
		Board:      board,
		Opponents:  opponents,
		Deadline:   time.Duration(cli.Deadline) * time.Millisecond,
		Seed:       seed,
		Confidence: 1.0,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		kctx.Exit(1)
	}

	rec := decision.New(decision.Config{}).Decide(syntheticState(cli, hero, board), snap, cli.Stack)
	display(cli, snap, rec)
}

func buildOpponents(cli CLI, dead poker.Hand) ([]*ranges.Distribution, error) {
	n := max(cli.Opponents, len(cli.Range))
	opponents := make([]*ranges.Distribution, 0, n)
	for i := 0; i < n; i++ {
		if i < len(cli.Range) {
			weights, err := ranges.ParseNotation(cli.Range[i])
			if err != nil {
				return nil, fmt.Errorf("range %d: %w", i+1, err)
			}
			opponents = append(opponents, ranges.NewWeighted(weights, dead))
		} else {
			opponents = append(opponents, ranges.NewUniform(dead))
		}
	}
	return opponents, nil
}

// syntheticState builds the minimal hand state the decision engine reads:
// pot, hero's outstanding call and the hero seat.
func syntheticState(cli CLI, hero []poker.Card, board []poker.Card) *tracker.HandState {
	return &tracker.HandState{
		Street:    streetForBoard(len(board)),
		Board:     board,
		HeroSeat:  0,
		HeroHole:  poker.NewHand(hero...),
		Pot:       cli.Pot,
		BetToCall: cli.ToCall,
		Seats: []*tracker.Seat{
			{ID: 0, Stack: cli.Stack},
		},
		Confidence: 1.0,
	}
}

func streetForBoard(n int) tracker.Street {
	switch n {
	case 0:
		return tracker.Preflop
	case 3:
		return tracker.Flop
	case 4:
		return tracker.Turn
	default:
		return tracker.River
	}
}

func display(cli CLI, snap *equity.Snapshot, rec decision.Recommendation) {
	fmt.Printf("%s %s", headerStyle.Render("hand"), handStyle.Render(cli.Hand))
	if cli.Board != "" {
		fmt.Printf("   %s %s", headerStyle.Render("board"), handStyle.Render(cli.Board))
	}
	fmt.Printf("\n\n")

	mode := "sampled"
	if snap.Exact {
		mode = "exact"
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", headerStyle.Render("equity"),
		winStyle.Render(fmt.Sprintf("%.1f%%", snap.Equity()*100)))
	fmt.Fprintf(w, "%s\t%.1f%% / %.1f%% / %.1f%%\n", headerStyle.Render("win/tie/lose"),
		snap.Win*100, snap.Tie*100, snap.Lose*100)
	if !snap.Exact {
		fmt.Fprintf(w, "%s\t±%.2f%%\n", headerStyle.Render("std error"), snap.StdError*100)
	}
	fmt.Fprintf(w, "%s\t%s (%d trials, %v)\n", headerStyle.Render("mode"),
		mode, snap.Trials, snap.Elapsed.Truncate(time.Millisecond))
	w.Flush()

	fmt.Printf("\n%s %s", headerStyle.Render("advice"), adviceStyle.Render(rec.Action.String()))
	if rec.Amount > 0 {
		fmt.Printf(" %s", adviceStyle.Render(fmt.Sprintf("%d", rec.Amount)))
	}
	fmt.Printf("   %s\n\n", dimStyle.Render(rec.Rationale))

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n", headerStyle.Render("action"),
		headerStyle.Render("amount"), headerStyle.Render("EV"))
	for _, a := range rec.Actions {
		fmt.Fprintf(w, "%s\t%d\t%+.1f\n", a.Action, a.Amount, a.EV)
	}
	w.Flush()

	if rec.LowConfidence {
		fmt.Printf("\n%s\n", dimStyle.Render("low confidence: estimate did not converge within budget"))
	}
}
