package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mind-engage/gradecalc/internal/app"
	"github.com/mind-engage/gradecalc/internal/config"
	"github.com/mind-engage/gradecalc/internal/grading"
	"github.com/mind-engage/gradecalc/internal/logger"
	"github.com/mind-engage/gradecalc/internal/session"
)

const usage = `usage: gradecli <command> [args]

commands:
  calc <earned> <total>   calculate a grade and add it to history
  history                 list past calculations, newest first
  delete <id>             remove one calculation
  clear [-y]              remove all calculations
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cfg := config.Load()
	if cfg.LogLevel == "info" {
		cfg.LogLevel = "warn" // keep the terminal quiet unless asked
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true, Out: stderr})

	// only clear takes flags; calc must accept "-1" as a value
	cmd, pos := args[0], args[1:]
	yes := new(bool)
	if cmd == "clear" {
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		fs.SetOutput(stderr)
		yes = fs.Bool("y", false, "do not ask for confirmation")
		if err := fs.Parse(pos); err != nil {
			return 2
		}
		pos = fs.Args()
	}

	var confirmer session.Confirmer = promptConfirmer{in: bufio.NewReader(stdin), out: stdout}
	if *yes {
		confirmer = session.AlwaysConfirm
	}
	a, err := app.Build(ctx, cfg, log, session.WithConfirmer(confirmer))
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer a.Close()
	ctrl := a.Controller

	switch cmd {
	case "calc":
		if len(pos) != 2 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		out, err := ctrl.SubmitInput(ctx, pos[0], pos[1])
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		printOutcome(stdout, out)
		if out.PersistErr != nil {
			fmt.Fprintln(stderr, "warning: result not saved:", out.PersistErr)
			return 1
		}
	case "history":
		printHistory(stdout, ctrl.History())
	case "delete":
		if len(pos) != 1 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		if err := ctrl.Delete(ctx, pos[0]); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
	case "clear":
		cleared, err := ctrl.Clear(ctx)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		if !cleared {
			fmt.Fprintln(stdout, "history kept")
		}
	default:
		fmt.Fprint(stderr, usage)
		return 2
	}
	return 0
}

func printOutcome(w io.Writer, out session.Outcome) {
	e := out.Entry
	fmt.Fprintf(w, "%.2f%%  %s  %s\n", e.Percentage, e.LetterGrade, e.Message)
	switch out.Alert.Kind {
	case session.AlertPerfect:
		fmt.Fprintln(w, "🏆 PERFECT SCORE! 🏆")
	case session.AlertFailure:
		fmt.Fprintf(w, "💥 BOOM! You only got %.2f%% 💥\n", out.Alert.Percentage)
	}
}

func printHistory(w io.Writer, entries []grading.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no history")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %s  %g/%g  %.2f%%  %s\n", e.ID, e.Date, e.Earned, e.Total, e.Percentage, e.LetterGrade)
	}
}

// promptConfirmer asks on the terminal; anything but y/yes is a no.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func (p promptConfirmer) Confirm(_ context.Context, message string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", message)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
