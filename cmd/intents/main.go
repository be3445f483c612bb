// Command intents classifies a request and, when no intent is detected,
// asks the operator to review it in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"os/user"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JaimeStill/triage/internal/config"
	"github.com/JaimeStill/triage/internal/infrastructure"
	"github.com/JaimeStill/triage/internal/workflow"
)

var errReviewCancelled = errors.New("review cancelled")

func main() {
	text := flag.String("text", "", "Request text to classify (defaults to the remaining arguments)")
	flag.Parse()

	if *text == "" {
		*text = strings.Join(flag.Args(), " ")
	}
	if strings.TrimSpace(*text) == "" {
		fmt.Fprintln(os.Stderr, "usage: intents -text <request>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	infra, err := infrastructure.NewClient(cfg)
	if err != nil {
		log.Fatal("infrastructure init failed: ", err)
	}
	if err := infra.Start(); err != nil {
		log.Fatal("infrastructure start failed: ", err)
	}
	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		infra.Logger.Warn("startup incomplete", "error", err)
	}

	ctx, stop := signal.NotifyContext(infra.Lifecycle.Context(), os.Interrupt, syscall.SIGTERM)
	out, runErr := classify(ctx, cfg, infra, *text, promptReviewer)
	stop()

	if err := infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		infra.Logger.Error("shutdown failed", "error", err)
	}

	if runErr != nil {
		log.Fatal(runErr)
	}
	fmt.Println(renderOutcome(out))
}

// reviewFunc asks a reviewer for the intents of an escalated request.
type reviewFunc func(req workflow.EscalationRequest, categories []string) (string, error)

func classify(
	ctx context.Context,
	cfg *config.Config,
	infra *infrastructure.Infrastructure,
	text string,
	review reviewFunc,
) (*workflow.Outcome, error) {
	rt, err := infra.Workflow(cfg)
	if err != nil {
		return nil, err
	}

	runner, err := workflow.NewRunner(rt, workflow.NewMemoryStore())
	if err != nil {
		return nil, err
	}

	out, err := runner.Start(ctx, text)
	if err != nil {
		return nil, err
	}
	if out.Status != workflow.StatusSuspended || out.Escalation == nil {
		return out, nil
	}

	answer, err := review(*out.Escalation, rt.Classifier.Catalog().Names())
	if err != nil {
		if discardErr := runner.Discard(ctx, out.RunID); discardErr != nil {
			infra.Logger.Warn("discard run failed", "run_id", out.RunID, "error", discardErr)
		}
		return nil, err
	}

	return runner.Resume(
		ctx,
		out.RunID,
		map[string]any{"Intents": answer},
		workflow.WithReviewer(reviewer()),
	)
}

func promptReviewer(req workflow.EscalationRequest, categories []string) (string, error) {
	final, err := tea.NewProgram(newReviewModel(req, categories)).Run()
	if err != nil {
		return "", fmt.Errorf("review prompt: %w", err)
	}

	m := final.(reviewModel)
	if m.cancelled {
		return "", errReviewCancelled
	}
	return m.answer, nil
}

func reviewer() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "operator"
}
