// Package dispatch drives a single job on the orchestration platform:
// find the intent-identification process, start it with the request input,
// and poll until the job reaches a terminal state or the attempt cap.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/triage/internal/orchestrator"
	"github.com/JaimeStill/triage/pkg/events"
	"github.com/JaimeStill/triage/pkg/formatting"
	"github.com/JaimeStill/triage/pkg/storage"
)

// Defaults for Options.
const (
	DefaultProcessMatch = "MultiIntentIdentification"
	DefaultInputPath    = "input.json"
	DefaultMaxAttempts  = 30
	DefaultInterval     = time.Second
	DefaultUserPrompt   = "I want to apply for leave from next Monday to Wednesday"
)

// Platform is the subset of the orchestrator client the driver uses.
type Platform interface {
	ListProcesses(ctx context.Context) []orchestrator.Process
	StartJob(ctx context.Context, releaseKey string, input map[string]any) *orchestrator.Job
	GetJobStatus(ctx context.Context, key string) *orchestrator.Job
}

// Outcome classifies how a dispatch run ended.
type Outcome string

const (
	OutcomeNoProcesses     Outcome = "no_processes"
	OutcomeProcessNotFound Outcome = "process_not_found"
	OutcomeStartFailed     Outcome = "start_failed"
	OutcomeSucceeded       Outcome = "succeeded"
	OutcomeFailed          Outcome = "failed"
	OutcomeStillRunning    Outcome = "still_running"
)

// Report summarizes a dispatch run.
type Report struct {
	Outcome    Outcome               `json:"outcome"`
	Process    *orchestrator.Process `json:"process,omitempty"`
	Job        *orchestrator.Job     `json:"job,omitempty"`
	State      orchestrator.JobState `json:"state,omitempty"`
	Output     string                `json:"output,omitempty"`
	Attempts   int                   `json:"attempts"`
	MonitorURL string                `json:"monitor_url,omitempty"`
	Artifact   string                `json:"artifact,omitempty"`
}

// Options tune the driver.
type Options struct {
	ProcessMatch string
	InputPath    string
	MaxAttempts  int
	Interval     time.Duration
	MonitorURL   string
	// Out receives operator-facing progress lines.
	Out io.Writer
	// Sleep waits between polls. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o *Options) applyDefaults() {
	if o.ProcessMatch == "" {
		o.ProcessMatch = DefaultProcessMatch
	}
	if o.InputPath == "" {
		o.InputPath = DefaultInputPath
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Out == nil {
		o.Out = io.Discard
	}
	if o.Sleep == nil {
		o.Sleep = sleep
	}
}

// Driver runs one dispatch.
type Driver struct {
	platform Platform
	events   events.Publisher
	store    storage.System
	opts     Options
	logger   *slog.Logger
}

// New creates a Driver. pub and store may be nil.
func New(platform Platform, pub events.Publisher, store storage.System, opts Options, logger *slog.Logger) *Driver {
	opts.applyDefaults()
	if pub == nil {
		pub = events.Nop{}
	}
	return &Driver{
		platform: platform,
		events:   pub,
		store:    store,
		opts:     opts,
		logger:   logger.With("system", "dispatch"),
	}
}

// Run executes the dispatch. Every platform outcome, including the poll cap,
// is reported through Report; the error return is reserved for context
// cancellation.
func (d *Driver) Run(ctx context.Context) (*Report, error) {
	var (
		processes []orchestrator.Process
		input     map[string]any
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		processes = d.platform.ListProcesses(gctx)
		return nil
	})
	g.Go(func() error {
		input = LoadInput(d.opts.InputPath, d.logger)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(processes) == 0 {
		d.printf("No processes found.")
		return &Report{Outcome: OutcomeNoProcesses}, nil
	}

	for _, p := range processes {
		d.printf("- %s (%s)", p.Name, p.Key)
	}

	process := SelectProcess(processes, d.opts.ProcessMatch)
	if process == nil {
		d.printf("No process matching %q.", d.opts.ProcessMatch)
		return &Report{Outcome: OutcomeProcessNotFound}, nil
	}

	job := d.platform.StartJob(ctx, process.Key, input)
	if job == nil {
		d.printf("Failed to start job for %s.", process.Name)
		return &Report{Outcome: OutcomeStartFailed, Process: process}, nil
	}

	d.printf("Started job %s (id %d).", job.Key, job.ID)
	if d.opts.MonitorURL != "" {
		d.printf("Monitor: %s", d.opts.MonitorURL)
	}
	d.publish(ctx, events.JobStarted, job)

	report := &Report{
		Process:    process,
		Job:        job,
		MonitorURL: d.opts.MonitorURL,
	}
	return d.poll(ctx, report)
}

func (d *Driver) poll(ctx context.Context, report *Report) (*Report, error) {
	key := report.Job.Key

	for attempt := 1; attempt <= d.opts.MaxAttempts; attempt++ {
		if err := d.opts.Sleep(ctx, d.opts.Interval); err != nil {
			return nil, err
		}

		report.Attempts = attempt
		status := d.platform.GetJobStatus(ctx, key)
		if status == nil {
			d.printf("Attempt %d/%d: status unavailable", attempt, d.opts.MaxAttempts)
			continue
		}

		report.Job = status
		report.State = status.State
		d.printf("Attempt %d/%d: %s", attempt, d.opts.MaxAttempts, status.State)
		d.publish(ctx, events.JobPolled, status)

		if !status.State.Terminal() {
			continue
		}

		d.publish(ctx, events.JobFinished, status)
		if status.State != orchestrator.StateSuccessful {
			report.Outcome = OutcomeFailed
			d.printf("Job ended in state %s.", status.State)
			return report, nil
		}

		report.Outcome = OutcomeSucceeded
		report.Output = PrettyOutput(status.OutputArguments)
		d.printf("Job succeeded. Output:\n%s", report.Output)
		report.Artifact = d.archive(ctx, key, report.Output)
		return report, nil
	}

	report.Outcome = OutcomeStillRunning
	d.printf("Job still running after %d attempts.", d.opts.MaxAttempts)
	return report, nil
}

func (d *Driver) archive(ctx context.Context, jobKey, output string) string {
	if d.store == nil || output == "" {
		return ""
	}

	key := storage.Key("jobs", jobKey, "output.json")
	if err := d.store.Upload(ctx, key, strings.NewReader(output), "application/json"); err != nil {
		d.logger.WarnContext(ctx, "archive job output failed", "key", key, "error", err)
		return ""
	}

	d.logger.InfoContext(ctx, "job output archived",
		"key", key,
		"size", formatting.FormatBytes(int64(len(output)), 1),
	)
	return key
}

func (d *Driver) publish(ctx context.Context, typ string, job *orchestrator.Job) {
	ev := events.NewEvent(typ, job.Key, job)
	if err := d.events.Publish(ctx, events.TopicJobs, ev); err != nil {
		d.logger.WarnContext(ctx, "publish event failed", "type", typ, "error", err)
	}
}

func (d *Driver) printf(format string, args ...any) {
	fmt.Fprintf(d.opts.Out, format+"\n", args...)
}

// SelectProcess returns the first process whose name contains match.
func SelectProcess(processes []orchestrator.Process, match string) *orchestrator.Process {
	for i := range processes {
		if strings.Contains(processes[i].Name, match) {
			return &processes[i]
		}
	}
	return nil
}

// DefaultInput is used when no input file can be read.
func DefaultInput() map[string]any {
	return map[string]any{"user_prompt": DefaultUserPrompt}
}

// LoadInput reads job input arguments from path. A missing or malformed
// file yields DefaultInput.
func LoadInput(path string, logger *slog.Logger) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("read input failed, using default", "path", path, "error", err)
		}
		return DefaultInput()
	}

	input, err := formatting.Parse[map[string]any](string(data))
	if err != nil || input == nil {
		logger.Warn("malformed input, using default", "path", path)
		return DefaultInput()
	}
	return input
}

// PrettyOutput indents a job's JSON output arguments. Non-JSON output is
// returned verbatim.
func PrettyOutput(raw *string) string {
	if raw == nil || *raw == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(*raw), "", "  "); err != nil {
		return *raw
	}
	return buf.String()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
