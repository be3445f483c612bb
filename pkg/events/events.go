// Package events publishes workflow run and job lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/triage/pkg/lifecycle"
)

// Topic selects the stream an event is written to.
type Topic int

const (
	TopicRuns Topic = iota
	TopicJobs
)

// Event types.
const (
	RunStarted   = "run.started"
	RunSuspended = "run.suspended"
	RunResumed   = "run.resumed"
	RunCompleted = "run.completed"
	RunFailed    = "run.failed"
	JobStarted   = "job.started"
	JobPolled    = "job.polled"
	JobFinished  = "job.finished"
)

// Event is the JSON envelope written as the Kafka message value. Key is
// used as the message key so events for one run or job stay ordered.
type Event struct {
	Type string    `json:"type"`
	Key  string    `json:"key"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(typ, key string, data any) Event {
	return Event{Type: typ, Key: key, Time: time.Now().UTC(), Data: data}
}

// Publisher writes events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic Topic, ev Event) error
	Close() error
}

// New returns a Kafka publisher when brokers are configured and a no-op
// publisher otherwise.
func New(cfg *Config, logger *slog.Logger) Publisher {
	logger = logger.With("system", "events")
	if !cfg.Enabled() {
		logger.Info("no brokers configured, events disabled")
		return Nop{}
	}

	return &kafkaPublisher{
		writers: map[Topic]*kafka.Writer{
			TopicRuns: newWriter(cfg, cfg.RunsTopic),
			TopicJobs: newWriter(cfg, cfg.JobsTopic),
		},
		logger: logger,
	}
}

// Start registers a shutdown hook that flushes and closes the publisher.
func Start(p Publisher, lc *lifecycle.Coordinator, logger *slog.Logger) {
	lc.OnShutdown("events", func() {
		if err := p.Close(); err != nil {
			logger.Error("event publisher close failed", "error", err)
		}
	})
}

// newWriter builds a synchronous writer. kafka-go holds a partial batch
// for BatchTimeout before flushing, so the timeout is kept short.
func newWriter(cfg *Config, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           cfg.BatchTimeoutDuration(),
		AllowAutoTopicCreation: true,
	}
}

type kafkaPublisher struct {
	writers map[Topic]*kafka.Writer
	logger  *slog.Logger
}

func (p *kafkaPublisher) Publish(ctx context.Context, topic Topic, ev Event) error {
	w, ok := p.writers[topic]
	if !ok {
		return fmt.Errorf("unknown topic %d", topic)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ev.Key),
		Value: data,
	}

	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", w.Topic, err)
	}

	p.logger.Debug("event published", "topic", w.Topic, "type", ev.Type, "key", ev.Key)
	return nil
}

func (p *kafkaPublisher) Close() error {
	var g errgroup.Group
	for _, w := range p.writers {
		g.Go(w.Close)
	}
	return g.Wait()
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Topic, Event) error { return nil }
func (Nop) Close() error                                 { return nil }
