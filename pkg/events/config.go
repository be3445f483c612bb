package events

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultBatchTimeout bounds how long a synchronous publish waits for its
// batch to fill before it is flushed.
const DefaultBatchTimeout = 10 * time.Millisecond

// Config holds Kafka broker and topic settings. Publishing is disabled when
// Brokers is empty.
type Config struct {
	Brokers   []string `toml:"brokers"`
	RunsTopic string   `toml:"runs_topic"`
	JobsTopic string   `toml:"jobs_topic"`

	// BatchTimeout is a duration string. Every publish is a single message,
	// so this is the added latency per event.
	BatchTimeout string `toml:"batch_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Brokers      string
	RunsTopic    string
	JobsTopic    string
	BatchTimeout string
}

// Enabled reports whether any broker is configured.
func (c *Config) Enabled() bool {
	return len(c.Brokers) > 0
}

// BatchTimeoutDuration returns BatchTimeout as a time.Duration.
func (c *Config) BatchTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.BatchTimeout)
	if err != nil || d <= 0 {
		return DefaultBatchTimeout
	}
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if c.RunsTopic == "" {
		c.RunsTopic = "triage.runs"
	}
	if c.JobsTopic == "" {
		c.JobsTopic = "triage.jobs"
	}
	if c.BatchTimeout == "" {
		c.BatchTimeout = DefaultBatchTimeout.String()
	}
	if env != nil {
		c.applyEnv(env)
	}

	if d, err := time.ParseDuration(c.BatchTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid batch_timeout: %q", c.BatchTimeout)
	}
	return nil
}

func (c *Config) applyEnv(env *Env) {
	if v := getenv(env.Brokers); v != "" {
		c.Brokers = nil
		for b := range strings.SplitSeq(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Brokers = append(c.Brokers, b)
			}
		}
	}
	if v := getenv(env.RunsTopic); v != "" {
		c.RunsTopic = v
	}
	if v := getenv(env.JobsTopic); v != "" {
		c.JobsTopic = v
	}
	if v := getenv(env.BatchTimeout); v != "" {
		c.BatchTimeout = v
	}
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if len(overlay.Brokers) > 0 {
		c.Brokers = overlay.Brokers
	}
	if overlay.RunsTopic != "" {
		c.RunsTopic = overlay.RunsTopic
	}
	if overlay.JobsTopic != "" {
		c.JobsTopic = overlay.JobsTopic
	}
	if overlay.BatchTimeout != "" {
		c.BatchTimeout = overlay.BatchTimeout
	}
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
