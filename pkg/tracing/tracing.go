// Package tracing configures OpenTelemetry with a stdout exporter and offers
// small helpers for starting and ending spans around workflow nodes and
// outbound platform calls.
package tracing

import (
	"context"
	"io"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentation = "github.com/JaimeStill/triage"

// Config controls trace export. Spans are no-ops unless Enabled is set.
type Config struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
	Output      string `toml:"output"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled string
	Output  string
}

// Finalize applies defaults and environment variable overrides.
func (c *Config) Finalize(env *Env) error {
	if c.ServiceName == "" {
		c.ServiceName = "triage"
	}
	if env == nil {
		return nil
	}
	if v := os.Getenv(env.Enabled); env.Enabled != "" && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := os.Getenv(env.Output); env.Output != "" && v != "" {
		c.Output = v
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.ServiceName != "" {
		c.ServiceName = overlay.ServiceName
	}
	if overlay.Output != "" {
		c.Output = overlay.Output
	}
}

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

// Init installs the global tracer provider. Traces go to cfg.Output when
// set, otherwise stdout. A disabled config installs nothing and returns a
// no-op shutdown.
func Init(cfg *Config) (Shutdown, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	var w io.Writer = os.Stdout
	var closer io.Closer
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return nil, err
		}
		w, closer = f, f
	}

	tp, err := NewProvider(cfg.ServiceName, w)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closer != nil {
			closer.Close()
		}
		return err
	}, nil
}

// NewProvider builds a tracer provider that synchronously writes spans to w.
func NewProvider(serviceName string, w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	), nil
}

// Start begins a span using the global tracer provider.
func Start(ctx context.Context, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentation).Start(ctx, name,
		trace.WithSpanKind(kind),
		trace.WithAttributes(attrs...),
	)
}

// End records err on the span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
