// Package orchestrator is a thin REST client for the automation platform's
// orchestrator API: listing processes, starting jobs, and reading job state.
//
// Failures are logged and reported as empty results rather than errors.
// The platform owns scheduling and persistence, so callers treat a nil job
// as "nothing to follow" and stop.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/JaimeStill/triage/pkg/tracing"
)

const (
	pathReleases  = "/odata/Releases"
	pathStartJobs = "/odata/Jobs/UiPath.Server.Configuration.OData.StartJobs"
	pathJobs      = "/odata/Jobs"
)

// Client issues authenticated orchestrator requests.
type Client struct {
	http   *http.Client
	cfg    *Config
	base   string
	logger *slog.Logger
}

// New creates a Client for a finalized Config.
func New(cfg *Config, logger *slog.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: cfg.TimeoutDuration()},
		cfg:    cfg,
		base:   cfg.BaseURL(),
		logger: logger.With("system", "orchestrator"),
	}
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string {
	return c.base
}

// ListProcesses returns the available processes, or an empty slice when
// the call fails.
func (c *Client) ListProcesses(ctx context.Context) []Process {
	status, body, err := c.do(ctx, "ListProcesses", http.MethodGet, pathReleases, nil)
	if err != nil || !ok(status) {
		c.logFailure("list processes", status, body, err)
		return []Process{}
	}

	var list odataList[Process]
	if err := json.Unmarshal(body, &list); err != nil {
		c.logger.Error("decode processes", "error", err)
		return []Process{}
	}
	if list.Value == nil {
		return []Process{}
	}
	return list.Value
}

// StartJob starts releaseKey with input serialized as its input arguments.
// Only HTTP 201 counts as success; any other outcome returns nil.
func (c *Client) StartJob(ctx context.Context, releaseKey string, input map[string]any) *Job {
	args, err := json.Marshal(input)
	if err != nil {
		c.logger.Error("encode input arguments", "error", err)
		return nil
	}

	req := startJobsRequest{
		StartInfo: startInfo{
			ReleaseKey:     releaseKey,
			Strategy:       "Specific",
			InputArguments: string(args),
		},
	}

	status, body, err := c.do(ctx, "StartJob", http.MethodPost, pathStartJobs, req)
	if err != nil || status != http.StatusCreated {
		c.logFailure("start job", status, body, err)
		return nil
	}

	job, err := decodeStartedJob(body)
	if err != nil {
		c.logger.Error("decode started job", "error", err)
		return nil
	}
	return job
}

// GetJobStatus returns the job with the given key, or nil when it cannot be
// read or does not exist.
func (c *Client) GetJobStatus(ctx context.Context, key string) *Job {
	path := pathJobs + "?$filter=" + url.PathEscape("Key eq "+key)

	status, body, err := c.do(ctx, "GetJobStatus", http.MethodGet, path, nil)
	if err != nil || !ok(status) {
		c.logFailure("get job status", status, body, err)
		return nil
	}

	var list odataList[Job]
	if err := json.Unmarshal(body, &list); err != nil {
		c.logger.Error("decode job status", "error", err)
		return nil
	}
	if len(list.Value) == 0 {
		return nil
	}
	return &list.Value[0]
}

// decodeStartedJob accepts either an OData list (first element wins) or a
// bare job object.
func decodeStartedJob(body []byte) (*Job, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, err
	}

	if raw, ok := probe["value"]; ok {
		var jobs []Job
		if err := json.Unmarshal(raw, &jobs); err != nil {
			return nil, err
		}
		if len(jobs) == 0 {
			return nil, fmt.Errorf("empty job list")
		}
		return &jobs[0], nil
	}

	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) (int, []byte, error) {
	ctx, span := tracing.Start(ctx, "orchestrator."+op, trace.SpanKindClient,
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	status, body, err := c.send(ctx, method, path, payload)
	span.SetAttributes(attribute.Int("http.status_code", status))

	spanErr := err
	if spanErr == nil && !ok(status) {
		spanErr = fmt.Errorf("%w: status %d", ErrHTTPCallFailed, status)
	}
	tracing.End(span, spanErr)

	return status, body, err
}

func (c *Client) send(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: encode request: %w", ErrHTTPCallFailed, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrHTTPCallFailed, err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrHTTPCallFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read body: %w", ErrHTTPCallFailed, err)
	}

	return resp.StatusCode, body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-UIPATH-TenantName", c.cfg.TenantName)
	req.Header.Set("X-UIPATH-OrganizationUnitId", c.cfg.TenantID)
}

func (c *Client) logFailure(action string, status int, body []byte, err error) {
	if err != nil {
		c.logger.Error(action+" failed", "error", err)
		return
	}
	c.logger.Error(action+" failed",
		"error", ErrHTTPCallFailed,
		"status", status,
		"body", string(body),
	)
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
