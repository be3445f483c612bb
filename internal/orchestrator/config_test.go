package orchestrator_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/JaimeStill/triage/internal/orchestrator"
)

func setPlatformEnv(t *testing.T) {
	t.Helper()
	t.Setenv(orchestrator.EnvURL, "https://cloud.example.com/acme/DefaultTenant")
	t.Setenv(orchestrator.EnvAccessToken, "token")
	t.Setenv(orchestrator.EnvTenantID, "42")
	t.Setenv(orchestrator.EnvOrganizationID, "org-1")
}

func TestFinalizeFromEnv(t *testing.T) {
	setPlatformEnv(t)

	cfg := orchestrator.Config{}
	if err := cfg.Finalize(orchestrator.DefaultEnv); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"tenant_name", cfg.TenantName, "DefaultTenant"},
		{"timeout", cfg.Timeout, "30s"},
		{"base_url", cfg.BaseURL(), "https://cloud.example.com/acme/DefaultTenant/orchestrator_"},
		{"monitor_url", cfg.MonitorURL(), "https://cloud.example.com/acme/DefaultTenant/orchestrator_/jobs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %s, want %s", tt.got, tt.expected)
			}
		})
	}
}

func TestBaseURLWithoutTenantSegment(t *testing.T) {
	cfg := orchestrator.Config{URL: "https://cloud.example.com/acme/", TenantName: "DefaultTenant"}

	want := "https://cloud.example.com/acme/DefaultTenant/orchestrator_"
	if got := cfg.BaseURL(); got != want {
		t.Errorf("BaseURL() = %s, want %s", got, want)
	}
}

func TestFinalizeMissing(t *testing.T) {
	vars := []string{
		orchestrator.EnvURL,
		orchestrator.EnvAccessToken,
		orchestrator.EnvTenantID,
		orchestrator.EnvOrganizationID,
	}

	for _, missing := range vars {
		t.Run(missing, func(t *testing.T) {
			setPlatformEnv(t)
			t.Setenv(missing, "")

			cfg := orchestrator.Config{}
			err := cfg.Finalize(orchestrator.DefaultEnv)
			if !errors.Is(err, orchestrator.ErrConfigMissing) {
				t.Fatalf("error = %v, want ErrConfigMissing", err)
			}
			if !strings.Contains(err.Error(), missing) {
				t.Errorf("error %q does not name %s", err, missing)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := orchestrator.Config{URL: "https://a", TenantName: "DefaultTenant"}
	base.Merge(&orchestrator.Config{URL: "https://b", Timeout: "5s"})

	if base.URL != "https://b" || base.TenantName != "DefaultTenant" || base.Timeout != "5s" {
		t.Errorf("unexpected merge result: %+v", base)
	}
}

func TestJobStateTerminal(t *testing.T) {
	tests := []struct {
		state orchestrator.JobState
		want  bool
	}{
		{orchestrator.StatePending, false},
		{orchestrator.StateRunning, false},
		{orchestrator.StateStopping, false},
		{orchestrator.StateSuspended, false},
		{orchestrator.StateSuccessful, true},
		{orchestrator.StateFaulted, true},
		{orchestrator.StateStopped, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}
