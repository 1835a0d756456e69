package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// healthcheckCmd represents the healthcheck command
	healthcheckCmd = &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is healthy",
		Long: `Performs a health check by calling the /health endpoint.

This command is used by Docker HEALTHCHECK to monitor container health.
It exits with code 0 if the server is healthy, non-zero otherwise.
A degraded server (warnings only) still counts as healthy.`,
		Args: cobra.NoArgs,
		RunE: runHealthcheck,
	}

	// Flags
	healthcheckTimeout int
	healthcheckURL     string
)

func init() {
	healthcheckCmd.Flags().IntVar(&healthcheckTimeout, "timeout", 5, "timeout in seconds")
	healthcheckCmd.Flags().StringVar(&healthcheckURL, "url", "", "health check URL (default: http://localhost:{SERVER_PORT}/health)")
}

// HealthResponse is the subset of the /health payload the probe reads.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthCheckResult is the outcome of one probe.
type HealthCheckResult struct {
	IsHealthy bool
	Status    string
	Failing   []string
	LatencyMs int64
	Error     string
}

func runHealthcheck(cmd *cobra.Command, args []string) error {
	url := healthcheckURL
	if url == "" {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		url = fmt.Sprintf("http://localhost:%s/health", port)
	}

	result := performHealthCheck(url, time.Duration(healthcheckTimeout)*time.Second)
	if result.Error != "" {
		return fmt.Errorf("health check failed: %s", result.Error)
	}
	if !result.IsHealthy {
		return fmt.Errorf("server status %s (failing: %v)", result.Status, result.Failing)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%dms)\n", result.Status, result.LatencyMs)
	return nil
}

func performHealthCheck(url string, timeout time.Duration) HealthCheckResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return HealthCheckResult{Error: err.Error()}
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return HealthCheckResult{Error: err.Error(), LatencyMs: latency}
	}
	defer func() { _ = resp.Body.Close() }()

	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return HealthCheckResult{
			Error:     fmt.Sprintf("invalid response (status %d): %v", resp.StatusCode, err),
			LatencyMs: latency,
		}
	}

	result := HealthCheckResult{Status: body.Status, LatencyMs: latency}
	for name, check := range body.Checks {
		if check.Status == "fail" {
			result.Failing = append(result.Failing, name)
		}
	}
	result.IsHealthy = resp.StatusCode == http.StatusOK &&
		(body.Status == "healthy" || body.Status == "degraded")
	return result
}
