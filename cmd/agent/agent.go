package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/rs/zerolog"

	"github.com/fleetsight/fleetsight/internal/fleet"
	"github.com/fleetsight/fleetsight/internal/version"
)

// Retry configuration for report delivery.
const (
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

const stateFileName = "state.json"

// Agent collects compliance state and reports it to the server.
type Agent struct {
	serverURL string
	machineID string
	stateDir  string
	client    *http.Client
	log       zerolog.Logger
}

// run reports immediately, then on every interval tick until ctx is done.
// A failed report is logged and retried naturally on the next tick; the
// server keeps the machine's previous state either way.
func (a *Agent) run(ctx context.Context, interval time.Duration) {
	a.reportOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.reportOnce(ctx)
		}
	}
}

// reportOnce runs all checks, sends the report with bounded retries, and
// snapshots the collected state to disk.
func (a *Agent) reportOnce(ctx context.Context) {
	start := time.Now()
	info := collectSystemInfo(ctx, a.log)
	a.log.Debug().Dur("elapsed", time.Since(start)).Int("fields", len(info)).Msg("checks complete")

	report := fleet.Report{
		MachineID:  a.machineID,
		OS:         runtime.GOOS,
		SystemInfo: info,
	}

	err := retry.Do(func() error {
		return a.send(ctx, report)
	}, retry.Attempts(maxRetries), retry.Delay(initialBackoff), retry.MaxDelay(maxBackoff))
	if err != nil {
		a.log.Error().Err(err).Int("attempts", maxRetries).Msg("report failed")
		return
	}

	a.log.Info().Msg("reported to server")
	if err := a.saveState(info); err != nil {
		a.log.Warn().Err(err).Msg("save state")
	}
}

// send POSTs one report. A 4xx means this payload will never be accepted, so
// the retry loop is told not to bother.
func (a *Agent) send(ctx context.Context, report fleet.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("marshal report: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.serverURL+"/api/report", bytes.NewReader(data))
	if err != nil {
		return retry.Unrecoverable(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "fleetsight-agent/"+version.Version)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return retry.Unrecoverable(fmt.Errorf("server rejected report: %s", resp.Status))
	default:
		return fmt.Errorf("server error: %s", resp.Status)
	}
}

// agentState is the on-disk snapshot of the last successful report.
type agentState struct {
	ReportedAt time.Time      `json:"reported_at"`
	SystemInfo map[string]any `json:"system_info"`
}

func (a *Agent) saveState(info map[string]any) error {
	data, err := json.MarshalIndent(agentState{ReportedAt: time.Now(), SystemInfo: info}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(a.stateDir, stateFileName), data, 0o600)
}

// loadState returns the previous snapshot, or nil if none exists.
func (a *Agent) loadState() (*agentState, error) {
	data, err := os.ReadFile(filepath.Join(a.stateDir, stateFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var st agentState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
