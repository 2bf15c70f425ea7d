package main

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"
)

// collectSystemInfo runs the compliance checks and gathers host facts.
// Every value stays within the bool | string | number variant the server
// accepts; nothing nested is ever reported.
func collectSystemInfo(ctx context.Context, log zerolog.Logger) map[string]any {
	info := map[string]any{
		"is_encrypted":            checkDiskEncryption(ctx),
		"is_antivirus_running":    checkAntivirus(ctx),
		"sleep_minutes_compliant": checkSleepCompliance(ctx),
	}

	hi, err := host.InfoWithContext(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("host info unavailable")
		return info
	}
	info["hostname"] = hi.Hostname
	info["os_version"] = strings.TrimSpace(hi.Platform + " " + hi.PlatformVersion)
	info["uptime_seconds"] = float64(hi.Uptime)
	return info
}

// checkAntivirus scans the process table for known antivirus daemons.
func checkAntivirus(ctx context.Context) bool {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false
	}
	names := make([]string, 0, len(procs))
	for _, p := range procs {
		if name, err := p.NameWithContext(ctx); err == nil {
			names = append(names, name)
		}
	}
	return matchesAntivirus(names)
}
