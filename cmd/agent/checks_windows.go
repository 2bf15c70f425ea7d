//go:build windows

package main

import (
	"context"
	"os/exec"
	"strings"
)

// checkDiskEncryption reports whether BitLocker protection is on for the
// system drive.
func checkDiskEncryption(ctx context.Context) bool {
	out, err := exec.CommandContext(ctx, "manage-bde", "-status", "C:").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "Protection On")
}

// checkSleepCompliance reads the AC standby timeout from powercfg.
func checkSleepCompliance(ctx context.Context) bool {
	out, err := exec.CommandContext(ctx, "powercfg", "/q").Output()
	if err != nil {
		return false
	}
	seconds, ok := parsePowercfgStandby(string(out))
	if !ok {
		return false
	}
	return sleepMinutesCompliant(seconds / 60)
}
