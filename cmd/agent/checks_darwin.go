//go:build darwin

package main

import (
	"context"
	"os/exec"
	"strings"
)

// checkDiskEncryption reports whether FileVault is enabled.
func checkDiskEncryption(ctx context.Context) bool {
	out, err := exec.CommandContext(ctx, "fdesetup", "status").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "FileVault is On.")
}

// checkSleepCompliance reads the system sleep timeout from pmset.
func checkSleepCompliance(ctx context.Context) bool {
	out, err := exec.CommandContext(ctx, "pmset", "-g").Output()
	if err != nil {
		return false
	}
	minutes, ok := parsePmsetSleep(string(out))
	return ok && sleepMinutesCompliant(minutes)
}
