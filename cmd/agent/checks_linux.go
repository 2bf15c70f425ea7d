//go:build linux

package main

import (
	"context"
	"os/exec"
	"strings"
)

// checkDiskEncryption reports whether any block device is dm-crypt/LUKS
// backed.
func checkDiskEncryption(ctx context.Context) bool {
	out, err := exec.CommandContext(ctx, "lsblk", "-rno", "TYPE").Output()
	if err != nil {
		return false
	}
	for _, t := range strings.Fields(string(out)) {
		if t == "crypt" {
			return true
		}
	}
	return false
}

// checkSleepCompliance has no uniform source on Linux: sleep policy lives in
// the desktop environment, not the base system. Unknown counts as
// non-compliant rather than passing silently.
func checkSleepCompliance(_ context.Context) bool {
	return false
}
