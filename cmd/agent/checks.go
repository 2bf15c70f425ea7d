package main

import (
	"strconv"
	"strings"
)

// maxSleepMinutes is the longest inactivity-sleep timeout that still counts
// as compliant.
const maxSleepMinutes = 10

// antivirusProcessNames are process-name fragments of common antivirus
// daemons, matched case-insensitively against the process table.
var antivirusProcessNames = []string{
	"MsMpEng",  // Windows Defender
	"avgsvc",   // AVG
	"avguard",  // Avira
	"bdagent",  // Bitdefender
	"clamd",    // ClamAV
	"XProtect", // macOS built-in
	"Sophos",
	"Avast",
}

// sleepMinutesCompliant reports whether an inactivity sleep timeout passes
// policy: sleep must be enabled and kick in within maxSleepMinutes.
func sleepMinutesCompliant(minutes int) bool {
	return minutes > 0 && minutes <= maxSleepMinutes
}

// matchesAntivirus reports whether any running process name contains a known
// antivirus daemon name.
func matchesAntivirus(processNames []string) bool {
	for _, name := range processNames {
		lower := strings.ToLower(name)
		for _, av := range antivirusProcessNames {
			if strings.Contains(lower, strings.ToLower(av)) {
				return true
			}
		}
	}
	return false
}

// parsePmsetSleep extracts the system sleep timeout in minutes from
// `pmset -g` output. Lines like "displaysleep" and "disksleep" are distinct
// settings and are skipped.
func parsePmsetSleep(output string) (minutes int, ok bool) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "sleep" {
			continue
		}
		m, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, false
		}
		return m, true
	}
	return 0, false
}

// parsePowercfgStandby extracts the AC standby timeout in seconds from
// `powercfg /q` output: the hex "Current AC Power Setting Index" inside the
// STANDBYIDLE setting of the sleep subgroup.
func parsePowercfgStandby(output string) (seconds int, ok bool) {
	inStandby := false
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "STANDBYIDLE") || strings.Contains(line, "(Sleep after)") {
			inStandby = true
			continue
		}
		if !inStandby {
			continue
		}
		if strings.Contains(line, "Current AC Power Setting Index") {
			fields := strings.Fields(line)
			if len(fields) == 0 {
				return 0, false
			}
			hexVal := strings.TrimPrefix(fields[len(fields)-1], "0x")
			v, err := strconv.ParseInt(hexVal, 16, 64)
			if err != nil {
				return 0, false
			}
			return int(v), true
		}
		// A new subgroup or setting ends the STANDBYIDLE block.
		if strings.Contains(line, "Subgroup GUID") || strings.Contains(line, "Power Setting GUID") {
			inStandby = false
		}
	}
	return 0, false
}
