package fleet

import "github.com/fleetsight/fleetsight/internal/store"

// Compliance check fields reported by agents.
const (
	FieldEncrypted      = "is_encrypted"
	FieldAntivirus      = "is_antivirus_running"
	FieldSleepCompliant = "sleep_minutes_compliant"
)

// Summary is the fleet-wide rollup shown at the top of the dashboard.
type Summary struct {
	TotalMachines      int `json:"total_machines"`
	MachinesWithIssues int `json:"machines_with_issues"`
}

// IsCompliant reports whether all three checks pass. A missing or non-boolean
// field counts as failing; unknown never passes.
func IsCompliant(r *store.MachineRecord) bool {
	return r.Bool(FieldEncrypted) && r.Bool(FieldAntivirus) && r.Bool(FieldSleepCompliant)
}

// CountIssues returns how many machines fail at least one check.
func CountIssues(machines []*store.MachineRecord) int {
	n := 0
	for _, m := range machines {
		if !IsCompliant(m) {
			n++
		}
	}
	return n
}

// TotalCount returns the fleet size.
func TotalCount(machines []*store.MachineRecord) int { return len(machines) }
