// Package fleet implements the compliance reporting core: report validation
// and ingestion, fleet-wide queries, and compliance derivation. It holds no
// state between calls; the injected store owns all durable data.
package fleet

import "fmt"

// Report is the payload an endpoint agent POSTs to /api/report.
// SystemInfo is schema-less on purpose: agents may send fields this server
// has never heard of, and they are stored verbatim.
type Report struct {
	MachineID  string         `json:"machine_id"`
	OS         string         `json:"os"`
	SystemInfo map[string]any `json:"system_info"`
}

// ValidationError marks a report the client got wrong. Handlers map it to a
// 400; everything else coming out of Ingest is a store failure (500).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid report: " + e.Reason }

// Validate checks the report envelope and restricts system_info values to the
// closed variant bool | string | number. Nested objects, arrays, and nulls
// are rejected rather than written into the store.
func (r *Report) Validate() error {
	if r.MachineID == "" {
		return &ValidationError{Reason: "machine_id is required"}
	}
	if r.OS == "" {
		return &ValidationError{Reason: "os is required"}
	}
	if r.SystemInfo == nil {
		return &ValidationError{Reason: "system_info is required"}
	}
	for k, v := range r.SystemInfo {
		switch v.(type) {
		case bool, string, float64, int, int64:
		default:
			return &ValidationError{Reason: fmt.Sprintf("system_info field %q has unsupported value type %T", k, v)}
		}
	}
	return nil
}
