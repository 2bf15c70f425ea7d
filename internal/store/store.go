// Package store defines the persistence interface for machine state.
// All implementations (SQLite, in-memory) satisfy the Store interface,
// allowing the server to swap backends without changing business logic.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Reserved field names backed by dedicated columns rather than the
// schema-less remainder of a machine document.
const (
	FieldOS       = "os"
	FieldLastSeen = "last_seen"
)

// timeLayout is RFC 3339 widened to a fixed nine fractional digits so that
// the string order of stored timestamps equals their time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the persistence interface for machine compliance state.
// Implementations must be safe for concurrent use, and MergeMachine must
// apply the whole merge atomically per key: fields present in doc overwrite
// the stored value, fields absent are left untouched.
type Store interface {
	// MergeMachine upserts the document for id. doc must contain FieldOS
	// (string) and FieldLastSeen (time.Time); every other entry is merged
	// field-wise into the machine's schema-less fields.
	MergeMachine(ctx context.Context, id string, doc map[string]any) error

	// GetMachine returns the record for id, or nil if the machine has
	// never reported.
	GetMachine(ctx context.Context, id string) (*MachineRecord, error)

	// ListMachines returns every record ordered by last_seen descending.
	ListMachines(ctx context.Context) ([]*MachineRecord, error)

	// Close releases storage resources.
	Close() error
}

// MachineRecord is the persistent record for a reporting machine. Info holds
// the schema-less fields carried in agent reports; values are restricted to
// bool, string, or number.
type MachineRecord struct {
	ID       string
	OS       string
	LastSeen time.Time
	Info     map[string]any
}

// Bool returns the named Info field if it is a bool, false otherwise.
// Missing fields read as false.
func (r *MachineRecord) Bool(field string) bool {
	v, ok := r.Info[field].(bool)
	return ok && v
}

// MarshalJSON flattens Info next to the fixed fields, matching the wire shape
// consumed by the dashboard. The store-assigned id and the os/last_seen
// columns win over same-named Info keys.
func (r *MachineRecord) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(r.Info)+3)
	for k, v := range r.Info {
		doc[k] = v
	}
	doc["id"] = r.ID
	doc[FieldOS] = r.OS
	doc[FieldLastSeen] = r.LastSeen.UTC().Format(timeLayout)
	return json.Marshal(doc)
}

// splitDoc separates the column-backed fields of a merge document from the
// schema-less remainder.
func splitDoc(doc map[string]any) (osLabel string, lastSeen time.Time, info map[string]any, err error) {
	info = make(map[string]any, len(doc))
	var hasOS, hasSeen bool
	for k, v := range doc {
		switch k {
		case FieldOS:
			s, ok := v.(string)
			if !ok {
				return "", time.Time{}, nil, fmt.Errorf("merge document field %q must be a string", FieldOS)
			}
			osLabel, hasOS = s, true
		case FieldLastSeen:
			t, ok := v.(time.Time)
			if !ok {
				return "", time.Time{}, nil, fmt.Errorf("merge document field %q must be a time.Time", FieldLastSeen)
			}
			lastSeen, hasSeen = t, true
		default:
			info[k] = v
		}
	}
	if !hasOS || !hasSeen {
		return "", time.Time{}, nil, fmt.Errorf("merge document must contain %q and %q", FieldOS, FieldLastSeen)
	}
	return osLabel, lastSeen, info, nil
}
