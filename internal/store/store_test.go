package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both implementations must satisfy the same merge/get/scan contract.
func TestSQLiteStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		t.Helper()
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "fleet.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		t.Helper()
		return NewMemoryStore()
	})
}

func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("merge creates record", func(t *testing.T) {
		s := newStore(t)
		ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

		err := s.MergeMachine(ctx, "m1", map[string]any{
			FieldOS:        "linux",
			FieldLastSeen:  ts,
			"is_encrypted": true,
		})
		require.NoError(t, err)

		rec, err := s.GetMachine(ctx, "m1")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "m1", rec.ID)
		assert.Equal(t, "linux", rec.OS)
		assert.True(t, rec.LastSeen.Equal(ts))
		assert.Equal(t, true, rec.Info["is_encrypted"])
	})

	t.Run("merge preserves omitted fields", func(t *testing.T) {
		s := newStore(t)
		base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

		require.NoError(t, s.MergeMachine(ctx, "m1", map[string]any{
			FieldOS:        "linux",
			FieldLastSeen:  base,
			"is_encrypted": true,
		}))
		require.NoError(t, s.MergeMachine(ctx, "m1", map[string]any{
			FieldOS:                "linux",
			FieldLastSeen:          base.Add(time.Minute),
			"is_antivirus_running": true,
		}))

		rec, err := s.GetMachine(ctx, "m1")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, true, rec.Info["is_encrypted"], "omitted field must survive the second merge")
		assert.Equal(t, true, rec.Info["is_antivirus_running"])
		assert.True(t, rec.LastSeen.Equal(base.Add(time.Minute)))
	})

	t.Run("last writer wins per field", func(t *testing.T) {
		s := newStore(t)
		base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

		require.NoError(t, s.MergeMachine(ctx, "m1", map[string]any{
			FieldOS:        "linux",
			FieldLastSeen:  base,
			"is_encrypted": true,
		}))
		require.NoError(t, s.MergeMachine(ctx, "m1", map[string]any{
			FieldOS:        "linux",
			FieldLastSeen:  base.Add(time.Second),
			"is_encrypted": false,
		}))

		rec, err := s.GetMachine(ctx, "m1")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, false, rec.Info["is_encrypted"])
	})

	t.Run("list ordered by last_seen descending", func(t *testing.T) {
		s := newStore(t)
		base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

		for i, id := range []string{"old", "mid", "new"} {
			require.NoError(t, s.MergeMachine(ctx, id, map[string]any{
				FieldOS:       "linux",
				FieldLastSeen: base.Add(time.Duration(i) * time.Hour),
			}))
		}

		machines, err := s.ListMachines(ctx)
		require.NoError(t, err)
		require.Len(t, machines, 3)
		assert.Equal(t, "new", machines[0].ID)
		assert.Equal(t, "mid", machines[1].ID)
		assert.Equal(t, "old", machines[2].ID)
	})

	t.Run("empty fleet lists empty", func(t *testing.T) {
		s := newStore(t)
		machines, err := s.ListMachines(ctx)
		require.NoError(t, err)
		assert.Empty(t, machines)
	})

	t.Run("get unknown machine", func(t *testing.T) {
		s := newStore(t)
		rec, err := s.GetMachine(ctx, "never-seen")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("merge document requires os and last_seen", func(t *testing.T) {
		s := newStore(t)
		err := s.MergeMachine(ctx, "m1", map[string]any{"is_encrypted": true})
		assert.Error(t, err)

		rec, err := s.GetMachine(ctx, "m1")
		require.NoError(t, err)
		assert.Nil(t, rec, "failed merge must not create a record")
	})

	t.Run("string and number fields round-trip", func(t *testing.T) {
		s := newStore(t)
		ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

		require.NoError(t, s.MergeMachine(ctx, "m1", map[string]any{
			FieldOS:          "darwin",
			FieldLastSeen:    ts,
			"os_version":     "macOS 15.2",
			"uptime_seconds": float64(4200),
		}))

		rec, err := s.GetMachine(ctx, "m1")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "macOS 15.2", rec.Info["os_version"])
		assert.Equal(t, float64(4200), rec.Info["uptime_seconds"])
	})
}

func TestMachineRecordJSONFlattening(t *testing.T) {
	rec := &MachineRecord{
		ID:       "abc",
		OS:       "Windows",
		LastSeen: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Info: map[string]any{
			"is_encrypted": true,
			"os_version":   "Windows 11",
			// A smuggled id must not shadow the store-assigned key.
			"id": "evil",
		},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "abc", doc["id"])
	assert.Equal(t, "Windows", doc["os"])
	assert.Equal(t, true, doc["is_encrypted"])
	assert.Equal(t, "Windows 11", doc["os_version"])
	assert.Equal(t, "2026-08-30T12:00:00.000000000Z", doc["last_seen"])
}
