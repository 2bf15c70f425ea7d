package fleet

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsight/fleetsight/internal/store"
)

func TestQueryListEmptyFleet(t *testing.T) {
	q := NewQuery(store.NewMemoryStore(), zerolog.Nop())

	machines, err := q.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, machines)
	assert.Empty(t, machines)
}

func TestQueryListFailureIsAllOrNothing(t *testing.T) {
	q := NewQuery(failingStore{}, zerolog.Nop())

	machines, err := q.List(context.Background())
	require.Error(t, err)
	assert.Nil(t, machines)
}

func TestQuerySummary(t *testing.T) {
	s := store.NewMemoryStore()
	in := newTestIngestor(s)
	ctx := context.Background()

	require.NoError(t, in.Ingest(ctx, Report{
		MachineID: "good", OS: "linux",
		SystemInfo: map[string]any{
			FieldEncrypted: true, FieldAntivirus: true, FieldSleepCompliant: true,
		},
	}))
	require.NoError(t, in.Ingest(ctx, Report{
		MachineID: "bad", OS: "linux",
		SystemInfo: map[string]any{
			FieldEncrypted: false, FieldAntivirus: true, FieldSleepCompliant: true,
		},
	}))

	sum, err := NewQuery(s, zerolog.Nop()).Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{TotalMachines: 2, MachinesWithIssues: 1}, sum)
}
