package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsight/fleetsight/internal/store"
)

func newTestServer(t *testing.T, db store.Store) *httptest.Server {
	t.Helper()
	srv := NewServer(db, "", zerolog.Nop())
	mux := http.NewServeMux()
	srv.routes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func postReport(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/report", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func getMachines(t *testing.T, ts *httptest.Server) (*http.Response, []map[string]any) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/api/machines")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var machines []map[string]any
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&machines))
	}
	return resp, machines
}

func TestReportThenListEndToEnd(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	resp := postReport(t, ts, `{
		"machine_id": "abc",
		"os": "Windows",
		"system_info": {
			"is_encrypted": false,
			"is_antivirus_running": true,
			"sleep_minutes_compliant": true
		}
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	listResp, machines := getMachines(t, ts)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	assert.Equal(t, "application/json", listResp.Header.Get("Content-Type"))
	require.Len(t, machines, 1)
	assert.Equal(t, "abc", machines[0]["id"])
	assert.Equal(t, "Windows", machines[0]["os"])
	assert.Equal(t, false, machines[0]["is_encrypted"])
	assert.Equal(t, true, machines[0]["is_antivirus_running"])
	assert.NotEmpty(t, machines[0]["last_seen"])

	sumResp, err := http.Get(ts.URL + "/api/summary")
	require.NoError(t, err)
	defer sumResp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, sumResp.StatusCode)

	var summary map[string]int
	require.NoError(t, json.NewDecoder(sumResp.Body).Decode(&summary))
	assert.Equal(t, 1, summary["total_machines"])
	assert.Equal(t, 1, summary["machines_with_issues"], "encryption off must count as an issue")
}

func TestReportValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing machine_id", `{"os":"linux","system_info":{}}`},
		{"missing os", `{"machine_id":"m1","system_info":{}}`},
		{"missing system_info", `{"machine_id":"m1","os":"linux"}`},
		{"not json", `not json at all`},
		{"nested system_info value", `{"machine_id":"m1","os":"linux","system_info":{"x":{"y":1}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := store.NewMemoryStore()
			ts := newTestServer(t, db)

			resp := postReport(t, ts, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			machines, err := db.ListMachines(context.Background())
			require.NoError(t, err)
			assert.Empty(t, machines, "rejected report must not write")
		})
	}
}

func TestReportMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())
	resp, err := http.Get(ts.URL + "/api/report")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMachinesEmptyFleet(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())
	resp, machines := getMachines(t, ts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, machines)
	assert.Empty(t, machines)
}

func TestMachinesOrderedByLastSeen(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	// Reports arrive in this order, so listing must reverse it.
	for _, id := range []string{"first", "second", "third"} {
		resp := postReport(t, ts, `{"machine_id":"`+id+`","os":"linux","system_info":{}}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	_, machines := getMachines(t, ts)
	require.Len(t, machines, 3)
	assert.Equal(t, "third", machines[0]["id"])
	assert.Equal(t, "first", machines[2]["id"])
}

func TestPartialReportsMergeAcrossRequests(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())

	postReport(t, ts, `{"machine_id":"m1","os":"linux","system_info":{"is_encrypted":true}}`)
	postReport(t, ts, `{"machine_id":"m1","os":"linux","system_info":{"is_antivirus_running":true}}`)

	_, machines := getMachines(t, ts)
	require.Len(t, machines, 1)
	assert.Equal(t, true, machines[0]["is_encrypted"])
	assert.Equal(t, true, machines[0]["is_antivirus_running"])
}

func TestStoreFailureMapsTo500(t *testing.T) {
	ts := newTestServer(t, failingStore{})

	resp := postReport(t, ts, `{"machine_id":"m1","os":"linux","system_info":{}}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	listResp, _ := getMachines(t, ts)
	assert.Equal(t, http.StatusInternalServerError, listResp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, store.NewMemoryStore())
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// failingStore stands in for an unavailable database.
type failingStore struct{}

var errStoreDown = errors.New("store unavailable")

func (failingStore) MergeMachine(context.Context, string, map[string]any) error { return errStoreDown }
func (failingStore) GetMachine(context.Context, string) (*store.MachineRecord, error) {
	return nil, errStoreDown
}
func (failingStore) ListMachines(context.Context) ([]*store.MachineRecord, error) {
	return nil, errStoreDown
}
func (failingStore) Close() error { return nil }
