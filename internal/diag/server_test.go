package diag

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowflk/general-loader/internal/loader"
)

func TestHealthz(t *testing.T) {
	s := NewServer("", func() loader.Stats { return loader.Stats{} })
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestStats(t *testing.T) {
	s := NewServer("", func() loader.Stats {
		return loader.Stats{
			SessionID:   "abc",
			Opened:      true,
			RowsByTable: map[uint32]uint64{1: 42},
		}
	})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got loader.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "abc", got.SessionID)
	assert.True(t, got.Opened)
	assert.Equal(t, uint64(42), got.RowsByTable[1])
}

func TestStatsMethodNotAllowed(t *testing.T) {
	s := NewServer("", func() loader.Stats { return loader.Stats{} })
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/stats", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
