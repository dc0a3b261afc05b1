package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwatch/railwatch/internal/store"
)

type staticHeartbeats map[string]int64

func (h staticHeartbeats) Heartbeats() map[string]int64 { return h }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedPositions(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()

	for _, b := range []struct {
		code     string
		lat, lon float64
	}{
		{"T101", 51.5, -0.25},
		{"T102", 52, 0.125},
	} {
		lat, lon := b.lat, b.lon
		require.NoError(t, st.UpsertBerth(ctx, store.Berth{
			Area: "EA", Code: b.code, Latitude: &lat, Longitude: &lon,
		}))
	}
	b1, _, err := st.LookupBerth(ctx, "EA", "T101")
	require.NoError(t, err)
	b2, _, err := st.LookupBerth(ctx, "EA", "T102")
	require.NoError(t, err)

	require.NoError(t, st.Transact(ctx, func(tx *store.Tx) error {
		if err := tx.InsertTrain(ctx, store.Train{
			ID: "ep-a", Area: "EA", Code: "1A23", BerthID: b1.ID, Active: true, LastSeen: 1000000,
		}); err != nil {
			return err
		}
		return tx.InsertTrain(ctx, store.Train{
			ID: "ep-b", Area: "EA", Code: "2C45", BerthID: b2.ID, Active: true, LastSeen: 2000000,
		})
	}))
}

func TestGetTrains_Golden(t *testing.T) {
	st := newTestStore(t)
	seedPositions(t, st)

	srv := httptest.NewServer(NewHandler(st, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/get_trains")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "get_trains", body)
}

func TestGetTrains_EmptyStore(t *testing.T) {
	st := newTestStore(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/get_trains", nil)
	NewHandler(st, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String(), "empty picture must be an empty array, not null")
}

func TestHealth_ReportsFeedLiveness(t *testing.T) {
	st := newTestStore(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	NewHandler(st, staticHeartbeats{"EA": 1469712110000}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var h struct {
		Status string           `json:"status"`
		Areas  map[string]int64 `json:"areas"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, int64(1469712110), h.Areas["EA"])
}
