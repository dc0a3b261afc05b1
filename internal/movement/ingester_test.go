package movement

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwatch/railwatch/internal/store"
)

func newTestIngester(t *testing.T) (*Ingester, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewIngester(st), st
}

func TestHandleFrame_StoresMovementReports(t *testing.T) {
	in, st := newTestIngester(t)
	ctx := context.Background()

	body := []byte(`[
		{"header": {"msg_type": "0001"}, "body": {"train_id": "521A23MW30", "toc_id": "25", "actual_timestamp": "1469712080000"}},
		{"header": {"msg_type": "0003"}, "body": {"train_id": "521A23MW30", "toc_id": "25", "actual_timestamp": "1469712090000"}},
		{"header": {"msg_type": "0003"}, "body": {"train_id": "872C45XB01", "toc_id": "30", "actual_timestamp": "1469712100000"}}
	]`)
	require.NoError(t, in.HandleFrame(ctx, body))

	// Only the two actual-movement reports are stored.
	n, err := st.CountMovements(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHandleFrame_MalformedFrame(t *testing.T) {
	in, st := newTestIngester(t)
	ctx := context.Background()

	assert.Error(t, in.HandleFrame(ctx, []byte(`not json`)))

	// Unusable rows within a valid frame are skipped, not fatal.
	body := []byte(`[
		{"header": {"msg_type": "0003"}, "body": {"train_id": "1", "toc_id": "25", "actual_timestamp": "1000"}},
		{"header": {"msg_type": "0003"}, "body": {"train_id": "521A23MW30", "toc_id": "25", "actual_timestamp": "nope"}}
	]`)
	require.NoError(t, in.HandleFrame(ctx, body))
	n, err := st.CountMovements(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestToMovement_DerivesHeadcode(t *testing.T) {
	var m mvtMessage
	m.Header.MsgType = "0003"
	m.Body.TrainID = "521A23MW30"
	m.Body.TOCID = "25"
	m.Body.ActualTimestamp = "1469712090000"

	mv, ok := toMovement(m)
	require.True(t, ok)
	assert.Equal(t, "1A23", mv.Headcode)
	require.NotNil(t, mv.SectorCode)
	assert.Equal(t, 25, *mv.SectorCode)
	assert.Equal(t, int64(1469712090000), mv.RecordedAt)
}

func TestToMovement_UnparsableOperatorCodeIsNil(t *testing.T) {
	var m mvtMessage
	m.Header.MsgType = "0003"
	m.Body.TrainID = "521A23MW30"
	m.Body.TOCID = "??"
	m.Body.ActualTimestamp = "1469712090000"

	mv, ok := toMovement(m)
	require.True(t, ok)
	assert.Nil(t, mv.SectorCode)
}
