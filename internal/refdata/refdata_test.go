package refdata

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwatch/railwatch/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestImportBerths(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	dataset := `{
		"EA": {
			"T101": {"lat": 51.5, "lon": -0.25},
			"T102": {"lat": 51.55, "lon": -0.2}
		},
		"EB": {
			"0001": {"lat": 51.75, "lon": -0.05}
		}
	}`

	n, err := ImportBerths(ctx, st, strings.NewReader(dataset))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	b, found, err := st.LookupBerth(ctx, "EA", "T101")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, b.Located())
	assert.Equal(t, 51.5, *b.Latitude)
	assert.Equal(t, -0.25, *b.Longitude)
}

func TestImportBorders(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	dataset := `
- area: EA
  berth: B200
  neighbour: EB
  direction: out
- area: EB
  berth: "0001"
  neighbour: EA
  direction: in
`
	n, err := ImportBorders(ctx, st, strings.NewReader(dataset))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	out, found, err := st.LookupBerth(ctx, "EA", "B200")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "EB", out.BorderOut)

	in, found, err := st.LookupBerth(ctx, "EB", "0001")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "EA", in.BorderIn)
}

func TestImportBorders_RejectsUnknownDirection(t *testing.T) {
	st := newTestStore(t)

	dataset := `
- area: EA
  berth: B200
  neighbour: EB
  direction: sideways
`
	_, err := ImportBorders(context.Background(), st, strings.NewReader(dataset))
	assert.ErrorContains(t, err, "direction")
}

func TestImportOperators(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	dataset := `[
		{"operator": "Greater Anglia", "sector_code": 25, "atoc_code": "LE"},
		{"operator": "Freight", "sector_code": 30, "atoc_code": ""}
	]`

	n, err := ImportOperators(ctx, st, strings.NewReader(dataset))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	op, found, err := st.OperatorBySector(ctx, 25)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Greater Anglia", op.Name)
	assert.Equal(t, "LE", op.ATOCCode)
}
