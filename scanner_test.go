package db2023

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUntil_BoundedByRowCount(t *testing.T) {
	t.Parallel()

	path := testPath(t)
	db, err := Open[testRec](path, nil)
	require.NoError(t, err)
	defer db.Close()
	appendN(t, db, 10)

	// A callback that never stops still terminates at the last row.
	calls := 0
	err = db.ReadUntil(4, func(r *testRec) bool {
		calls++
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 6, calls)
}

func TestReadUntil_CallbackStops(t *testing.T) {
	t.Parallel()

	path := testPath(t)
	db, err := Open[testRec](path, nil)
	require.NoError(t, err)
	defer db.Close()
	appendN(t, db, 10)

	var uids []UID
	err = db.ReadUntil(0, func(r *testRec) bool {
		uids = append(uids, r.UID)
		return len(uids) < 3
	})
	require.NoError(t, err)
	assert.Equal(t, []UID{1, 2, 3}, uids)
}

func TestReadUntil_StartBeyondEnd(t *testing.T) {
	t.Parallel()

	path := testPath(t)
	db, err := Open[testRec](path, nil)
	require.NoError(t, err)
	defer db.Close()
	appendN(t, db, 3)

	calls := 0
	err = db.ReadUntil(50, func(r *testRec) bool {
		calls++
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
}

func TestScan_UIDGapMarksInconsistent(t *testing.T) {
	t.Parallel()

	path := testPath(t)
	db, err := Open[testRec](path, nil)
	require.NoError(t, err)
	appendN(t, db, 5)
	require.NoError(t, db.Close())

	// Push row 2 far beyond the dense range; the scan must grow its
	// index, flag the state and reseed the counter from the new maximum.
	setRowUID(t, path, testRecSize, 2, 200)

	db, err = Open[testRec](path, nil)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, StateUIDsInconsistent, db.State())

	row, err := db.RowIndexFromUID(200)
	require.NoError(t, err)
	assert.Equal(t, RowIndex(2), row)

	// The old uid 3 no longer maps to any row.
	_, err = db.RowIndexFromUID(3)
	require.ErrorIs(t, err, ErrUIDNotFound)

	// New uids continue above the highest observed, not the row count.
	appendN(t, db, 1)
	row, err = db.RowIndexFromUID(201)
	require.NoError(t, err)
	assert.Equal(t, RowIndex(5), row)
	assert.Equal(t, uint32(6), db.RowCount())
}
