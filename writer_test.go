package db2023

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_AssignsSequentialUIDs(t *testing.T) {
	t.Parallel()

	path := testPath(t)
	db, err := Open[testRec](path, nil)
	require.NoError(t, err)
	defer db.Close()

	appendN(t, db, 100)
	assert.Equal(t, uint32(100), db.RowCount())

	var uids []UID
	err = db.ReadUntil(0, func(r *testRec) bool {
		uids = append(uids, r.UID)
		return true
	})
	require.NoError(t, err)
	require.Len(t, uids, 100)
	for i, uid := range uids {
		assert.Equal(t, UID(i+1), uid)
	}
}

func TestAppend_RoundTrip(t *testing.T) {
	t.Parallel()

	path := testPath(t)
	db, err := Open[testRec](path, nil)
	require.NoError(t, err)
	labels := appendN(t, db, 25)
	require.NoError(t, db.Close())

	var reread []string
	db, err = Open[testRec](path, func(r *testRec) bool {
		reread = append(reread, labelOf(r))
		return true
	})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, uint32(25), db.RowCount())
	assert.Equal(t, labels, reread)
}

func TestAppend_SecondBatchContinuesUIDs(t *testing.T) {
	t.Parallel()

	path := testPath(t)
	db, err := Open[testRec](path, nil)
	require.NoError(t, err)
	appendN(t, db, 100)
	require.NoError(t, db.Close())

	db, err = Open[testRec](path, nil)
	require.NoError(t, err)
	defer db.Close()

	appendN(t, db, 10)
	assert.Equal(t, uint32(110), db.RowCount())

	row, err := db.RowIndexFromUID(110)
	require.NoError(t, err)
	assert.Equal(t, RowIndex(109), row)
}

func TestAppend_ProducerStopsImmediately(t *testing.T) {
	t.Parallel()

	path := testPath(t)
	db, err := Open[testRec](path, nil)
	require.NoError(t, err)
	appendN(t, db, 5)

	// Stopping on the first offer is the normal termination path and
	// leaves the file untouched.
	err = db.Append(func(r *testRec) bool { return false })
	require.NoError(t, err)
	assert.Equal(t, uint32(5), db.RowCount())
	require.NoError(t, db.Close())

	db, err = Open[testRec](path, nil)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, uint32(5), db.RowCount())
}

func TestAppend_ProducerSeesStampedUID(t *testing.T) {
	t.Parallel()

	path := testPath(t)
	db, err := Open[testRec](path, nil)
	require.NoError(t, err)
	defer db.Close()
	appendN(t, db, 3)

	var offered []UID
	err = db.Append(func(r *testRec) bool {
		offered = append(offered, r.UID)
		return len(offered) < 3
	})
	require.NoError(t, err)

	// Two records written, the third offer declined; the declined uid is
	// not consumed and is reused by the next batch.
	assert.Equal(t, []UID{4, 5, 6}, offered)
	assert.Equal(t, uint32(5), db.RowCount())

	err = db.Append(func(r *testRec) bool {
		assert.Equal(t, UID(6), r.UID)
		return false
	})
	require.NoError(t, err)
}

// flakyFile passes reads and header writes through but fails record
// writes once the budget is spent.
type flakyFile struct {
	DBFile
	recordWritesLeft int
}

func (f *flakyFile) WriteAt(p []byte, off int64) (int, error) {
	if off >= HeaderSize {
		if f.recordWritesLeft <= 0 {
			return 0, fmt.Errorf("disk full")
		}
		f.recordWritesLeft--
	}
	return f.DBFile.WriteAt(p, off)
}

func TestAppend_PartialWriteNeverOverstatesRowCount(t *testing.T) {
	t.Parallel()

	path := testPath(t)
	db, err := Open[testRec](path, nil)
	require.NoError(t, err)
	appendN(t, db, 4)

	// Fail the batch after three of five rows make it to disk.
	db.file = &flakyFile{DBFile: db.file, recordWritesLeft: 3}
	written := 0
	err = db.Append(func(r *testRec) bool {
		written++
		return written <= 5
	})
	require.Error(t, err)

	// The salvaged header claims exactly the durable rows.
	assert.Equal(t, uint32(7), db.RowCount())
	require.NoError(t, db.Close())

	db, err = Open[testRec](path, nil)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, uint32(7), db.RowCount())

	// Uids continue from the durable rows, not the attempted ones.
	appendN(t, db, 1)
	row, err := db.RowIndexFromUID(8)
	require.NoError(t, err)
	assert.Equal(t, RowIndex(7), row)
}

func TestAppend_AfterAbortedOpenScan(t *testing.T) {
	t.Parallel()

	path := testPath(t)
	db, err := Open[testRec](path, nil)
	require.NoError(t, err)
	appendN(t, db, 10)
	require.NoError(t, db.Close())

	// Abort the open scan after two records, then append; the writer must
	// rebuild the counter first so no uid is handed out twice.
	delivered := 0
	db, err = Open[testRec](path, func(r *testRec) bool {
		delivered++
		return delivered < 2
	})
	require.NoError(t, err)
	defer db.Close()

	appendN(t, db, 1)
	assert.Equal(t, uint32(11), db.RowCount())
	row, err := db.RowIndexFromUID(11)
	require.NoError(t, err)
	assert.Equal(t, RowIndex(10), row)
}
