package db2023

import (
	"encoding/binary"
	"fmt"
)

// ScanFunc is invoked once per record during a scan. Returning false
// stops delivery unless the scan runs in ignore-callback-result mode.
type ScanFunc[R any] func(rec *R) bool

func (d *DB[R]) readRecordAt(row RowIndex, buf []byte, rec *R) error {
	if _, err := d.file.ReadAt(buf, d.rowOffset(row)); err != nil {
		return fmt.Errorf("cannot read row %d in %s: %w", row, d.path, err)
	}
	if _, err := binary.Decode(buf, binary.NativeEndian, rec); err != nil {
		return fmt.Errorf("cannot decode row %d in %s: %w", row, d.path, err)
	}
	return nil
}

// readAll sequentially reads every row from row 0, rebuilding the uid
// index wholesale and reseeding the uid counter from the highest uid
// seen. Duplicate uids are detected in real time against the index
// being rebuilt. repairRetry marks the rescan that follows a repair
// pass; a duplicate found then means repair did not converge.
func (d *DB[R]) readAll(cb ScanFunc[R], ignoreCallbackResult, repairRetry bool) error {
	if cb == nil {
		cb = func(*R) bool { return true }
		ignoreCallbackResult = true
	}

	count := d.rowCount
	d.state = StateAllOK
	d.scanComplete = false
	d.uidIndex = make([]RowIndex, count)
	for i := range d.uidIndex {
		d.uidIndex[i] = InvalidRow
	}

	var (
		buf     = make([]byte, d.recordSize)
		rec     R
		highest UID
	)
	for row := RowIndex(0); row < RowIndex(count); row++ {
		if err := d.readRecordAt(row, buf, &rec); err != nil {
			return err
		}
		uid := baseOf(&rec).UID
		if uid == InvalidUID {
			// Uid 0 never appears on valid data; the file is garbage.
			panic(fmt.Sprintf("db2023: row %d in %s has uid 0", row, d.path))
		}
		if uid > highest {
			highest = uid
		}
		slot := int(uid) - 1
		if slot >= len(d.uidIndex) {
			// A uid beyond the index bounds means rows were written with
			// gaps or out of order. Grow and keep going, but flag it.
			grown := make([]RowIndex, slot+1)
			copy(grown, d.uidIndex)
			for i := len(d.uidIndex); i < len(grown); i++ {
				grown[i] = InvalidRow
			}
			d.uidIndex = grown
			d.state = StateUIDsInconsistent
		}
		if d.uidIndex[slot] != InvalidRow {
			return d.duplicateUID(cb, uid, row, repairRetry)
		}
		d.uidIndex[slot] = row

		if ignoreCallbackResult {
			cb(&rec)
		} else if !cb(&rec) {
			return nil
		}
	}

	d.uids.reset(highest)
	d.scanComplete = true
	return nil
}

// duplicateUID decides what a duplicate means for the scan in progress:
// non-convergence on a repair retry, a repair trigger when the caller
// opted in, or a plain failure otherwise.
func (d *DB[R]) duplicateUID(cb ScanFunc[R], uid UID, row RowIndex, repairRetry bool) error {
	if repairRetry {
		return fmt.Errorf("%s: %w: uid %d at row %d", d.path, ErrRepairFailed, uid, row)
	}
	if !d.repairOnDuplicate {
		return fmt.Errorf("%s: %w: uid %d at row %d", d.path, ErrDuplicateUID, uid, row)
	}

	if err := d.repairUIDs(); err != nil {
		return err
	}
	// Rescan over the repaired rows; callback results are ignored since
	// this pass exists to rebuild state.
	return d.readAll(cb, true, true)
}

// ReadUntil reads rows forward from startRow, invoking cb per record,
// until cb returns false or the last row is read. It is a lightweight
// peek: it does not rebuild the uid index and must not be relied on to
// establish index integrity.
func (d *DB[R]) ReadUntil(startRow RowIndex, cb ScanFunc[R]) error {
	if d.file == nil {
		return ErrClosed
	}
	var (
		buf = make([]byte, d.recordSize)
		rec R
	)
	for row := startRow; row < RowIndex(d.rowCount); row++ {
		if err := d.readRecordAt(row, buf, &rec); err != nil {
			return err
		}
		if !cb(&rec) {
			break
		}
	}
	return nil
}
