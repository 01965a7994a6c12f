package db2023

import (
	"encoding/binary"
	"fmt"
)

// ProduceFunc fills in a record that arrives pre-stamped with the next
// uid. Returning true writes the record and asks for another; returning
// false ends the batch without writing the offered record.
type ProduceFunc[R any] func(rec *R) bool

// appendBatch tracks one append run so its finalizer can run exactly
// once however the loop exits.
type appendBatch[R any] struct {
	db          *DB[R]
	oldRowCount uint32
	newRowCount uint32
	done        bool
}

// Append runs a batch append loop: peek the next uid, offer a stamped
// record to produce, and on confirmation write it and commit the uid.
// Producing false is the normal termination path, not an error.
//
// If a write fails mid-batch, a header reflecting only the rows durably
// written so far is persisted before the error is returned; the header
// never overstates content. After any batch that appended rows, the
// header is persisted, the row count is re-derived from the file size
// and checked, and a full rescan rebuilds the uid index.
func (d *DB[R]) Append(produce ProduceFunc[R]) (err error) {
	if d.file == nil {
		return ErrClosed
	}
	if !d.scanComplete {
		// The last scan was cut short by its callback; rebuild the index
		// and counter before assigning any uids.
		if err := d.readAll(nil, true, false); err != nil {
			return err
		}
	}

	b := &appendBatch[R]{db: d, oldRowCount: d.rowCount, newRowCount: d.rowCount}
	defer func() {
		if ferr := b.finish(); ferr != nil && err == nil {
			err = ferr
		}
	}()

	buf := make([]byte, d.recordSize)
	for {
		var rec R
		*baseOf(&rec) = RecordBase{UID: d.uids.peek()}
		if !produce(&rec) {
			return nil
		}
		if _, err := binary.Encode(buf, binary.NativeEndian, &rec); err != nil {
			return fmt.Errorf("cannot encode record: %w", err)
		}
		if _, werr := d.file.WriteAt(buf, d.rowOffset(RowIndex(b.newRowCount))); werr != nil {
			return fmt.Errorf("cannot write row %d to %s: %w", b.newRowCount, d.path, werr)
		}
		d.uids.commit()
		b.newRowCount++
	}
}

// finish persists the header for the rows actually written and rebuilds
// the uid index over them. A batch that wrote nothing is a no-op.
func (b *appendBatch[R]) finish() error {
	if b.done {
		return nil
	}
	b.done = true
	if b.newRowCount == b.oldRowCount {
		return nil
	}

	d := b.db
	if err := d.writeHeader(b.newRowCount); err != nil {
		return err
	}
	computed, err := d.calcRowCount()
	if err != nil {
		return err
	}
	if computed != d.rowCount {
		return fmt.Errorf("%s: %w: header says %d, file size implies %d after append",
			d.path, ErrBadRowCount, d.rowCount, computed)
	}

	d.logger.Sugar().With(
		"path", d.path,
		"rows_added", b.newRowCount-b.oldRowCount,
		"row_count", d.rowCount,
	).Debug("append batch committed")

	return d.readAll(nil, true, false)
}
