package db2023

import (
	"encoding/binary"
	"fmt"
)

// repairUIDs renumbers every row so uids are exactly the dense sequence
// 1..rowCount. This deliberately sacrifices any meaning prior
// non-colliding uids carried in exchange for guaranteed density.
//
// Pass one scans the whole file for the highest uid present, however
// corrupt, bounding the index the follow-up rescan rebuilds. Pass two
// rewrites any row whose uid differs from its row position + 1,
// persisting each fix before advancing; the record payload is left
// untouched.
func (d *DB[R]) repairUIDs() error {
	var (
		buf    = make([]byte, d.recordSize)
		rec    R
		maxUID UID
	)
	for row := RowIndex(0); row < RowIndex(d.rowCount); row++ {
		if err := d.readRecordAt(row, buf, &rec); err != nil {
			return err
		}
		if uid := baseOf(&rec).UID; uid > maxUID {
			maxUID = uid
		}
	}

	d.logger.Sugar().With(
		"path", d.path,
		"row_count", d.rowCount,
		"max_uid", maxUID,
	).Warn("duplicate uids detected, renumbering all rows")

	renumbered := 0
	for row := RowIndex(0); row < RowIndex(d.rowCount); row++ {
		if err := d.readRecordAt(row, buf, &rec); err != nil {
			return err
		}
		base := baseOf(&rec)
		want := UID(row) + 1
		if base.UID == want {
			continue
		}
		base.UID = want
		if _, err := binary.Encode(buf, binary.NativeEndian, &rec); err != nil {
			return fmt.Errorf("cannot encode row %d in %s: %w", row, d.path, err)
		}
		if _, err := d.file.WriteAt(buf, d.rowOffset(row)); err != nil {
			return fmt.Errorf("cannot rewrite uid for row %d in %s: %w", row, d.path, err)
		}
		renumbered++
	}

	d.logger.Sugar().With(
		"path", d.path,
		"renumbered", renumbered,
	).Info("uid repair complete")

	return nil
}
