package db2023

import (
	"errors"
)

var (
	// ErrBadMagic is returned when the header magic does not match.
	ErrBadMagic = errors.New("header: bad magic")
	// ErrBadVersion is returned for any format version other than 1.
	ErrBadVersion = errors.New("header: bad version")
	// ErrBadReserved is returned when the header reserved field is not zero.
	ErrBadReserved = errors.New("header: bad reserved")
	// ErrBadRowCount is returned when the stored row count disagrees with
	// the row count computed from the file size.
	ErrBadRowCount = errors.New("header: bad row count")
	// ErrBadRecordSize is returned when the stored record size disagrees
	// with the caller schema's record size.
	ErrBadRecordSize = errors.New("header: bad record size")

	// ErrSizeCorrupt is returned when the data region length is not a
	// whole multiple of the record size (a torn trailing record).
	ErrSizeCorrupt = errors.New("file size is not a whole number of records")

	// ErrDuplicateUID is returned when a scan finds two rows sharing a
	// uid and repair was not requested via WithRepair.
	ErrDuplicateUID = errors.New("duplicate uid, reopen with WithRepair to renumber")
	// ErrRepairFailed is returned when duplicates persist after a repair
	// pass. Repair is one-shot; it is never retried.
	ErrRepairFailed = errors.New("repair did not converge, duplicate uids persist")

	// ErrInvalidUID is returned for uid 0 or a uid beyond the index bounds.
	ErrInvalidUID = errors.New("invalid uid")
	// ErrUIDNotFound is returned when no row maps to an in-bounds uid.
	ErrUIDNotFound = errors.New("no row for uid")

	// ErrBadSchema is returned at construction when the record type is
	// not a flat fixed-size struct leading with RecordBase.
	ErrBadSchema = errors.New("unsupported record schema")

	// ErrClosed is returned for operations on a closed DB.
	ErrClosed = errors.New("db is closed")
)
