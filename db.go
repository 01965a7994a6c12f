package db2023

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// DBFile is the file handle the engine operates on. *os.File satisfies
// it; tests may substitute fault-injecting implementations.
type DBFile interface {
	io.ReadSeeker
	io.ReaderAt
	io.WriterAt
	io.Closer
}

// State reports what the last full scan concluded about the uid
// sequence. It is informational and does not block operation.
type State uint8

const (
	// StateAllOK means the last full scan saw no uid anomalies.
	StateAllOK State = iota
	// StateUIDsInconsistent means the last full scan saw a uid beyond
	// the index bounds (a gap or out-of-order growth).
	StateUIDsInconsistent
)

func (s State) String() string {
	switch s {
	case StateAllOK:
		return "allOK"
	case StateUIDsInconsistent:
		return "uidsInconsistent"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// DB is an open fixed-record database bound to the record schema R.
// A DB exclusively owns its file handle and is not safe for concurrent
// use.
type DB[R any] struct {
	path       string
	file       DBFile
	hdr        Header
	recordSize uint32
	rowCount   uint32

	// uidIndex maps uid-1 to row; a derived, rebuildable cache. The
	// on-disk bytes are the source of truth.
	uidIndex     []RowIndex
	uids         uidCounter
	state        State
	scanComplete bool

	repairOnDuplicate  bool
	avoidCallbackAbort bool
	logger             *zap.Logger
}

// Open opens the database at path, creating it if absent, and performs
// the initial full scan, invoking cb once per existing record. A nil cb
// scans for state rebuilding only.
func Open[R any](path string, cb ScanFunc[R], opts ...Option) (*DB[R], error) {
	recordSize, err := recordLayout[R]()
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &DB[R]{
		path:               path,
		recordSize:         recordSize,
		repairOnDuplicate:  cfg.repairOnDuplicate,
		avoidCallbackAbort: cfg.avoidCallbackAbort,
		logger:             cfg.logger,
	}

	if err := d.open(false); err != nil {
		if d.file != nil {
			d.file.Close()
		}
		return nil, err
	}

	if err := d.readAll(cb, d.avoidCallbackAbort, false); err != nil {
		d.file.Close()
		return nil, err
	}

	d.logger.Sugar().With(
		"path", d.path,
		"row_count", d.rowCount,
		"record_size", d.recordSize,
		"state", d.state.String(),
	).Debug("opened database")

	return d, nil
}

// open creates the file if absent, then validates the header. A fresh
// file gets a zero-row header written and is reopened through the same
// validation path; finding it absent a second time means a filesystem
// race or an unwritable path and is fatal.
func (d *DB[R]) open(recursed bool) error {
	existed, err := fileExists(d.path)
	if err != nil {
		return fmt.Errorf("cannot stat db at %s: %w", d.path, err)
	}

	if d.file != nil {
		if err := d.file.Close(); err != nil {
			return fmt.Errorf("cannot close db at %s: %w", d.path, err)
		}
		d.file = nil
	}

	f, err := os.OpenFile(d.path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("cannot open db at %s: %w", d.path, err)
	}
	d.file = f

	if existed {
		return d.readHeader()
	}
	if recursed {
		return fmt.Errorf("unable to open freshly created db at %s", d.path)
	}

	if err := d.writeHeader(0); err != nil {
		return err
	}
	// Never trust a just-written header; re-read it through the normal
	// validation path.
	return d.open(true)
}

func (d *DB[R]) readHeader() error {
	buf := make([]byte, HeaderSize)
	if _, err := d.file.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("cannot read header in %s: %w", d.path, err)
	}
	d.hdr.Unmarshal(buf)

	if d.hdr.Magic != Magic {
		return fmt.Errorf("%s: %w: %d", d.path, ErrBadMagic, d.hdr.Magic)
	}
	if d.hdr.Reserved != 0 {
		return fmt.Errorf("%s: %w: %d", d.path, ErrBadReserved, d.hdr.Reserved)
	}
	if d.hdr.Version != Version {
		return fmt.Errorf("%s: %w: %d", d.path, ErrBadVersion, d.hdr.Version)
	}
	computed, err := d.calcRowCount()
	if err != nil {
		return err
	}
	if d.hdr.RowCount != computed {
		return fmt.Errorf("%s: %w: header says %d, file size implies %d",
			d.path, ErrBadRowCount, d.hdr.RowCount, computed)
	}
	d.rowCount = computed
	if d.hdr.RecordSize != d.recordSize {
		return fmt.Errorf("%s: %w: file has %dB records, schema is %dB",
			d.path, ErrBadRecordSize, d.hdr.RecordSize, d.recordSize)
	}
	return nil
}

// writeHeader overwrites only the header region, as a single contiguous
// write, and updates the in-memory row count to match.
func (d *DB[R]) writeHeader(rowCount uint32) error {
	d.rowCount = rowCount
	d.hdr = Header{
		Magic:      Magic,
		Version:    Version,
		RowCount:   rowCount,
		RecordSize: d.recordSize,
	}
	buf := make([]byte, HeaderSize)
	d.hdr.Marshal(buf)
	if _, err := d.file.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("cannot write header to %s: %w", d.path, err)
	}
	return nil
}

// calcRowCount derives the row count from the file size, the source of
// truth the stored header value is checked against.
func (d *DB[R]) calcRowCount() (uint32, error) {
	size, err := d.fileSize()
	if err != nil {
		return 0, err
	}
	if size <= HeaderSize {
		return 0, nil
	}
	data := size - HeaderSize
	if rem := data % int64(d.recordSize); rem != 0 {
		return 0, fmt.Errorf("%s: %w: %d stray trailing bytes", d.path, ErrSizeCorrupt, rem)
	}
	return uint32(data / int64(d.recordSize)), nil
}

func (d *DB[R]) fileSize() (int64, error) {
	size, err := d.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("cannot seek to end of %s: %w", d.path, err)
	}
	return size, nil
}

func (d *DB[R]) rowOffset(row RowIndex) int64 {
	return HeaderSize + int64(row)*int64(d.recordSize)
}

// RowIndexFromUID resolves a uid to its row in O(1).
func (d *DB[R]) RowIndexFromUID(uid UID) (RowIndex, error) {
	if uid == InvalidUID {
		return InvalidRow, fmt.Errorf("%w: uid 0 is reserved", ErrInvalidUID)
	}
	slot := int(uid) - 1
	if slot >= len(d.uidIndex) {
		return InvalidRow, fmt.Errorf("%w: uid %d out of range", ErrInvalidUID, uid)
	}
	row := d.uidIndex[slot]
	if row == InvalidRow {
		return InvalidRow, fmt.Errorf("%w: %d", ErrUIDNotFound, uid)
	}
	return row, nil
}

// RowCount returns the number of records on disk.
func (d *DB[R]) RowCount() uint32 { return d.rowCount }

// State reports the uid consistency conclusion of the last full scan.
func (d *DB[R]) State() State { return d.state }

// Path returns the database file path; empty after Close.
func (d *DB[R]) Path() string { return d.path }

// Close releases the file handle and resets all in-memory state.
func (d *DB[R]) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	d.path = ""
	d.rowCount = 0
	d.uidIndex = nil
	d.uids.reset(0)
	d.state = StateAllOK
	d.scanComplete = false
	if err != nil {
		return fmt.Errorf("cannot close db: %w", err)
	}
	return nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
