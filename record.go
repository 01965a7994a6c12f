package db2023

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
)

// UID is a record's 1-based caller-visible identity.
type UID uint32

// InvalidUID is the reserved "no uid" value; it never appears on a
// stored record.
const InvalidUID UID = 0

// RowIndex is a record's zero-based position in the file.
type RowIndex uint32

// InvalidRow marks an index slot no row maps to.
const InvalidRow RowIndex = math.MaxUint32

// RecordBase is the mandatory identity triple every record schema must
// embed as its first field.
type RecordBase struct {
	UID      UID
	Flags    uint32
	Reserved uint32
}

// Base lets any struct embedding RecordBase satisfy Record.
func (b *RecordBase) Base() *RecordBase { return b }

// Record is satisfied by a pointer to any struct embedding RecordBase.
type Record interface {
	Base() *RecordBase
}

func baseOf[R any](rec *R) *RecordBase {
	return any(rec).(Record).Base()
}

// recordLayout validates the record schema and returns its on-disk size.
// R must be a flat fixed-size struct (no slices, strings or pointers)
// whose first field is RecordBase, so the identity triple leads every
// stored record.
func recordLayout[R any]() (uint32, error) {
	var rec R
	if _, ok := any(&rec).(Record); !ok {
		return 0, fmt.Errorf("%w: %T does not embed db2023.RecordBase", ErrBadSchema, rec)
	}
	t := reflect.TypeOf(rec)
	if t.Kind() != reflect.Struct || t.NumField() == 0 || t.Field(0).Type != reflect.TypeOf(RecordBase{}) {
		return 0, fmt.Errorf("%w: %T must have RecordBase as its first field", ErrBadSchema, rec)
	}
	size := binary.Size(&rec)
	if size <= 0 {
		return 0, fmt.Errorf("%w: %T is not a flat fixed-size struct", ErrBadSchema, rec)
	}
	return uint32(size), nil
}

// uidCounter assigns uids monotonically. peek previews the next uid
// without consuming it so a record can be stamped before the caller
// commits to writing it; commit consumes it.
type uidCounter struct {
	last UID
}

func (c *uidCounter) peek() UID { return c.last + 1 }

func (c *uidCounter) commit() UID {
	c.last++
	return c.last
}

func (c *uidCounter) reset(last UID) { c.last = last }
