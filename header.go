package db2023

import (
	"encoding/binary"
)

const (
	// Magic identifies the file format family.
	Magic uint32 = 558819
	// Version is the only supported format version.
	Version uint32 = 1
	// HeaderSize is the fixed byte length of the header at offset 0.
	HeaderSize = 20
)

// Header is the fixed-size metadata block at the start of every file.
// All fields are stored in native byte order.
type Header struct {
	Magic      uint32
	Version    uint32
	RowCount   uint32
	Reserved   uint32
	RecordSize uint32
}

func (h *Header) Marshal(buf []byte) {
	binary.NativeEndian.PutUint32(buf[0:4], h.Magic)
	binary.NativeEndian.PutUint32(buf[4:8], h.Version)
	binary.NativeEndian.PutUint32(buf[8:12], h.RowCount)
	binary.NativeEndian.PutUint32(buf[12:16], h.Reserved)
	binary.NativeEndian.PutUint32(buf[16:20], h.RecordSize)
}

func (h *Header) Unmarshal(buf []byte) {
	h.Magic = binary.NativeEndian.Uint32(buf[0:4])
	h.Version = binary.NativeEndian.Uint32(buf[4:8])
	h.RowCount = binary.NativeEndian.Uint32(buf[8:12])
	h.Reserved = binary.NativeEndian.Uint32(buf[12:16])
	h.RecordSize = binary.NativeEndian.Uint32(buf[16:20])
}
