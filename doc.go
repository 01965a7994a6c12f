// Package db2023 is a minimal fixed-record binary storage engine: an
// append-mostly flat file holding a small header followed by a sequence
// of fixed-size records, each identified by a unique positive uid.
//
// It is meant for embedding inside an application that needs durable,
// randomly-addressable records without a full database dependency.
//
// # File structure
//
// A database is a single file:
//
//	[Header: magic | version | rowCount | reserved | recordSize]
//	[Record 0][Record 1]...[Record N-1]
//
// All header fields are 32-bit unsigned integers in native byte order.
// Records are caller-defined flat structs that embed [RecordBase] as
// their first field; their packed native-endian encoding is exactly
// recordSize bytes, which is stored in the header and checked on every
// open, so a file created for one schema cannot be opened with another.
//
// # Basic usage
//
//	type Track struct {
//	    db2023.RecordBase
//	    Artist [32]byte
//	    Title  [32]byte
//	}
//
//	db, err := db2023.Open[Track]("tracks.db", func(t *Track) bool {
//	    // called once per existing record
//	    return true
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.Append(func(t *Track) bool {
//	    // t arrives pre-stamped with the next uid; fill it in and
//	    // return true to write it, false to end the batch.
//	    return false
//	})
//
// # Uids and repair
//
// Uids are assigned by a per-file monotonic counter and are 1-based;
// 0 is the reserved invalid value. An in-memory index maps uid to row
// and is rebuilt from a full scan on every open and after every append
// batch; the on-disk bytes are always the source of truth. If a scan
// finds two rows sharing a uid the open fails with [ErrDuplicateUID]
// unless [WithRepair] was given, in which case every row is renumbered
// densely to 1..rowCount.
//
// # Concurrency
//
// The engine is single-threaded and performs no locking. One open file
// is exclusively owned by one DB instance; coordinating concurrent
// access is the embedding application's responsibility.
package db2023
