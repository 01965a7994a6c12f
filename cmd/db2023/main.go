package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"os"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/sjk7/db2023"
	"github.com/sjk7/db2023/internal/pkg/logging"
)

// Track is the demonstration media-catalogue schema: a flat fixed-size
// record leading with the engine's identity triple.
type Track struct {
	db2023.RecordBase
	Artist     [32]byte
	Title      [32]byte
	Categories [64]byte
	Intro      [4]uint32
	FilePath   [512]byte
	Opener     uint8
}

// TrackBigger is structurally compatible with Track but one byte larger;
// opening a Track file with it must be rejected.
type TrackBigger struct {
	db2023.RecordBase
	Artist     [32]byte
	Title      [32]byte
	Categories [64]byte
	Intro      [4]uint32
	FilePath   [512]byte
	Opener     uint8
	Rating     uint8
}

func putStr(dst []byte, s string) {
	copy(dst, s)
}

func str(src []byte) string {
	for i, b := range src {
		if b == 0 {
			return string(src[:i])
		}
	}
	return string(src)
}

func main() {
	var (
		dbPath   = flag.String("db", "tracks.db", "database file path")
		rows     = flag.Int("rows", 100, "target row count for the first batch")
		extra    = flag.Int("extra", 10, "rows to append in the second batch")
		corrupt  = flag.Bool("corrupt", false, "force duplicate uids and demonstrate repair")
		logLevel = flag.String("log-level", "info", "debug, info, warn, error or fatal")
	)
	flag.Parse()

	logger, err := logging.NewLogger(*logLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	existing := 0
	db, err := db2023.Open[Track](*dbPath, func(t *Track) bool {
		existing++
		return true
	}, db2023.WithLogger(logger))
	if err != nil {
		sugar.Fatalw("cannot open catalogue", "path", *dbPath, "error", err)
	}
	defer db.Close()
	sugar.Infow("catalogue open", "path", *dbPath, "rows", db.RowCount(), "scanned", existing, "state", db.State().String())

	// A larger schema against the same file must be refused.
	if _, err := db2023.Open[TrackBigger](*dbPath, nil); !errors.Is(err, db2023.ErrBadRecordSize) {
		sugar.Fatalw("expected a record size rejection for the bigger schema", "error", err)
	}
	sugar.Infow("bigger schema correctly rejected")

	if int(db.RowCount()) < *rows {
		need := *rows - int(db.RowCount())
		if err := appendTracks(db, need); err != nil {
			sugar.Fatalw("first batch failed", "error", err)
		}
		sugar.Infow("first batch committed", "rows", db.RowCount())
	}

	if err := appendTracks(db, *extra); err != nil {
		sugar.Fatalw("second batch failed", "error", err)
	}
	sugar.Infow("second batch committed", "rows", db.RowCount())

	lastUID := db2023.UID(db.RowCount())
	row, err := db.RowIndexFromUID(lastUID)
	if err != nil {
		sugar.Fatalw("lookup failed", "uid", lastUID, "error", err)
	}
	var last Track
	if err := db.ReadUntil(row, func(t *Track) bool {
		last = *t
		return false
	}); err != nil {
		sugar.Fatalw("cannot read last row", "row", row, "error", err)
	}
	sugar.Infow("looked up newest track",
		"uid", lastUID, "row", row, "artist", str(last.Artist[:]), "title", str(last.Title[:]))

	if !*corrupt {
		return
	}

	recordSize := binary.Size(Track{})
	if err := db.Close(); err != nil {
		sugar.Fatalw("close failed", "error", err)
	}
	if err := forceDuplicateUIDs(*dbPath, recordSize, *rows+*extra); err != nil {
		sugar.Fatalw("cannot corrupt file", "error", err)
	}
	sugar.Infow("forced duplicate uids on every 10th row")

	if _, err := db2023.Open[Track](*dbPath, nil, db2023.WithLogger(logger)); !errors.Is(err, db2023.ErrDuplicateUID) {
		sugar.Fatalw("expected a duplicate uid failure", "error", err)
	}
	sugar.Infow("corrupt catalogue correctly refused without repair")

	repaired, err := db2023.Open[Track](*dbPath, nil, db2023.WithLogger(logger), db2023.WithRepair())
	if err != nil {
		sugar.Fatalw("repair failed", "error", err)
	}
	defer repaired.Close()

	for uid := db2023.UID(1); uid <= db2023.UID(repaired.RowCount()); uid++ {
		if _, err := repaired.RowIndexFromUID(uid); err != nil {
			sugar.Fatalw("uid missing after repair", "uid", uid, "error", err)
		}
	}
	sugar.Infow("repair renumbered the catalogue densely", "rows", repaired.RowCount())
}

func appendTracks(db *db2023.DB[Track], n int) error {
	produced := 0
	return db.Append(func(t *Track) bool {
		if produced >= n {
			return false
		}
		produced++
		putStr(t.Artist[:], gofakeit.Name())
		putStr(t.Title[:], gofakeit.Sentence(3))
		putStr(t.Categories[:], gofakeit.RandomString([]string{"rock", "jazz", "classical", "pop"}))
		putStr(t.FilePath[:], "/media/"+gofakeit.UUID()+".flac")
		t.Intro = [4]uint32{0, 2500, 5000, 7500}
		if gofakeit.Bool() {
			t.Opener = 1
		}
		return true
	})
}

// forceDuplicateUIDs stamps the literal uid 10 onto every 10th row by
// writing straight into the file, bypassing the engine.
func forceDuplicateUIDs(path string, recordSize, rowCount int) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, 4)
	binary.NativeEndian.PutUint32(buf, 10)
	for row := 9; row < rowCount; row += 10 {
		offset := int64(db2023.HeaderSize) + int64(row)*int64(recordSize)
		if _, err := f.WriteAt(buf, offset); err != nil {
			return err
		}
	}
	return nil
}
