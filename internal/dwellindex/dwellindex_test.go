package dwellindex

import (
	"path/filepath"
	"testing"

	"github.com/AFMC-MAJCOM/bipconv/internal/sink"
)

func TestStoreInsertAndLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dwell.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	row := sink.DwellIndexRow{Key: "ctx-7", FileName: "ctx-7-0.parquet", FirstRecordIndex: 0}
	if err := store.InsertDwellIndexRow(row); err != nil {
		t.Fatalf("InsertDwellIndexRow: %v", err)
	}

	files, err := store.Lookup("ctx-7")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(files) != 1 || files[0] != "ctx-7-0.parquet" {
		t.Fatalf("files = %v, want [ctx-7-0.parquet]", files)
	}
}

func TestStoreLookupOrdersByFirstRecordIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dwell.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	store.InsertDwellIndexRow(sink.DwellIndexRow{Key: "A", FileName: "A-1.parquet", FirstRecordIndex: 10})
	store.InsertDwellIndexRow(sink.DwellIndexRow{Key: "A", FileName: "A-0.parquet", FirstRecordIndex: 2})

	files, err := store.Lookup("A")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(files) != 2 || files[0] != "A-0.parquet" || files[1] != "A-1.parquet" {
		t.Fatalf("files = %v, want [A-0.parquet A-1.parquet]", files)
	}
}

func TestStoreLookupUnknownKeyIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dwell.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	files, err := store.Lookup("missing")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("files = %v, want empty", files)
	}
}
