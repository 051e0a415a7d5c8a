package sink

import (
	"sync"
	"testing"

	pq "github.com/parquet-go/parquet-go"

	"github.com/AFMC-MAJCOM/bipconv/internal/record"
)

// memTarget is an in-memory Target fake recording every file written,
// used so sink tests don't touch the local filesystem.
type memTarget struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemTarget() *memTarget { return &memTarget{files: map[string][]byte{}} }

func (m *memTarget) WriteFile(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
	return nil
}

func testSchema() record.Schema {
	return record.Schema{Kind: "data", Fields: []record.Field{
		{Name: "stream_id", Type: record.KindUint32},
		{Name: "samples_i", Type: record.KindListInt16},
	}}
}

func TestFlatSinkWritesOnClose(t *testing.T) {
	target := newMemTarget()
	s := NewFlatSink(testSchema(), Config{Target: target, Codec: pq.Snappy})

	if err := s.AddRecord(record.Record{"stream_id": uint32(1), "samples_i": []int16{1, 2, 3}}); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(target.files) != 1 {
		t.Fatalf("len(files) = %d, want 1", len(target.files))
	}
	if err := s.AddRecord(record.Record{"stream_id": uint32(1), "samples_i": nil}); err == nil {
		t.Fatal("expected an error adding to a closed sink")
	}
}

func TestFlatSinkCloseIsIdempotent(t *testing.T) {
	s := NewFlatSink(testSchema(), Config{Target: newMemTarget(), Codec: pq.Snappy})
	if err := s.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestPartitionedSinkFansOutByKey(t *testing.T) {
	target := newMemTarget()
	s := NewPartitionedSink(testSchema(), Config{Target: target, Codec: pq.Snappy})

	if err := s.AddPartitioned("alpha", record.Record{"stream_id": uint32(1), "samples_i": []int16{1}}); err != nil {
		t.Fatalf("AddPartitioned(alpha): %v", err)
	}
	if err := s.AddPartitioned("beta", record.Record{"stream_id": uint32(2), "samples_i": []int16{2}}); err != nil {
		t.Fatalf("AddPartitioned(beta): %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(target.files) != 2 {
		t.Fatalf("len(files) = %d, want 2 (one per partition)", len(target.files))
	}
}

func TestNullSinkCountsWithoutWriting(t *testing.T) {
	n := NewNullSink(testSchema())
	for i := 0; i < 3; i++ {
		if err := n.AddRecord(record.Record{"stream_id": uint32(i)}); err != nil {
			t.Fatalf("AddRecord: %v", err)
		}
	}
	meta := n.Metadata()
	if meta["rows_discarded"] != 3 {
		t.Fatalf("rows_discarded = %v, want 3", meta["rows_discarded"])
	}
}
