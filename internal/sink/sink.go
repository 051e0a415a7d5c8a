// Package sink implements the writer tier (SPEC_FULL.md §4.9-§4.10): the
// Null, Flat, Partitioned, and Dwell sink variants that persist decoded
// records to Parquet, grounded on the teacher's pkg/archive/parquet
// writer and target abstractions, generalized from one fixed job-row
// schema to a schema per packet kind (§DOMAIN-1).
package sink

import (
	"fmt"
	"sync"

	pq "github.com/parquet-go/parquet-go"

	"github.com/AFMC-MAJCOM/bipconv/internal/record"
)

// Sink is the contract every writer-tier variant implements. A sink is
// opened lazily on first write and must be closed exactly once;
// Close is idempotent.
type Sink interface {
	Extension() string
	AddRecord(rec record.Record) error
	Close() error
	// Metadata returns the sidecar fields this sink contributes, e.g.
	// row counts or dwell-index entries.
	Metadata() map[string]any
}

// OnExistingPartition selects what a Partitioned sink does when a
// partition file already exists.
type OnExistingPartition int

const (
	OverwriteOrIgnore OnExistingPartition = iota
	DeleteMatching
	ErrorOnExisting
)

// Config bundles the options shared by every concrete sink.
type Config struct {
	Target      Target
	Codec       pq.Compression
	MaxSizeMB   int
	OnExisting  OnExistingPartition
	BatchSize   int
}

func (c Config) maxSizeMB() int {
	if c.MaxSizeMB <= 0 {
		return 256
	}
	return c.MaxSizeMB
}

func (c Config) batchSize() int {
	if c.BatchSize <= 0 {
		return 1000
	}
	return c.BatchSize
}

// NullSink discards every record; used for kinds the caller does not
// want persisted (e.g. disabling framing_packets in a fast pass).
type NullSink struct {
	schema record.Schema
	count  int
	mu     sync.Mutex
}

func NewNullSink(s record.Schema) *NullSink { return &NullSink{schema: s} }

func (n *NullSink) Extension() string { return "" }

func (n *NullSink) AddRecord(record.Record) error {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
	return nil
}

func (n *NullSink) Close() error { return nil }

func (n *NullSink) Metadata() map[string]any {
	return map[string]any{"kind": n.schema.Kind, "rows_discarded": n.count}
}

// FlatSink writes every record of one kind to a single growing sequence
// of numbered Parquet files under the target (§4.10 Flat variant).
type FlatSink struct {
	mu     sync.Mutex
	writer *parquetWriter
	closed bool
}

func NewFlatSink(s record.Schema, cfg Config) *FlatSink {
	return &FlatSink{writer: newParquetWriter(cfg.Target, s, cfg.Codec, cfg.maxSizeMB())}
}

func (f *FlatSink) Extension() string { return "parquet" }

func (f *FlatSink) AddRecord(rec record.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("sink: add record on a closed flat sink")
	}
	return f.writer.Add(rec)
}

func (f *FlatSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	return f.writer.Close()
}

func (f *FlatSink) Metadata() map[string]any {
	return map[string]any{"files_written": f.writer.fileCounter}
}

// PartitionedSink fans records out to one Parquet target file per
// context-key partition (Tango-only per §6's partition_data flag). The
// OnExisting policy in Config is not consulted: each flush is written
// through the target as is, and FileTarget overwrites a file of the
// same name.
type PartitionedSink struct {
	mu         sync.Mutex
	schema     record.Schema
	cfg        Config
	partitions map[string]*parquetWriter
	closed     bool
}

func NewPartitionedSink(s record.Schema, cfg Config) *PartitionedSink {
	return &PartitionedSink{schema: s, cfg: cfg, partitions: map[string]*parquetWriter{}}
}

// AddPartitioned adds a record under an explicit partition key (the
// associated context key); AddRecord takes the key from the record's
// context_key field instead.
func (p *PartitionedSink) AddPartitioned(key string, rec record.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("sink: add record on a closed partitioned sink")
	}
	w, ok := p.partitions[key]
	if !ok {
		w = newParquetWriter(&prefixedTarget{inner: p.cfg.Target, prefix: key}, p.schema, p.cfg.Codec, p.cfg.maxSizeMB())
		p.partitions[key] = w
	}
	return w.Add(rec)
}

// AddRecord partitions by the record's context_key field (set by the
// pipeline on signal-data records), or under "default" when it is absent.
func (p *PartitionedSink) AddRecord(rec record.Record) error {
	if key, ok := rec["context_key"].(string); ok && key != "" {
		return p.AddPartitioned(key, rec)
	}
	return p.AddPartitioned("default", rec)
}

func (p *PartitionedSink) Extension() string { return "parquet" }

func (p *PartitionedSink) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for key, w := range p.partitions {
		if err := w.Close(); err != nil {
			return fmt.Errorf("sink: close partition %q: %w", key, err)
		}
	}
	return nil
}

func (p *PartitionedSink) Metadata() map[string]any {
	return map[string]any{"partitions": len(p.partitions)}
}

// prefixedTarget prepends a path prefix to every file name written
// through it, the same wrapper the teacher's ClusterAwareParquetWriter
// uses to fan a single Target out per cluster; here it fans out per
// partition key / per dwell key instead of per cluster.
type prefixedTarget struct {
	inner  Target
	prefix string
}

func (t *prefixedTarget) WriteFile(name string, data []byte) error {
	return t.inner.WriteFile(t.prefix+"/"+name, data)
}
