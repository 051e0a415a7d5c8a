package sink

import (
	"fmt"
	"sync"

	"github.com/AFMC-MAJCOM/bipconv/internal/record"
)

// DwellIndexRow is one row of the dwell-index table: a dwell key, the
// file it was written to, and the stream-order index of the first
// record that went into it (SPEC_FULL.md §4.9, P8).
type DwellIndexRow struct {
	Key              string
	FileName         string
	FirstRecordIndex int
}

// DwellSink recognizes maximal runs of a shared dwell key and routes
// each run's values of one sample field (sampleField) to a distinct
// numbered file, while every record's remaining fields go to a single
// shared packet-metadata table; a second sample column (e.g. samples_q
// when sampleField is samples_i) is not split out and lands in the
// metadata table with the other fields. A reuse counter on the key
// (`-0`, `-1`, ...) disambiguates non-adjacent runs sharing a key.
type DwellSink struct {
	mu sync.Mutex

	schema      record.Schema
	sampleField string // field holding the I/Q sample payload, e.g. "samples"
	cfg         Config

	currentKey    string
	reuseCount    map[string]int
	currentWriter *parquetWriter
	metaWriter    *parquetWriter

	index        []DwellIndexRow
	recordIndex  int
	closed       bool
	indexBackend DwellIndexBackend // optional sqlite mirror, §DOMAIN-4
}

// DwellIndexBackend is the optional sqlite-backed mirror of the
// dwell-index table (§DOMAIN-4); nil means "parquet table only".
type DwellIndexBackend interface {
	InsertDwellIndexRow(row DwellIndexRow) error
}

func NewDwellSink(s record.Schema, sampleField string, cfg Config, indexBackend DwellIndexBackend) *DwellSink {
	metaSchema := withoutField(s, sampleField)
	return &DwellSink{
		schema:       s,
		sampleField:  sampleField,
		cfg:          cfg,
		reuseCount:   map[string]int{},
		metaWriter:   newParquetWriter(cfg.Target, metaSchema, cfg.Codec, cfg.maxSizeMB()),
		indexBackend: indexBackend,
	}
}

func (d *DwellSink) Extension() string { return "parquet" }

// AddDwellRecord is AddRecord plus the dwell key this record belongs to
// (default stream_id per §4.9; the MikeLima variant computes
// `3*record_index + polarization` instead and calls this once per
// polarization stream).
func (d *DwellSink) AddDwellRecord(key string, rec record.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("sink: add record on a closed dwell sink")
	}

	if key != d.currentKey || d.currentWriter == nil {
		if d.currentWriter != nil {
			if err := d.currentWriter.Close(); err != nil {
				return fmt.Errorf("sink: close dwell file for key %q: %w", d.currentKey, err)
			}
		}
		n := d.reuseCount[key]
		fileName := fmt.Sprintf("%s-%d", key, n)
		d.reuseCount[key] = n + 1

		sampleSchema := record.Schema{Kind: fileName, Fields: []record.Field{
			{Name: d.sampleField, Type: fieldType(d.schema, d.sampleField)},
		}}
		d.currentWriter = newParquetWriter(d.cfg.Target, sampleSchema, d.cfg.Codec, d.cfg.maxSizeMB())
		d.currentKey = key

		row := DwellIndexRow{Key: key, FileName: fileName + ".parquet", FirstRecordIndex: d.recordIndex}
		d.index = append(d.index, row)
		if d.indexBackend != nil {
			if err := d.indexBackend.InsertDwellIndexRow(row); err != nil {
				return fmt.Errorf("sink: dwell-index backend insert: %w", err)
			}
		}
	}

	samples := record.Record{d.sampleField: rec[d.sampleField]}
	if err := d.currentWriter.Add(samples); err != nil {
		return err
	}
	if err := d.metaWriter.Add(rec); err != nil {
		return err
	}
	d.recordIndex++
	return nil
}

func (d *DwellSink) AddRecord(rec record.Record) error {
	streamID := fmt.Sprintf("%v", rec["stream_id"])
	return d.AddDwellRecord(streamID, rec)
}

func (d *DwellSink) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if d.currentWriter != nil {
		if err := d.currentWriter.Close(); err != nil {
			return err
		}
	}
	return d.metaWriter.Close()
}

func (d *DwellSink) Metadata() map[string]any {
	return map[string]any{"dwell_files": len(d.index), "dwell_index": d.index}
}

func withoutField(s record.Schema, name string) record.Schema {
	out := record.Schema{Kind: s.Kind + "_meta"}
	for _, f := range s.Fields {
		if f.Name != name {
			out.Fields = append(out.Fields, f)
		}
	}
	return out
}

func fieldType(s record.Schema, name string) record.Kind {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Type
		}
	}
	return record.KindListInt16
}
