package sink

import (
	"fmt"

	pq "github.com/parquet-go/parquet-go"
)

// codecs maps the CLI's -compression flag value to a parquet-go
// compression codec (SPEC_FULL.md §DOMAIN-2). The teacher hard-codes
// pq.Zstd at a single call site in pkg/archive/parquet/writer.go; this
// generalizes that to a lookup so every kind's writer can share the
// same flag-driven choice.
var codecs = map[string]pq.Compression{
	"snappy": &pq.Snappy,
	"gzip":   &pq.Gzip,
	"brotli": &pq.Brotli,
	"lz4":    &pq.Lz4Raw,
	"zstd":   &pq.Zstd,
}

// Codec resolves a compression name to its parquet-go codec. Empty name
// defaults to Zstd, matching the teacher's choice when no flag is given.
func Codec(name string) (pq.Compression, error) {
	if name == "" {
		return &pq.Zstd, nil
	}
	c, ok := codecs[name]
	if !ok {
		return nil, fmt.Errorf("sink: unknown compression codec %q", name)
	}
	return c, nil
}
