// Package pipeline implements the driver (SPEC_FULL.md §4.11): it pulls
// frames from a profile's frame reader, classifies and decodes each
// packet, attaches context keys to signal-data records, routes every
// record to its sink, and writes the metadata.json sidecar at the end.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/AFMC-MAJCOM/bipconv/internal/contextkey"
	"github.com/AFMC-MAJCOM/bipconv/internal/frame"
	"github.com/AFMC-MAJCOM/bipconv/internal/profile"
	"github.com/AFMC-MAJCOM/bipconv/internal/record"
	"github.com/AFMC-MAJCOM/bipconv/internal/sink"
	"github.com/AFMC-MAJCOM/bipconv/pkg/log"
)

// Counters are the driver's atomically-updated run counters, readable
// concurrently by the optional Prometheus exporter (§DOMAIN-8) without
// touching driver-owned state directly.
type Counters struct {
	BytesRead      atomic.Uint64
	PacketsRead    atomic.Uint64
	BadPackets     atomic.Uint64
	UnknownPackets atomic.Uint64
	MessagesRead   atomic.Uint64
}

// Driver runs one profile over one input stream to completion.
type Driver struct {
	Profile    profile.Descriptor
	Options    profile.Options
	Sinks      map[string]sink.Sink // sink key -> sink, built by the caller and closed by Run
	ContextKey *contextkey.Table
	FatalRule  *contextkey.FatalRule

	Counters Counters
}

// Run drives the profile to completion or until ctx is cancelled
// (§5: the driver checks for cancellation between frames, or between
// emitted records for a composite profile, and closes every open sink
// before returning either way).
func (d *Driver) Run(ctx context.Context, r io.ReadSeeker) error {
	defer d.closeSinks()

	if d.Profile.Composite != nil {
		return d.runComposite(ctx, r)
	}
	return d.runFramed(ctx, r)
}

func (d *Driver) runFramed(ctx context.Context, r io.ReadSeeker) error {
	reader := d.Profile.NewFrameReader(r, d.Options)
	classifier := d.Profile.NewClassifier(d.Options)

	frameIndex := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("pipeline: cancelled, closing sinks")
			return nil
		default:
		}

		result := reader.Next()
		switch result.Status {
		case frame.StatusEnd:
			return nil
		case frame.StatusCorrupt:
			d.Counters.BadPackets.Add(1)
			if err := d.emit("bad_packets", record.Record{"reason": result.Reason}); err != nil {
				log.Errorf("pipeline: write bad_packets row: %v", err)
			}
			continue
		}

		d.Counters.BytesRead.Store(bytesReadOf(reader))
		if err := d.emit("framing_packets", record.Record{"frame_index": uint32(frameIndex)}); err != nil {
			log.Errorf("pipeline: write framing_packets row: %v", err)
		}

		decoded, err := classifier.Classify(result.Payload)
		if err != nil {
			if decoded.SinkKey == "unknown_packets" {
				d.Counters.UnknownPackets.Add(1)
				if emitErr := d.emit("unknown_packets", decoded.Record); emitErr != nil {
					log.Errorf("pipeline: write unknown_packets row: %v", emitErr)
				}
				d.Counters.PacketsRead.Add(1)
				frameIndex++
				continue
			}
			if d.FatalRule.IsFatal(decoded.SinkKey) {
				return fmt.Errorf("pipeline: fatal schema assertion on kind %q: %w", decoded.SinkKey, err)
			}
			log.Warnf("pipeline: dropping record, decode error: %v", err)
			frameIndex++
			continue
		}

		if decoded.IsContext {
			key, kerr := d.ContextKey.Update(frameIndex, decoded.StreamID)
			if kerr != nil {
				log.Errorf("pipeline: context-key update: %v", kerr)
			} else {
				decoded.Record["context_key"] = key
			}
		} else if decoded.IsSignalData {
			decoded.Record["context_key"] = d.ContextKey.Lookup(decoded.StreamID)
		}

		if err := d.emit(decoded.SinkKey, decoded.Record); err != nil {
			log.Errorf("pipeline: sink %q write failed: %v", decoded.SinkKey, err)
		}
		d.Counters.PacketsRead.Add(1)
		frameIndex++
	}
}

func (d *Driver) runComposite(ctx context.Context, r io.ReadSeeker) error {
	err := d.Profile.Composite.Run(r, d.Options, func(sinkKey string, rec record.Record) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		d.Counters.PacketsRead.Add(1)
		if sinkKey == "message_content" {
			d.Counters.MessagesRead.Add(1)
		}
		return d.emit(sinkKey, rec)
	})
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		log.Info("pipeline: cancelled, closing sinks")
		return nil
	}
	return err
}

func (d *Driver) emit(sinkKey string, rec record.Record) error {
	s, ok := d.Sinks[sinkKey]
	if !ok {
		return nil
	}
	return s.AddRecord(rec)
}

func (d *Driver) closeSinks() {
	for key, s := range d.Sinks {
		if err := s.Close(); err != nil {
			log.Errorf("pipeline: close sink %q: %v", key, err)
		}
	}
}

// bytesReadOf reads the frame reader's running byte count through a
// narrow interface, since the Juliet and Tango frame readers each track
// it their own way but both expose BytesRead().
func bytesReadOf(r frame.Reader) uint64 {
	if br, ok := r.(interface{ BytesRead() uint64 }); ok {
		return br.BytesRead()
	}
	return 0
}

// WriteMetadataSidecar serializes the driver's final counters and each
// sink's own Metadata() into metadata.json (§6 persisted state layout).
func WriteMetadataSidecar(outputDir, name, version string, opts profile.Options, counters *Counters, schemas map[string]record.Schema, sinks map[string]sink.Sink) error {
	doc := map[string]any{
		"name":    name,
		"version": version,
		"options": opts,
		"counters": map[string]uint64{
			"bytes_read":      counters.BytesRead.Load(),
			"packets_read":    counters.PacketsRead.Load(),
			"bad_packets":     counters.BadPackets.Load(),
			"unknown_packets": counters.UnknownPackets.Load(),
			"messages_read":   counters.MessagesRead.Load(),
		},
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	}

	schemaDocs := map[string]any{}
	for key, s := range schemas {
		schemaDocs[key] = s.Doc()
	}
	doc["schemas"] = schemaDocs

	sinkMeta := map[string]any{}
	for key, s := range sinks {
		sinkMeta[key] = s.Metadata()
	}
	doc["sinks"] = sinkMeta

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("pipeline: marshal metadata.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, "metadata.json"), data, 0o640); err != nil {
		return fmt.Errorf("pipeline: write metadata.json: %w", err)
	}
	return nil
}
