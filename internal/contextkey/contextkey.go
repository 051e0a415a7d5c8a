// Package contextkey implements context-key derivation and association
// (SPEC_FULL.md §4.8, §DOMAIN-5): a stream_id → context_key table,
// last-writer-wins, with an optional expr-lang/expr program replacing
// the default "{stream_id}"-substitution key function. Grounded on the
// teacher's internal/tagger classifyJob.go pattern — compile a vm.Program
// once from a user-supplied string, evaluate it per record against an
// env map.
package contextkey

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Table is the process-local stream_id → key map the driver mutates on
// every context packet and reads on every signal-data packet. It is
// monotonic: entries are never evicted for the lifetime of one run.
type Table struct {
	mu      sync.RWMutex
	keys    map[uint32]string
	orphan  string
	prefix  string
	program *vm.Program // optional -context_key_expr override
}

// NewTable builds a context-key table. orphanKey is returned for any
// stream id that has not yet seen a context packet; prefix is applied to
// the default "{stream_id}" substitution pattern. exprSource, if
// non-empty, replaces the default key function with a compiled
// expr-lang program evaluated against {frame_index, stream_id}.
func NewTable(orphanKey, prefix, exprSource string) (*Table, error) {
	t := &Table{
		keys:   map[uint32]string{},
		orphan: orphanKey,
		prefix: prefix,
	}
	if exprSource != "" {
		program, err := expr.Compile(exprSource, expr.Env(map[string]any{
			"frame_index": "",
			"stream_id":   uint32(0),
		}))
		if err != nil {
			return nil, fmt.Errorf("contextkey: compile -context_key_expr: %w", err)
		}
		t.program = program
	}
	return t, nil
}

// Update records the key produced for a context packet seen at frame
// index f on the given stream id (last-writer-wins, §4.8).
func (t *Table) Update(frameIndex int, streamID uint32) (string, error) {
	key, err := t.deriveKey(frameIndex, streamID)
	if err != nil {
		return "", err
	}
	t.mu.Lock()
	t.keys[streamID] = key
	t.mu.Unlock()
	return key, nil
}

// Lookup returns the most recently stored key for streamID, or the
// orphan key if no context packet has been seen on that stream yet.
func (t *Table) Lookup(streamID uint32) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if key, ok := t.keys[streamID]; ok {
		return key
	}
	return t.orphan
}

func (t *Table) deriveKey(frameIndex int, streamID uint32) (string, error) {
	if t.program != nil {
		out, err := expr.Run(t.program, map[string]any{
			"frame_index": strconv.Itoa(frameIndex),
			"stream_id":   streamID,
		})
		if err != nil {
			return "", fmt.Errorf("contextkey: evaluate -context_key_expr: %w", err)
		}
		return fmt.Sprintf("%v", out), nil
	}
	pattern := t.prefix + "{stream_id}"
	return strings.ReplaceAll(pattern, "{stream_id}", strconv.FormatUint(uint64(streamID), 10)), nil
}

// FatalRule promotes selected schema-assertion failures (§7 item 3) from
// "drop the record" to "abort the run", evaluated via the same
// expr-lang mechanism against the failing kind's name (§DOMAIN-5
// -fatal_on flag).
type FatalRule struct {
	program *vm.Program
}

func NewFatalRule(exprSource string) (*FatalRule, error) {
	if exprSource == "" {
		return &FatalRule{}, nil
	}
	program, err := expr.Compile(exprSource, expr.Env(map[string]any{"kind": ""}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("contextkey: compile -fatal_on: %w", err)
	}
	return &FatalRule{program: program}, nil
}

// IsFatal reports whether a schema-assertion failure for the given sink
// kind should abort the run rather than merely being dropped and logged.
func (r *FatalRule) IsFatal(kind string) bool {
	if r == nil || r.program == nil {
		return false
	}
	out, err := expr.Run(r.program, map[string]any{"kind": kind})
	if err != nil {
		return false
	}
	fatal, _ := out.(bool)
	return fatal
}
