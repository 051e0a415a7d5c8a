// Package frame defines the outcome type every capture-format frame reader
// returns: a well-formed payload, a recoverable corruption with a reason,
// or a clean end of stream. SPEC_FULL.md §9 calls for this sum-type-like
// shape instead of a bare (payload, error) pair so that "corrupt frame,
// keep going" and "fatal read error" are never confused by a caller that
// only checks err != nil.
package frame

// Status distinguishes the three ways a frame read can resolve.
type Status int

const (
	StatusOK Status = iota
	StatusCorrupt
	StatusEnd
)

// Result is one frame reader outcome. Payload is only meaningful when
// Status is StatusOK. Reason is only meaningful when Status is
// StatusCorrupt, and should be a short, specific description (e.g.
// "short read: wanted 12-byte frame header, got 5 bytes") since profile
// code surfaces it directly in logs and in the bad-packet counter.
type Result struct {
	Status  Status
	Payload []byte
	Reason  string
}

func Ok(payload []byte) Result {
	return Result{Status: StatusOK, Payload: payload}
}

func Corrupt(reason string) Result {
	return Result{Status: StatusCorrupt, Reason: reason}
}

func End() Result {
	return Result{Status: StatusEnd}
}

func (r Result) IsOK() bool {
	return r.Status == StatusOK
}

func (r Result) IsEnd() bool {
	return r.Status == StatusEnd
}

func (r Result) IsCorrupt() bool {
	return r.Status == StatusCorrupt
}

// Reader produces a sequence of frame Results from a capture file. Next
// returns StatusEnd forever once the stream is exhausted; it never panics
// on truncated input, reporting StatusCorrupt instead so callers can
// decide whether to keep scanning for the next resync marker.
type Reader interface {
	Next() Result
}
