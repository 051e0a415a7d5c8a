// Package profile is the extension point that maps a CLI-selected profile
// name ("juliet", "tango", "mikelima") to the frame reader, classifier,
// schema table, and sink router that together define it (SPEC_FULL.md
// §4.1). Each profile package registers itself from its own init()
// against the package-level table here, the same "switch cfg.Kind over
// known backend kinds" shape as pkg/archive.Init, turned into a static
// map lookup instead of a switch statement since the set of profiles is
// discovered by import rather than enumerated by hand.
package profile

import (
	"fmt"
	"io"

	"github.com/AFMC-MAJCOM/bipconv/internal/frame"
	"github.com/AFMC-MAJCOM/bipconv/internal/record"
)

// Classifier identifies the packet kind carried by a decoded frame payload
// and decodes it into a typed record, along with the sink key it belongs
// to and, for signal-data records, the stream id used for context-key
// association.
type Classifier interface {
	// Classify returns the sink key ("data", "context", "unknown_packets",
	// ...), the decoded record, the packet's stream id (0 if not
	// applicable), and whether this kind is a signal-data kind that needs
	// context-key attachment.
	Classify(payload []byte) (Decoded, error)
}

// Decoded is one classified-and-decoded packet.
type Decoded struct {
	SinkKey      string
	Record       record.Record
	StreamID     uint32
	IsSignalData bool
	IsContext    bool
}

// FrameReaderFactory builds a fresh frame.Reader over an input stream,
// since each run of the pipeline needs its own cursor state.
type FrameReaderFactory func(r io.ReadSeeker, opts Options) frame.Reader

// ClassifierFactory builds a fresh Classifier, given the profile's
// run-time options. The Juliet and Tango classifiers ignore them; Tango's
// clean flag is read by its frame reader instead.
type ClassifierFactory func(opts Options) Classifier

// Options carries the subset of CLI/config flags a profile's frame
// reader or classifier needs. Profiles read only the fields relevant to
// them and ignore the rest.
type Options struct {
	Clean              bool
	PartitionKeyPrefix string
	PartitionOrphanKey string
}

// EmitFunc hands one decoded record to the driver for sink dispatch.
type EmitFunc func(sinkKey string, rec record.Record) error

// CompositeRunner is an alternate entry point for profiles whose outer
// unit isn't "one frame, one packet" — MikeLima's message is a
// Start-of-Message header plus N Packet blocks plus an End-of-Message
// trailer, which doesn't fit the Frame-then-Classify shape Juliet and
// Tango share. A profile with a non-nil Composite runs this instead of
// the generic frame/classifier loop; see internal/mikelima and
// DESIGN.md for why this asymmetry exists rather than forcing MikeLima
// through the same two-stage shape.
type CompositeRunner interface {
	Run(r io.ReadSeeker, opts Options, emit EmitFunc) error
}

// Descriptor is the full declaration of one profile: a name, a frame
// reader and classifier, and the schema/sink-routing tables. No
// inheritance — a profile is a struct of function values and static
// tables, per SPEC_FULL.md §4.1.
type Descriptor struct {
	Name           string
	NewFrameReader FrameReaderFactory
	NewClassifier  ClassifierFactory
	Composite      CompositeRunner
	Schemas        map[string]record.Schema // sink key -> schema
}

var registry = map[string]Descriptor{}

// Register adds a profile descriptor to the registry. Called from each
// profile package's init(). A duplicate name is a programming error and
// panics at init time rather than surfacing as a confusing runtime
// lookup failure.
func Register(d Descriptor) {
	if d.Name == "" {
		panic("profile: Register called with an empty name")
	}
	if _, exists := registry[d.Name]; exists {
		panic(fmt.Sprintf("profile: duplicate registration for %q", d.Name))
	}
	registry[d.Name] = d
}

// Lookup resolves a profile name to its descriptor. It fails clearly on
// an unknown name rather than falling back to a default, since an
// unresolved profile name means the caller asked for something that
// does not exist.
func Lookup(name string) (Descriptor, error) {
	d, ok := registry[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("profile: unknown profile %q (known: %v): %w", name, Names(), ErrUnknownProfile)
	}
	return d, nil
}

// Names returns the registered profile names, for error messages and
// -help output.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// ErrUnknownProfile is the sentinel wrapped by Lookup's error, so callers
// can errors.Is against it regardless of which name was requested.
var ErrUnknownProfile = fmt.Errorf("unknown profile")
