// Package record defines the typed row shape shared by every decoder and
// every sink: a Schema describes a packet kind's columns (name, Go type,
// engineering unit), and a Record is one decoded row of that shape. Records
// are plain maps rather than per-kind structs because the kind set is only
// known at profile-registration time (SPEC_FULL.md §4.10, DOMAIN-1) — the
// same reason the sink tier builds its parquet schema at runtime instead of
// using a generic writer over a fixed Go struct.
package record

// Kind is the Go/Parquet value shape of one schema field.
type Kind int

const (
	KindUint8 Kind = iota
	KindUint16
	KindUint32
	KindUint64
	KindInt16
	KindInt32
	KindFloat32
	KindFloat64
	KindString
	KindListInt16
	KindListUint16
	KindListUint32
	KindListFloat32
	KindListFloat64
)

// Field describes one named, typed, optionally-unitted column.
type Field struct {
	Name string
	Type Kind
	Unit string // engineering unit, e.g. "GHz", "MSps", "deg"; empty if unitless
}

// Schema is the ordered column list for one packet kind's sink.
type Schema struct {
	Kind   string // sink key, e.g. "data", "context", "message_content"
	Fields []Field
}

// Record is one decoded row: field name to typed scalar or slice value. The
// concrete value stored for a field must match its Schema Kind (uint32 for
// KindUint32, []int16 for KindListInt16, and so on) — sinks trust this and
// do not re-validate per row.
type Record map[string]any

// SchemaDoc is the JSON-serializable projection of a Schema used in the
// metadata.json sidecar (SPEC_FULL.md §6 persisted state layout), mirroring
// the original source's pyarrow _schema_elt helper: name/type/unit triples.
type SchemaDoc struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Unit string `json:"unit,omitempty"`
}

func (s Schema) Doc() []SchemaDoc {
	doc := make([]SchemaDoc, 0, len(s.Fields))
	for _, f := range s.Fields {
		doc = append(doc, SchemaDoc{Name: f.Name, Type: f.Type.String(), Unit: f.Unit})
	}
	return doc
}

func (k Kind) String() string {
	switch k {
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindListInt16:
		return "list<int16>"
	case KindListUint16:
		return "list<uint16>"
	case KindListUint32:
		return "list<uint32>"
	case KindListFloat32:
		return "list<float32>"
	case KindListFloat64:
		return "list<float64>"
	default:
		return "unknown"
	}
}
