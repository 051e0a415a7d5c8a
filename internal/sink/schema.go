package sink

import (
	pq "github.com/parquet-go/parquet-go"

	"github.com/AFMC-MAJCOM/bipconv/internal/record"
)

// buildSchema turns a record.Schema (a plain name/type/unit column list,
// known only once a profile registers itself) into a parquet-go schema
// built at run time. The teacher's own writer (pkg/archive/parquet's
// ParquetWriter) is monomorphic: it calls pq.NewGenericWriter[ParquetJobRow]
// over one compile-time struct, because cc-backend has exactly one job
// row shape. This engine has one schema per packet kind, so the
// equivalent column declaration has to happen at run time instead
// (SPEC_FULL.md §DOMAIN-1) — everything downstream of this function
// (parquetWriter in parquet.go) otherwise follows the teacher's
// batch-then-flush shape exactly.
func buildSchema(s record.Schema) *pq.Schema {
	group := pq.Group{}
	for _, f := range s.Fields {
		group[f.Name] = nodeFor(f.Type)
	}
	return pq.NewSchema(s.Kind, group)
}

func nodeFor(k record.Kind) pq.Node {
	switch k {
	case record.KindUint8:
		return pq.Optional(pq.Uint(8))
	case record.KindUint16:
		return pq.Optional(pq.Uint(16))
	case record.KindUint32:
		return pq.Optional(pq.Uint(32))
	case record.KindUint64:
		return pq.Optional(pq.Uint(64))
	case record.KindInt16:
		return pq.Optional(pq.Int(16))
	case record.KindInt32:
		return pq.Optional(pq.Int(32))
	case record.KindFloat32:
		return pq.Optional(pq.Leaf(pq.FloatType))
	case record.KindFloat64:
		return pq.Optional(pq.Leaf(pq.DoubleType))
	case record.KindString:
		return pq.Optional(pq.String())
	case record.KindListInt16:
		return pq.Repeated(pq.Int(16))
	case record.KindListUint16:
		return pq.Repeated(pq.Uint(16))
	case record.KindListUint32:
		return pq.Repeated(pq.Uint(32))
	case record.KindListFloat32:
		return pq.Repeated(pq.Leaf(pq.FloatType))
	case record.KindListFloat64:
		return pq.Repeated(pq.Leaf(pq.DoubleType))
	default:
		return pq.Optional(pq.String())
	}
}
