package columnar

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/parquedb/parquedb/core"
)

// PhysicalType names the Parquet physical/logical representation chosen
// for a field, as reported by Schema generation for use by the
// shredding planner and telemetry.
type PhysicalType string

const (
	PhysicalString    PhysicalType = "STRING"
	PhysicalInt32     PhysicalType = "INT32"
	PhysicalInt64     PhysicalType = "INT64"
	PhysicalDouble    PhysicalType = "DOUBLE"
	PhysicalBoolean   PhysicalType = "BOOLEAN"
	PhysicalTimestamp PhysicalType = "TIMESTAMP"
	PhysicalJSON      PhysicalType = "JSON"
	PhysicalByteArray PhysicalType = "BYTE_ARRAY"
)

// mapKind implements spec §4.4's primitive mapping table. Arrays always
// degrade to JSON regardless of the declared element kind.
func mapKind(f core.FieldDef) (parquet.Node, PhysicalType) {
	if f.Array {
		return parquet.JSON(), PhysicalJSON
	}
	switch f.Kind {
	case core.KindString, core.KindText, core.KindMarkdown, core.KindEmail,
		core.KindURL, core.KindUUID, core.KindVarchar, core.KindChar, core.KindEnum:
		return parquet.String(), PhysicalString
	case core.KindInt, core.KindInteger:
		return parquet.Int(32), PhysicalInt32
	case core.KindFloat, core.KindDouble, core.KindNumber, core.KindDecimal:
		return parquet.Leaf(parquet.DoubleType), PhysicalDouble
	case core.KindBool, core.KindBoolean:
		return parquet.Leaf(parquet.BooleanType), PhysicalBoolean
	case core.KindDate:
		return parquet.String(), PhysicalString
	case core.KindDatetime, core.KindTimestamp:
		return parquet.Timestamp(parquet.Millisecond), PhysicalTimestamp
	case core.KindBinary, core.KindVector:
		return parquet.Leaf(parquet.ByteArrayType), PhysicalByteArray
	case core.KindJSON, core.KindUnknown, core.KindObject:
		return parquet.JSON(), PhysicalJSON
	default:
		return parquet.JSON(), PhysicalJSON
	}
}

// FieldPhysical pairs a user field name with the physical type schema
// generation chose for it. BuildSchema leaves Shredded false, and
// ShreddingPlanner.Plan does not set it either: the shredded fields are
// listed in the ShreddingPlan it returns.
type FieldPhysical struct {
	Name     string
	Physical PhysicalType
	Shredded bool
}

// Schema is the generated Parquet schema for a collection, plus the
// bookkeeping ShreddingPlanner and ParquetCodec need to locate and type
// fields without re-deriving them from the TypeDef each time.
type Schema struct {
	Collection string
	Parquet    *parquet.Schema
	Fields     []FieldPhysical
}

// BuildSchema generates the Parquet schema for t, per spec §4.4: system
// columns, audit columns, soft-delete columns, then one column per
// user-declared field (skipping $-metadata fields and relationships).
func BuildSchema(t core.TypeDef) (*Schema, error) {
	if t.Collection == "" {
		return nil, core.NewErrorf(core.CodeInvalidArgument, "columnar.BuildSchema", "", "type definition missing collection name")
	}

	root := parquet.Group{
		"$id":   parquet.String(),
		"$type": parquet.String(),
		"$data": parquet.JSON().Optional(),

		"createdAt": parquet.Timestamp(parquet.Millisecond),
		"createdBy": parquet.String(),
		"updatedAt": parquet.Timestamp(parquet.Millisecond),
		"updatedBy": parquet.String(),
		"version":   parquet.Int(64),

		"deletedAt": parquet.Timestamp(parquet.Millisecond).Optional(),
		"deletedBy": parquet.String().Optional(),
	}

	fields := make([]FieldPhysical, 0, len(t.Fields))
	for _, f := range t.Fields {
		if core.IsMetadataField(f.Name) {
			continue
		}
		if isRelationshipField(t, f.Name) {
			continue
		}
		node, physical := mapKind(f)
		if !f.Required {
			node = node.Optional()
		}
		if _, exists := root[f.Name]; exists {
			return nil, core.NewErrorf(core.CodeInvalidArgument, "columnar.BuildSchema", t.Collection, "field %q collides with a system column", f.Name)
		}
		root[f.Name] = node
		fields = append(fields, FieldPhysical{Name: f.Name, Physical: physical})
	}

	return &Schema{
		Collection: t.Collection,
		Parquet:    parquet.NewSchema(t.Collection, root),
		Fields:     fields,
	}, nil
}

func isRelationshipField(t core.TypeDef, name string) bool {
	for _, r := range t.Relationships {
		if r.Field == name {
			return true
		}
	}
	return false
}

// Field looks up the physical type chosen for name, if it was a
// user-declared (non-system) field.
func (s *Schema) Field(name string) (FieldPhysical, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldPhysical{}, false
}

func (s *Schema) String() string {
	return fmt.Sprintf("columnar.Schema(%s, %d fields)", s.Collection, len(s.Fields))
}
