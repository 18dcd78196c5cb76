package core

import "strings"

// Document is a semi-structured entity, per spec §3: it always carries
// $id and $type, optionally $data (an opaque payload carried alongside
// the typed fields), plus whatever other fields the collection defines.
type Document map[string]any

// ID returns the document's $id, or ("", false) if absent.
func (d Document) ID() (string, bool) {
	v, ok := d["$id"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Type returns the document's $type, or ("", false) if absent.
func (d Document) Type() (string, bool) {
	v, ok := d["$type"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// IsMetadataField reports whether name is a reserved $-prefixed field,
// which schema generation (spec §4.4) skips when promoting user fields.
func IsMetadataField(name string) bool {
	return strings.HasPrefix(name, "$")
}

// FieldKind is the declared, collection-level primitive kind of a field,
// before it is mapped to a Parquet physical type (spec §4.4's mapping
// table).
type FieldKind string

const (
	KindString   FieldKind = "string"
	KindText     FieldKind = "text"
	KindMarkdown FieldKind = "markdown"
	KindEmail    FieldKind = "email"
	KindURL      FieldKind = "url"
	KindUUID     FieldKind = "uuid"
	KindVarchar  FieldKind = "varchar"
	KindChar     FieldKind = "char"
	KindEnum     FieldKind = "enum"
	KindInt      FieldKind = "int"
	KindInteger  FieldKind = "integer"
	KindFloat    FieldKind = "float"
	KindDouble   FieldKind = "double"
	KindNumber   FieldKind = "number"
	KindDecimal  FieldKind = "decimal"
	KindBool     FieldKind = "bool"
	KindBoolean  FieldKind = "boolean"
	KindDate     FieldKind = "date"
	KindDatetime FieldKind = "datetime"
	KindTimestamp FieldKind = "timestamp"
	KindJSON      FieldKind = "json"
	KindUnknown   FieldKind = "unknown"
	KindBinary    FieldKind = "binary"
	KindVector    FieldKind = "vector"
	KindArray     FieldKind = "array"
	KindObject    FieldKind = "object"
)

// FieldDef declares one field of a collection's type definition.
type FieldDef struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
	Indexed  bool      `json:"indexed"`
	Array    bool      `json:"array"`
}

// RelationshipDef declares a named relationship between collections;
// relationship fields are skipped by schema generation (spec §4.4).
type RelationshipDef struct {
	Name       string `json:"name"`
	Collection string `json:"collection"`
	Field      string `json:"field"`
}

// TypeDef is a collection's type definition: the source of truth schema
// generation (columnar.Schema) and shredding selection (columnar.ShreddingPlanner)
// both read from.
type TypeDef struct {
	Collection    string            `json:"collection"`
	Fields        []FieldDef        `json:"fields"`
	Relationships []RelationshipDef `json:"relationships,omitempty"`
	// Shred lists field names explicitly requested for shredding via
	// the type definition's own `$shred` declaration (spec §4.4).
	Shred []string `json:"$shred,omitempty"`
}

// Field looks up a field definition by name.
func (t TypeDef) Field(name string) (FieldDef, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}
