package columnar

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/parquedb/parquedb/core"
)

// ShreddingMetaKey is the top-level key-value metadata entry name spec
// §6 requires on every Parquet file that carries shredded columns.
const ShreddingMetaKey = "parquedb.shredding"

// RootShredding describes one VARIANT root's shredding, the value half
// of the "parquedb.shredding" JSON object (spec §6).
type RootShredding struct {
	Fields     []string          `json:"fields"`
	FieldTypes map[string]string `json:"fieldTypes,omitempty"`
}

// FileShredding is the full "parquedb.shredding" metadata payload,
// keyed by VARIANT root column name.
type FileShredding map[string]RootShredding

// ParquetCodec writes and reads collection snapshots, per spec §4.4 and
// §6. It is grounded on parquet-go's dynamic schema construction
// (parquet.Group / parquet.NewSchema, reflect.StructOf to stand in for
// a compile-time struct), the same shape of problem the reference
// integrations package solves by building parquet.Node trees from a
// source type system it does not control at compile time
// (other_examples/loicalleyne-arrowarc's icebergSchemaToParquetSchema).
type ParquetCodec struct{}

// WriteFlat encodes docs as one flat, natively-typed Parquet column per
// field in schema, with no VARIANT shredding: used for collections
// whose type definition fully types every field.
func (ParquetCodec) WriteFlat(schema *Schema, docs []core.Document) ([]byte, error) {
	rowType := flatRowType(schema)
	pschema := parquet.SchemaOf(reflect.New(rowType).Interface())

	rows := make([]any, len(docs))
	for i, d := range docs {
		row := reflect.New(rowType).Elem()
		populateSysFields(row, d)
		for _, f := range schema.Fields {
			setNativeField(row.FieldByName(goFieldName(f.Name)), f.Physical, d[f.Name])
		}
		rows[i] = row.Addr().Interface()
	}
	return writeRows(pschema, nil, rows)
}

// ReadFlat decodes a file produced by WriteFlat back into Documents.
func (ParquetCodec) ReadFlat(schema *Schema, data []byte) ([]core.Document, error) {
	rowType := flatRowType(schema)
	rows, err := readRows(rowType, data)
	if err != nil {
		return nil, err
	}
	docs := make([]core.Document, len(rows))
	for i, row := range rows {
		d := core.Document{}
		readSysFields(row, d)
		for _, f := range schema.Fields {
			if v := nativeFieldValue(row.FieldByName(goFieldName(f.Name))); v != nil {
				d[f.Name] = v
			}
		}
		docs[i] = d
	}
	return docs, nil
}

// WriteShredded encodes docs with plan.Root (e.g. "$data") written as a
// single VARIANT column: plan.Fields are promoted to typed_value
// leaves, everything else carried as the root's residual JSON value,
// per spec §4.4's shredded column layout.
func (ParquetCodec) WriteShredded(schema *Schema, plan ShreddingPlan, docs []core.Document) ([]byte, error) {
	detected := detectTypes(plan, docs)
	rowType, typedNames := shreddedRowType(plan, detected)
	pschema := parquet.SchemaOf(reflect.New(rowType).Interface())

	rows := make([]any, len(docs))
	for i, d := range docs {
		row := reflect.New(rowType).Elem()
		populateSysFields(row, d)
		populateVariant(row.FieldByName("Data"), plan, typedNames, detected, d)
		rows[i] = row.Addr().Interface()
	}

	meta := FileShredding{plan.Root: {Fields: fieldNames(plan.Fields), FieldTypes: fieldTypesOf(plan.Fields, detected)}}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, core.NewErrorf(core.CodeCorruption, "columnar.WriteShredded", schema.Collection, "marshal shredding metadata: %v", err)
	}
	return writeRows(pschema, map[string]string{ShreddingMetaKey: string(metaJSON)}, rows)
}

// ReadShredded decodes a file produced by WriteShredded back into
// Documents, using the file's own "parquedb.shredding" metadata to
// reconstruct the physical row type the data was written with.
func (ParquetCodec) ReadShredded(schema *Schema, root string, data []byte) ([]core.Document, error) {
	fs, err := ReadShreddingMetadata(data)
	if err != nil {
		return nil, err
	}
	rootMeta, ok := fs[root]
	if !ok {
		return nil, core.NewErrorf(core.CodeCorruption, "columnar.ReadShredded", schema.Collection, "no shredding metadata for root %q", root)
	}
	plan := ShreddingPlan{Root: root}
	detected := make(map[string]ShreddedType, len(rootMeta.Fields))
	for _, name := range rootMeta.Fields {
		t := ShreddedType(rootMeta.FieldTypes[name])
		plan.Fields = append(plan.Fields, ShreddedField{Name: name})
		detected[name] = t
	}

	rowType, typedNames := shreddedRowType(plan, detected)
	rows, err := readRows(rowType, data)
	if err != nil {
		return nil, err
	}

	docs := make([]core.Document, len(rows))
	for i, row := range rows {
		d := core.Document{}
		readSysFields(row, d)
		dataField := row.FieldByName("Data")
		if b, ok := dataField.FieldByName("Value").Interface().(*[]byte); ok && b != nil {
			residual, err := DecodeVariant(Variant{Value: *b})
			if err != nil {
				return nil, err
			}
			for k, v := range residual {
				d[k] = v
			}
		}
		typedValue := dataField.FieldByName("TypedValue")
		for _, f := range plan.Fields {
			leaf := typedValue.FieldByName(typedNames[f.Name]).FieldByName("TypedValue")
			if v := nativeFieldValue(leaf); v != nil {
				d[f.Name] = v
			}
		}
		docs[i] = d
	}
	return docs, nil
}

// ReadShreddingMetadata extracts the "parquedb.shredding" key-value
// metadata entry from a Parquet file, per spec §6.
func ReadShreddingMetadata(data []byte) (FileShredding, error) {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, core.NewErrorf(core.CodeCorruption, "columnar.ReadShreddingMetadata", "", "open: %v", err)
	}
	for _, kv := range f.Metadata().KeyValueMetadata {
		if kv.Key == ShreddingMetaKey {
			var fs FileShredding
			if err := json.Unmarshal([]byte(kv.Value), &fs); err != nil {
				return nil, core.NewErrorf(core.CodeCorruption, "columnar.ReadShreddingMetadata", "", "unmarshal: %v", err)
			}
			return fs, nil
		}
	}
	return FileShredding{}, nil
}

func writeRows(schema *parquet.Schema, kv map[string]string, rows []any) ([]byte, error) {
	opts := []parquet.WriterOption{schema}
	for k, v := range kv {
		opts = append(opts, parquet.KeyValueMetadata(k, v))
	}
	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[any](&buf, opts...)
	for i, row := range rows {
		if _, err := writer.Write([]any{row}); err != nil {
			return nil, core.NewErrorf(core.CodeIO, "columnar.writeRows", "", "write row %d: %v", i, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, core.NewErrorf(core.CodeIO, "columnar.writeRows", "", "close: %v", err)
	}
	return buf.Bytes(), nil
}

func readRows(rowType reflect.Type, data []byte) ([]reflect.Value, error) {
	reader := parquet.NewGenericReader[any](bytes.NewReader(data), parquet.SchemaOf(reflect.New(rowType).Interface()))
	defer reader.Close()

	out := make([]reflect.Value, 0, reader.NumRows())
	buf := make([]any, 128)
	for i := range buf {
		buf[i] = reflect.New(rowType).Interface()
	}
	for {
		n, err := reader.Read(buf)
		for i := 0; i < n; i++ {
			out = append(out, reflect.ValueOf(buf[i]).Elem())
			buf[i] = reflect.New(rowType).Interface()
		}
		if err != nil {
			break
		}
	}
	return out, nil
}

func populateSysFields(row reflect.Value, d core.Document) {
	id, _ := d["$id"].(string)
	typ, _ := d["$type"].(string)
	row.FieldByName("ID").SetString(id)
	row.FieldByName("Type").SetString(typ)
	row.FieldByName("CreatedAt").SetInt(intOf(d["createdAt"]))
	row.FieldByName("CreatedBy").SetString(stringOf(d["createdBy"]))
	row.FieldByName("UpdatedAt").SetInt(intOf(d["updatedAt"]))
	row.FieldByName("UpdatedBy").SetString(stringOf(d["updatedBy"]))
	row.FieldByName("Version").SetInt(intOf(d["version"]))
	if v, ok := d["deletedAt"]; ok && v != nil {
		n := intOf(v)
		row.FieldByName("DeletedAt").Set(reflect.ValueOf(&n))
	}
	if v, ok := d["deletedBy"].(string); ok {
		row.FieldByName("DeletedBy").Set(reflect.ValueOf(&v))
	}
}

func readSysFields(row reflect.Value, d core.Document) {
	d["$id"] = row.FieldByName("ID").String()
	d["$type"] = row.FieldByName("Type").String()
	d["createdAt"] = row.FieldByName("CreatedAt").Int()
	d["createdBy"] = row.FieldByName("CreatedBy").String()
	d["updatedAt"] = row.FieldByName("UpdatedAt").Int()
	d["updatedBy"] = row.FieldByName("UpdatedBy").String()
	d["version"] = row.FieldByName("Version").Int()
	if p := row.FieldByName("DeletedAt"); !p.IsNil() {
		d["deletedAt"] = p.Elem().Int()
	}
	if p := row.FieldByName("DeletedBy"); !p.IsNil() {
		d["deletedBy"] = p.Elem().String()
	}
}

func detectTypes(plan ShreddingPlan, docs []core.Document) map[string]ShreddedType {
	detected := make(map[string]ShreddedType, len(plan.Fields))
	for _, f := range plan.Fields {
		values := make([]any, 0, len(docs))
		for _, d := range docs {
			if v, ok := d[f.Name]; ok {
				values = append(values, v)
			}
		}
		detected[f.Name] = DetectShreddedType(values)
	}
	return detected
}

func populateVariant(dataField reflect.Value, plan ShreddingPlan, typedNames map[string]string, detected map[string]ShreddedType, d core.Document) {
	residual := map[string]any{}
	for k, v := range d {
		if core.IsMetadataField(k) {
			continue
		}
		if _, shredded := plan.Field(k); !shredded {
			residual[k] = v
		}
	}
	variant, err := EncodeVariant(residual)
	if err != nil {
		return
	}
	dataField.FieldByName("Metadata").SetBytes(variant.Metadata)
	if len(residual) > 0 {
		b := variant.Value
		dataField.FieldByName("Value").Set(reflect.ValueOf(&b))
	}
	typedValue := dataField.FieldByName("TypedValue")
	for _, f := range plan.Fields {
		v, ok := d[f.Name]
		if !ok {
			continue
		}
		leaf := typedValue.FieldByName(typedNames[f.Name]).FieldByName("TypedValue")
		setNativeField(leaf, physicalFor(detected[f.Name]), v)
	}
}

func fieldNames(fs []ShreddedField) []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}

func fieldTypesOf(fs []ShreddedField, detected map[string]ShreddedType) map[string]string {
	out := make(map[string]string, len(fs))
	for _, f := range fs {
		out[f.Name] = string(detected[f.Name])
	}
	return out
}

func physicalFor(t ShreddedType) PhysicalType {
	switch t {
	case ShreddedInt32:
		return PhysicalInt32
	case ShreddedInt64:
		return PhysicalInt64
	case ShreddedDouble:
		return PhysicalDouble
	case ShreddedBoolean:
		return PhysicalBoolean
	case ShreddedTimestamp:
		return PhysicalTimestamp
	default:
		return PhysicalString
	}
}
