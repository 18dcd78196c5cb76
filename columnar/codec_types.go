package columnar

import (
	"reflect"
	"strings"
	"unicode"
)

// goFieldName sanitizes an arbitrary field name (which may start with
// "$" or contain characters invalid in a Go identifier) into an
// exported Go struct field name. The original name is preserved
// verbatim in the field's parquet struct tag, so the Parquet column
// name is never affected by this sanitization.
func goFieldName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		s = "Field"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "F" + s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// nativeGoType returns the Go type backing a Parquet physical type.
func nativeGoType(p PhysicalType) reflect.Type {
	switch p {
	case PhysicalInt32:
		return reflect.TypeOf(int32(0))
	case PhysicalInt64, PhysicalTimestamp:
		return reflect.TypeOf(int64(0))
	case PhysicalDouble:
		return reflect.TypeOf(float64(0))
	case PhysicalBoolean:
		return reflect.TypeOf(false)
	case PhysicalByteArray:
		return reflect.TypeOf([]byte(nil))
	default: // PhysicalString, PhysicalJSON
		return reflect.TypeOf("")
	}
}

func tagOption(p PhysicalType) string {
	if p == PhysicalTimestamp {
		return ",timestamp"
	}
	return ""
}

// flatRowType builds the physical struct type backing WriteFlat /
// ReadFlat: the fixed system/audit/soft-delete columns plus one
// optional pointer field per declared collection field.
func flatRowType(schema *Schema) reflect.Type {
	fields := sysStructFields()
	for _, f := range schema.Fields {
		ptrType := reflect.PointerTo(nativeGoType(f.Physical))
		tag := `parquet:"` + f.Name + `,optional` + tagOption(f.Physical) + `"`
		fields = append(fields, reflect.StructField{
			Name: goFieldName(f.Name),
			Type: ptrType,
			Tag:  reflect.StructTag(tag),
		})
	}
	return reflect.StructOf(fields)
}

// sysStructFields returns the reflect.StructField set for the fixed
// columns every collection snapshot carries: $id, $type, the audit
// quintuple, and the soft-delete pair, per spec §4.4.
func sysStructFields() []reflect.StructField {
	return []reflect.StructField{
		{Name: "ID", Type: reflect.TypeOf(""), Tag: `parquet:"$id"`},
		{Name: "Type", Type: reflect.TypeOf(""), Tag: `parquet:"$type"`},
		{Name: "CreatedAt", Type: reflect.TypeOf(int64(0)), Tag: `parquet:"createdAt,timestamp"`},
		{Name: "CreatedBy", Type: reflect.TypeOf(""), Tag: `parquet:"createdBy"`},
		{Name: "UpdatedAt", Type: reflect.TypeOf(int64(0)), Tag: `parquet:"updatedAt,timestamp"`},
		{Name: "UpdatedBy", Type: reflect.TypeOf(""), Tag: `parquet:"updatedBy"`},
		{Name: "Version", Type: reflect.TypeOf(int64(0)), Tag: `parquet:"version"`},
		{Name: "DeletedAt", Type: reflect.PointerTo(reflect.TypeOf(int64(0))), Tag: `parquet:"deletedAt,timestamp,optional"`},
		{Name: "DeletedBy", Type: reflect.PointerTo(reflect.TypeOf("")), Tag: `parquet:"deletedBy,optional"`},
	}
}

// shreddedRowType builds the physical struct type backing
// WriteShredded / ReadShredded: the fixed columns plus a single
// VARIANT-root group (metadata/value/typed_value), per spec §4.4's
// shredded column layout. It returns the row type and, for each
// shredded field name, the exported Go field name used to reach its
// "<field>_i" sub-group inside TypedValue.
func shreddedRowType(plan ShreddingPlan, detected map[string]ShreddedType) (reflect.Type, map[string]string) {
	typedNames := make(map[string]string, len(plan.Fields))
	subFields := make([]reflect.StructField, 0, len(plan.Fields))
	for _, f := range plan.Fields {
		goName := goFieldName(f.Name)
		typedNames[f.Name] = goName

		physical := physicalFor(detected[f.Name])
		leaf := reflect.StructOf([]reflect.StructField{
			{Name: "Value", Type: reflect.PointerTo(reflect.TypeOf([]byte(nil))), Tag: `parquet:"value,optional"`},
			{Name: "TypedValue", Type: reflect.PointerTo(nativeGoType(physical)), Tag: reflect.StructTag(`parquet:"typed_value,optional` + tagOption(physical) + `"`)},
		})
		subFields = append(subFields, reflect.StructField{
			Name: goName,
			Type: leaf,
			Tag:  reflect.StructTag(`parquet:"` + f.Name + `_i"`),
		})
	}
	typedValueType := reflect.StructOf(subFields)

	dataType := reflect.StructOf([]reflect.StructField{
		{Name: "Metadata", Type: reflect.TypeOf([]byte(nil)), Tag: `parquet:"metadata"`},
		{Name: "Value", Type: reflect.PointerTo(reflect.TypeOf([]byte(nil))), Tag: `parquet:"value,optional"`},
		{Name: "TypedValue", Type: typedValueType, Tag: `parquet:"typed_value"`},
	})

	fields := sysStructFields()
	fields = append(fields, reflect.StructField{
		Name: "Data",
		Type: dataType,
		Tag:  reflect.StructTag(`parquet:"` + plan.Root + `"`),
	})
	return reflect.StructOf(fields), typedNames
}

// setNativeField assigns v into field, a pointer-typed struct field
// matching physical. A nil v leaves the field as its zero (nil)
// pointer, producing a Parquet null per the optional columns used
// throughout these row types.
func setNativeField(field reflect.Value, physical PhysicalType, v any) {
	if v == nil {
		return
	}
	switch physical {
	case PhysicalInt32:
		n := int32(numberOf(v))
		field.Set(reflect.ValueOf(&n))
	case PhysicalInt64, PhysicalTimestamp:
		n := int64(numberOf(v))
		field.Set(reflect.ValueOf(&n))
	case PhysicalDouble:
		n := numberOf(v)
		field.Set(reflect.ValueOf(&n))
	case PhysicalBoolean:
		b, _ := v.(bool)
		field.Set(reflect.ValueOf(&b))
	default:
		s := stringOf(v)
		field.Set(reflect.ValueOf(&s))
	}
}

// nativeFieldValue reverses setNativeField for reads, converting a
// pointer-typed struct field back into a generic document value (nil
// if the field was null), using the same float64-for-numbers
// convention as encoding/json so decoded documents compare equal to
// documents built by unmarshaling JSON.
func nativeFieldValue(field reflect.Value) any {
	if field.Kind() != reflect.Pointer || field.IsNil() {
		return nil
	}
	elem := field.Elem()
	switch elem.Kind() {
	case reflect.Int32, reflect.Int64:
		return float64(elem.Int())
	case reflect.Float64:
		return elem.Float()
	case reflect.Bool:
		return elem.Bool()
	case reflect.Slice: // []byte
		return string(elem.Bytes())
	default:
		return elem.String()
	}
}

func numberOf(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	default:
		return 0
	}
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

func intOf(v any) int64 {
	return int64(numberOf(v))
}
