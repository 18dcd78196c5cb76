package columnar

import (
	"encoding/json"
	"sort"

	"github.com/parquedb/parquedb/core"
)

// Variant is the tagged value spec §9 requires: a semi-structured
// payload modeled as binary metadata plus a binary value, never as a
// language-native dynamic object. Metadata lists the field names
// carried by Value, sorted, so two variants over the same field set
// produce byte-identical metadata regardless of map iteration order.
type Variant struct {
	Metadata []byte
	Value    []byte
}

// variantMetadata is the self-describing header encoded into
// Variant.Metadata: the sorted list of field names the value carries.
type variantMetadata struct {
	Fields []string `json:"fields"`
}

// EncodeVariant packs fields into a Variant. fields must be JSON
// marshalable; nested objects and arrays are carried as-is and degrade
// to UTF-8 JSON when later read back as a typed leaf (spec §4.4).
func EncodeVariant(fields map[string]any) (Variant, error) {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	meta, err := json.Marshal(variantMetadata{Fields: names})
	if err != nil {
		return Variant{}, core.NewErrorf(core.CodeCorruption, "columnar.EncodeVariant", "", "marshal metadata: %v", err)
	}
	val, err := json.Marshal(fields)
	if err != nil {
		return Variant{}, core.NewErrorf(core.CodeCorruption, "columnar.EncodeVariant", "", "marshal value: %v", err)
	}
	return Variant{Metadata: meta, Value: val}, nil
}

// DecodeVariant reverses EncodeVariant. A nil or empty Value decodes to
// an empty map, matching spec §4.4's "root value is null when all
// fields are shredded" case.
func DecodeVariant(v Variant) (map[string]any, error) {
	if len(v.Value) == 0 {
		return map[string]any{}, nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(v.Value, &out); err != nil {
		return nil, core.NewErrorf(core.CodeCorruption, "columnar.DecodeVariant", "", "unmarshal value: %v", err)
	}
	return out, nil
}

// EncodeScalar packs a single value into its JSON byte form.
// ParquetCodec does not use it: typed_value leaves hold native Parquet
// values written by setNativeField.
func EncodeScalar(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, core.NewErrorf(core.CodeCorruption, "columnar.EncodeScalar", "", "marshal scalar: %v", err)
	}
	return b, nil
}

// DecodeScalar reverses EncodeScalar.
func DecodeScalar(b []byte) (any, error) {
	var v any
	if len(b) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, core.NewErrorf(core.CodeCorruption, "columnar.DecodeScalar", "", "unmarshal scalar: %v", err)
	}
	return v, nil
}
