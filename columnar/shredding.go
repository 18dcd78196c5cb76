package columnar

import (
	"encoding/json"
	"time"

	"github.com/parquedb/parquedb/core"
)

// ShreddingConfig configures ShreddingPlanner.Plan, per spec §4.4.
type ShreddingConfig struct {
	// ColumnName is the VARIANT root this config governs, e.g. "$data".
	ColumnName string
	// Always lists field names shredded unconditionally.
	Always []string
	// Auto enables shredding fields whose primitive kind is in
	// ShredTypes (or DefaultShredKinds if ShredTypes is empty).
	Auto bool
	// ShredTypes restricts auto-shredding to these kinds; empty means
	// DefaultShredKinds.
	ShredTypes []core.FieldKind
}

// DefaultShredKinds is spec §4.4's default shredTypes set.
var DefaultShredKinds = []core.FieldKind{
	core.KindEnum,
	core.KindBool, core.KindBoolean,
	core.KindDate, core.KindDatetime, core.KindTimestamp,
	core.KindInt, core.KindInteger, core.KindFloat, core.KindDouble, core.KindNumber,
}

// ShreddedField is one field the planner selected for promotion into
// its own typed column under a VARIANT root.
type ShreddedField struct {
	Name     string
	Physical PhysicalType
	Reason   string // "$shred" | "always" | "indexed" | "auto"
}

// ShreddingPlan is the result of ShreddingPlanner.Plan: the set of
// fields promoted to typed columns under cfg.ColumnName, plus the
// statistics paths predicate pushdown anchors to.
type ShreddingPlan struct {
	Root   string
	Fields []ShreddedField
}

// StatsPath returns the column-statistics path for a shredded field,
// per spec §4.4: "<root>.typed_value.<field>.typed_value".
func (p ShreddingPlan) StatsPath(field string) string {
	return p.Root + ".typed_value." + field + ".typed_value"
}

// Field looks up a shredded field's plan entry by name.
func (p ShreddingPlan) Field(name string) (ShreddedField, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return ShreddedField{}, false
}

// ShreddingPlanner decides which fields of a VARIANT column get
// promoted into typed leaves, per spec §4.4's selection rule.
type ShreddingPlanner struct{}

// Plan selects fields to shred for t under cfg.
func (ShreddingPlanner) Plan(t core.TypeDef, cfg ShreddingConfig) ShreddingPlan {
	shredSet := make(map[string]bool, len(t.Shred))
	for _, f := range t.Shred {
		shredSet[f] = true
	}
	alwaysSet := make(map[string]bool, len(cfg.Always))
	for _, f := range cfg.Always {
		alwaysSet[f] = true
	}
	kinds := cfg.ShredTypes
	if len(kinds) == 0 {
		kinds = DefaultShredKinds
	}
	kindSet := make(map[core.FieldKind]bool, len(kinds))
	for _, k := range kinds {
		kindSet[k] = true
	}

	plan := ShreddingPlan{Root: cfg.ColumnName}
	for _, f := range t.Fields {
		if core.IsMetadataField(f.Name) || isRelationshipField(t, f.Name) {
			continue
		}
		reason := ""
		switch {
		case shredSet[f.Name]:
			reason = "$shred"
		case alwaysSet[f.Name]:
			reason = "always"
		case f.Indexed:
			reason = "indexed"
		case cfg.Auto && kindSet[f.Kind]:
			reason = "auto"
		default:
			continue
		}
		_, physical := mapKind(f)
		plan.Fields = append(plan.Fields, ShreddedField{Name: f.Name, Physical: physical, Reason: reason})
	}
	return plan
}

// ShreddedType is the physical type of a shredded field's typed_value
// leaf, detected from observed values per spec §4.4.
type ShreddedType string

const (
	ShreddedInt32     ShreddedType = "INT32"
	ShreddedInt64     ShreddedType = "INT64"
	ShreddedDouble    ShreddedType = "DOUBLE"
	ShreddedBoolean   ShreddedType = "BOOLEAN"
	ShreddedTimestamp ShreddedType = "TIMESTAMP_MILLIS"
	ShreddedUTF8      ShreddedType = "UTF8"
)

// maxSafeInteger is 2^53-1, the threshold spec §4.4 uses to pick INT64
// over INT32 for integral numbers.
const maxSafeInteger = int64(1)<<53 - 1

// DetectShreddedType inspects observed values for a field and returns
// the typed_value leaf type to use, per spec §4.4: numbers choose
// INT32/INT64/DOUBLE, booleans BOOLEAN, dates TIMESTAMP_MILLIS, strings
// UTF8, nested objects/arrays degrade to UTF8 JSON.
func DetectShreddedType(values []any) ShreddedType {
	sawFloat := false
	sawInt64 := false
	for _, v := range values {
		switch x := v.(type) {
		case nil:
			continue
		case bool:
			return ShreddedBoolean
		case time.Time:
			return ShreddedTimestamp
		case string:
			return ShreddedUTF8
		case map[string]any, []any:
			return ShreddedUTF8
		case float64:
			if x != float64(int64(x)) {
				sawFloat = true
				continue
			}
			if int64(x) > maxSafeInteger || int64(x) < -maxSafeInteger {
				sawInt64 = true
			}
		case int, int32, int64:
			sawInt64 = sawInt64 || isOutsideInt32(x)
		}
	}
	switch {
	case sawFloat:
		return ShreddedDouble
	case sawInt64:
		return ShreddedInt64
	default:
		return ShreddedInt32
	}
}

func isOutsideInt32(v any) bool {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	}
	return n > int64(1<<31-1) || n < -int64(1<<31)
}

// degradeToJSON serializes a non-scalar shredded value (object or
// array) to UTF-8 JSON, the degradation path spec §4.4 names.
func degradeToJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", core.NewErrorf(core.CodeCorruption, "columnar.degradeToJSON", "", "marshal: %v", err)
	}
	return string(b), nil
}
