package storeaddr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CanonicalJSON renders v (built from map[string]any, []any, string,
// int64, bool, nil, or a nested combination of those) as a deterministic
// byte sequence: object keys sorted lexicographically, arrays kept in
// declared order, integers written as minimal base-10 decimal (not
// padded to a fixed width). Floating point
// values are rejected — spec §3 requires "no floats in hashed fields",
// so any value we hash must already have been reduced to ints/strings/
// hashes before it reaches here.
func CanonicalJSON(v any) ([]byte, error) {
	var b strings.Builder
	if err := encode(&b, v); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func encode(b *strings.Builder, v any) error {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string:
		encodeString(b, t)
	case int:
		b.WriteString(strconv.FormatInt(int64(t), 10))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case float64:
		return fmt.Errorf("storeaddr: float64 value not allowed in hashed fields")
	case map[string]any:
		return encodeObject(b, t)
	case []any:
		return encodeArray(b, t)
	case []string:
		arr := make([]any, len(t))
		for i, s := range t {
			arr[i] = s
		}
		return encodeArray(b, arr)
	default:
		return fmt.Errorf("storeaddr: unsupported type %T in canonical encoding", v)
	}
	return nil
}

func encodeObject(b *strings.Builder, m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		encodeString(b, k)
		b.WriteByte(':')
		if err := encode(b, m[k]); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}

func encodeArray(b *strings.Builder, a []any) error {
	b.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := encode(b, v); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

func encodeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
