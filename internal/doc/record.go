package doc

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// IDField is the identity field of every stored record.
const IDField = "_id"

// TimeLayout is the canonical string form of timestamps inside records.
const TimeLayout = "2006-01-02T15:04:05"

// Record is a single schemaless document.
type Record map[string]any

// ID returns the record identity rendered as a string ("" when absent).
func (r Record) ID() string {
	return r.String(IDField)
}

// Has reports whether the field is present (even if its value is nil).
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// String returns the field as a string. Missing and nil fields yield "".
// Non-string scalars are formatted; timestamps use TimeLayout.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.Format(TimeLayout)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// Number returns the field as a float64. ok is false when the field is
// missing or not numeric.
func (r Record) Number(field string) (float64, bool) {
	return ToFloat(r[field])
}

// Float returns the numeric field value, or 0 when missing or non-numeric.
func (r Record) Float(field string) float64 {
	f, _ := r.Number(field)
	return f
}

// Bool returns the field as a bool. ok is false when the field is missing
// or not a boolean; callers that need "explicitly false" must check ok.
func (r Record) Bool(field string) (value, ok bool) {
	b, ok := r[field].(bool)
	return b, ok
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ToFloat converts any numeric Go value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Normalize converts a decoded value into the record value set:
// integers become int64, floats float64 (integral json.Numbers become
// int64), time.Time becomes a TimeLayout string, maps become Records and
// slices become []any. Unknown types are returned unchanged.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil, string, bool, int64, float64:
		return val
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		if val > math.MaxInt64 {
			return float64(val)
		}
		return int64(val)
	case float32:
		return float64(val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case time.Time:
		return val.UTC().Format(TimeLayout)
	case Record:
		return NormalizeRecord(val)
	case map[string]any:
		return NormalizeRecord(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Normalize(elem)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = elem
		}
		return out
	case []Record:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = NormalizeRecord(elem)
		}
		return out
	default:
		return val
	}
}

// NormalizeRecord applies Normalize to every field of m.
func NormalizeRecord(m map[string]any) Record {
	if m == nil {
		return nil
	}
	out := make(Record, len(m))
	for k, v := range m {
		out[k] = Normalize(v)
	}
	return out
}
