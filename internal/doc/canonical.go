package doc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON (RFC 8785 style) for v.
//
// Differences from encoding/json:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping and no escaping of U+2028/U+2029
//  3. Strings are NFC normalized
//  4. No insignificant whitespace
//
// Golden transcripts compare these bytes, so the output for a given value
// must never change.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case string:
		writeCanonicalString(buf, val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float64:
		return writeCanonicalFloat(buf, val)
	case time.Time:
		writeCanonicalString(buf, val.Format(TimeLayout))
	case Record:
		return writeCanonicalObject(buf, val)
	case map[string]any:
		return writeCanonicalObject(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case []Record:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalObject(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case []string:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalString(buf, elem)
		}
		buf.WriteByte(']')
	default:
		switch n := Normalize(v).(type) {
		case int64, float64:
			return writeCanonical(buf, n)
		}
		// Structs and named types go through a JSON round trip.
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("unsupported type for canonical JSON: %T: %w", v, err)
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var decoded any
		if err := dec.Decode(&decoded); err != nil {
			return fmt.Errorf("unsupported type for canonical JSON: %T: %w", v, err)
		}
		return writeCanonical(buf, Normalize(decoded))
	}
	return nil
}

// writeCanonicalFloat renders integral values without a fraction and all
// other values in their shortest round-trip form.
func writeCanonicalFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite number in canonical JSON: %v", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

func writeCanonicalObject(buf *bytes.Buffer, obj map[string]any) error {
	buf.WriteByte('{')
	for i, k := range SortedKeys(obj) {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeCanonicalString(buf, k)
		buf.WriteByte(':')
		if err := writeCanonical(buf, obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeCanonicalString escapes only the quote, the backslash and control
// characters below U+0020, after NFC normalization.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x20:
			fmt.Fprintf(buf, `\u%04x`, r)
		default:
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}

// SortedKeys returns the keys of m in RFC 8785 order (UTF-16 code units).
// Go's sort.Strings orders by UTF-8 bytes, which differs for characters
// outside the Basic Multilingual Plane.
func SortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
