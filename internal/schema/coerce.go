package schema

import (
	"math"
	"strconv"
	"strings"
)

// Coerce converts v to the column's kind: int64, float64, string or nil.
// Values that cannot be represented become nil; coercion never fails.
func (c Column) Coerce(v any) any {
	switch c.Kind {
	case KindInt:
		if n := CoerceInt(v); n != nil {
			return *n
		}
	case KindFloat:
		if f := CoerceFloat(v); f != nil {
			return *f
		}
	default:
		if s := CoerceText(v); s != nil {
			return *s
		}
	}
	return nil
}

// CoerceFloat returns v as a finite float64, or nil for NULL, blank,
// non-numeric, NaN and infinite inputs.
func CoerceFloat(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int64:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case []byte:
		return CoerceFloat(string(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// CoerceInt returns v as an int64. Fractional values truncate toward zero
// the way CAST(x AS INTEGER) does; out-of-range and non-numeric inputs are nil.
func CoerceInt(v any) *int64 {
	switch x := v.(type) {
	case nil:
		return nil
	case int64:
		return &x
	case int:
		n := int64(x)
		return &n
	case int32:
		n := int64(x)
		return &n
	case []byte:
		return CoerceInt(string(x))
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return &n
		}
	}
	f := CoerceFloat(v)
	if f == nil || math.Abs(*f) >= math.MaxInt64 {
		return nil
	}
	n := int64(math.Trunc(*f))
	return &n
}

// CoerceText returns v as a string. Empty strings are NULL.
func CoerceText(v any) *string {
	var s string
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		s = x
	case []byte:
		s = string(x)
	case int64:
		s = strconv.FormatInt(x, 10)
	case int:
		s = strconv.Itoa(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(x)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}
