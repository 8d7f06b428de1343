package schema

import (
	"math"
	"time"
)

// Document is a loosely typed candidate record, usually decoded straight from
// a JSON request body and completed with server-owned fields.
type Document map[string]any

// Clone returns a shallow copy so callers can add fields without touching the
// caller's map.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func (d Document) has(field string) bool {
	v, ok := d[field]
	return ok && v != nil
}

func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// OptString returns nil when the field is absent or not a string.
func (d Document) OptString(field string) *string {
	s, ok := d[field].(string)
	if !ok {
		return nil
	}
	return &s
}

func (d Document) Float(field string) float64 {
	f, _ := toFloat(d[field])
	return f
}

func (d Document) OptFloat(field string) *float64 {
	f, ok := toFloat(d[field])
	if !ok {
		return nil
	}
	return &f
}

func (d Document) Int32(field string) int32 {
	n, _ := toInt32(d[field])
	return n
}

func (d Document) Time(field string) time.Time {
	t, _ := d[field].(time.Time)
	return t
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func toInt32(v any) (int32, bool) {
	var n int64
	switch x := v.(type) {
	case int32:
		return x, true
	case int:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, false
		}
		if x < math.MinInt32 || x > math.MaxInt32 {
			return 0, false
		}
		return int32(x), true
	default:
		return 0, false
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, false
	}
	return int32(n), true
}
