package record

import (
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ValidationError reports raw input that failed to bind against a schema.
// Binding is all-or-nothing: no partially bound record is ever returned
// alongside one.
type ValidationError struct {
	// Field is the offending field name, or "" when the failure is not
	// attributable to a single field.
	Field string
	// Item is the index of the offending input within a batch, or -1 for a
	// single-input bind.
	Item int
	Msg  string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Item >= 0 && e.Field != "":
		return fmt.Sprintf("input %d: field %s: %s", e.Item, e.Field, e.Msg)
	case e.Item >= 0:
		return fmt.Sprintf("input %d: %s", e.Item, e.Msg)
	case e.Field != "":
		return fmt.Sprintf("field %s: %s", e.Field, e.Msg)
	}
	return e.Msg
}

func failf(field, format string, a ...any) *ValidationError {
	return &ValidationError{Field: field, Item: -1, Msg: fmt.Sprintf(format, a...)}
}

// BindQuery binds single-level, string-valued parameters (query-string
// style) into one typed record, coercing each value per its declared field
// kind. Missing required fields, unknown parameters and uncoercible values
// all yield a *ValidationError. The returned record is a value of the
// schema's struct type; it is never partially populated on failure.
func (s *Schema) BindQuery(vals url.Values) (any, error) {
	for key := range vals {
		if _, ok := s.byName[key]; !ok {
			return nil, failf(key, "unknown parameter")
		}
	}

	fresh := reflect.New(s.goType).Elem()
	for _, f := range s.fields {
		if !vals.Has(f.Name) {
			if f.Optional {
				continue
			}
			return nil, failf(f.Name, "is required")
		}
		dst := fresh.Field(f.index)
		if f.Optional {
			dst.Set(reflect.New(dst.Type().Elem()))
			dst = dst.Elem()
		}
		if err := assignString(dst, f, vals.Get(f.Name)); err != nil {
			return nil, failf(f.Name, "%s", err)
		}
	}
	return fresh.Interface(), nil
}

// BindJSON binds one decoded JSON object into one typed record. JSON null
// and absence are both accepted for optional fields and rejected for
// required ones.
func (s *Schema) BindJSON(raw map[string]any) (any, error) {
	for key := range raw {
		if _, ok := s.byName[key]; !ok {
			return nil, failf(key, "unknown parameter")
		}
	}

	fresh := reflect.New(s.goType).Elem()
	for _, f := range s.fields {
		v, present := raw[f.Name]
		if !present || v == nil {
			if f.Optional {
				continue
			}
			return nil, failf(f.Name, "is required")
		}
		dst := fresh.Field(f.index)
		if f.Optional {
			dst.Set(reflect.New(dst.Type().Elem()))
			dst = dst.Elem()
		}
		if err := assignJSON(dst, f, v); err != nil {
			return nil, failf(f.Name, "%s", err)
		}
	}
	return fresh.Interface(), nil
}

// BindAll binds a batch of decoded JSON objects, one record per object. The
// batch either validates in full or fails as a whole with the first
// offending item's error; no partial list is returned.
func BindAll(s *Schema, items []map[string]any) ([]any, error) {
	out := make([]any, 0, len(items))
	for i, raw := range items {
		rec, err := s.BindJSON(raw)
		if err != nil {
			if ve, ok := err.(*ValidationError); ok {
				return nil, &ValidationError{Field: ve.Field, Item: i, Msg: ve.Msg}
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func assignString(dst reflect.Value, f Field, raw string) error {
	switch f.Kind {
	case String:
		dst.SetString(raw)
	case Int:
		n, err := strconv.ParseInt(raw, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("expected an integer in range, got %q", raw)
		}
		dst.SetInt(n)
	case Uint:
		n, err := strconv.ParseUint(raw, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("expected a non-negative integer in range, got %q", raw)
		}
		dst.SetUint(n)
	case Float:
		n, err := strconv.ParseFloat(raw, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("expected a number, got %q", raw)
		}
		dst.SetFloat(n)
	case Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("expected a boolean, got %q", raw)
		}
		dst.SetBool(b)
	case UUID:
		u, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("expected a UUID, got %q", raw)
		}
		dst.Set(reflect.ValueOf(u))
	case Time:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("expected an RFC 3339 timestamp, got %q", raw)
		}
		dst.Set(reflect.ValueOf(t))
	default:
		return fmt.Errorf("unsupported field kind %s", f.Kind)
	}
	return nil
}

func assignJSON(dst reflect.Value, f Field, v any) error {
	// Strings coerce the same way query parameters do, so that clients may
	// send numbers and UUIDs as JSON strings.
	if raw, ok := v.(string); ok {
		return assignString(dst, f, raw)
	}
	switch f.Kind {
	case String:
		return fmt.Errorf("expected a string, got %T", v)
	case Int:
		n, ok := asIntegral(v)
		if !ok || dst.OverflowInt(n) {
			return fmt.Errorf("expected an integer in range, got %v", v)
		}
		dst.SetInt(n)
	case Uint:
		n, ok := asIntegral(v)
		if !ok || n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("expected a non-negative integer in range, got %v", v)
		}
		dst.SetUint(uint64(n))
	case Float:
		n, ok := v.(float64)
		if !ok {
			return fmt.Errorf("expected a number, got %T", v)
		}
		dst.SetFloat(n)
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("expected a boolean, got %T", v)
		}
		dst.SetBool(b)
	case UUID:
		return fmt.Errorf("expected a UUID string, got %T", v)
	case Time:
		return fmt.Errorf("expected an RFC 3339 timestamp string, got %T", v)
	default:
		return fmt.Errorf("unsupported field kind %s", f.Kind)
	}
	return nil
}

// asIntegral accepts JSON numbers that carry an exact integral value.
// Magnitudes at or beyond 2^63 no longer convert exactly, so they are
// rejected rather than converted.
func asIntegral(v any) (int64, bool) {
	n, ok := v.(float64)
	if !ok || n != math.Trunc(n) {
		return 0, false
	}
	if n < math.MinInt64 || n >= math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}
