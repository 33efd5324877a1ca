package record

import (
	"errors"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

type pair struct {
	A int  `json:"a"`
	B *int `json:"b"`
}

func pairSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := Of(&pair{})
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}
	return s
}

func TestBindQuery(t *testing.T) {
	s := pairSchema(t)

	t.Run("coerces and leaves optional nil", func(t *testing.T) {
		rec, err := s.BindQuery(url.Values{"a": {"3"}})
		if err != nil {
			t.Fatalf("BindQuery failed: %v", err)
		}
		p := rec.(pair)
		if p.A != 3 {
			t.Fatalf("a = %d, want 3", p.A)
		}
		if p.B != nil {
			t.Fatalf("b = %v, want nil", *p.B)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		_, err := s.BindQuery(url.Values{"b": {"1"}})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if ve.Field != "a" {
			t.Fatalf("offending field = %q, want a", ve.Field)
		}
	})

	t.Run("unknown parameter", func(t *testing.T) {
		_, err := s.BindQuery(url.Values{"a": {"3"}, "wat": {"1"}})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("uncoercible value", func(t *testing.T) {
		if _, err := s.BindQuery(url.Values{"a": {"three"}}); err == nil {
			t.Fatalf("expected error for non-integer value")
		}
	})
}

func TestBindQuery_AllKinds(t *testing.T) {
	type everything struct {
		S  string    `json:"s"`
		N  int       `json:"n"`
		U  uint      `json:"u"`
		F  float64   `json:"f"`
		B  bool      `json:"b"`
		ID uuid.UUID `json:"id"`
		At time.Time `json:"at"`
	}
	s, err := Of(&everything{})
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}

	id := uuid.MustParse("97e69767-5d34-4c97-b36a-f3b2b1ef9dae")
	rec, err := s.BindQuery(url.Values{
		"s":  {"hello"},
		"n":  {"-4"},
		"u":  {"9"},
		"f":  {"2.5"},
		"b":  {"true"},
		"id": {id.String()},
		"at": {"2021-03-04T10:11:12Z"},
	})
	if err != nil {
		t.Fatalf("BindQuery failed: %v", err)
	}
	e := rec.(everything)
	if e.S != "hello" || e.N != -4 || e.U != 9 || e.F != 2.5 || !e.B || e.ID != id {
		t.Fatalf("unexpected bound record: %+v", e)
	}
	if !e.At.Equal(time.Date(2021, 3, 4, 10, 11, 12, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %v", e.At)
	}
}

func TestBindJSON(t *testing.T) {
	s := pairSchema(t)

	t.Run("integral number", func(t *testing.T) {
		rec, err := s.BindJSON(map[string]any{"a": float64(3)})
		if err != nil {
			t.Fatalf("BindJSON failed: %v", err)
		}
		if rec.(pair).A != 3 {
			t.Fatalf("a = %d, want 3", rec.(pair).A)
		}
	})

	t.Run("fractional number rejected for int field", func(t *testing.T) {
		if _, err := s.BindJSON(map[string]any{"a": 3.5}); err == nil {
			t.Fatalf("expected error for fractional value")
		}
	})

	t.Run("string coercion", func(t *testing.T) {
		rec, err := s.BindJSON(map[string]any{"a": "7"})
		if err != nil {
			t.Fatalf("BindJSON failed: %v", err)
		}
		if rec.(pair).A != 7 {
			t.Fatalf("a = %d, want 7", rec.(pair).A)
		}
	})

	t.Run("null optional accepted", func(t *testing.T) {
		rec, err := s.BindJSON(map[string]any{"a": float64(1), "b": nil})
		if err != nil {
			t.Fatalf("BindJSON failed: %v", err)
		}
		if rec.(pair).B != nil {
			t.Fatalf("b should be nil")
		}
	})

	t.Run("null required rejected", func(t *testing.T) {
		if _, err := s.BindJSON(map[string]any{"a": nil}); err == nil {
			t.Fatalf("expected error for null required field")
		}
	})
}

func TestBind_NarrowIntegerRange(t *testing.T) {
	type narrow struct {
		N int8  `json:"n"`
		U uint8 `json:"u"`
	}
	s, err := Of(&narrow{})
	if err != nil {
		t.Fatalf("Of failed: %v", err)
	}

	t.Run("query value out of range rejected", func(t *testing.T) {
		// 300 fits in an int64 but not an int8; it must fail, not wrap.
		_, err := s.BindQuery(url.Values{"n": {"300"}, "u": {"1"}})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if ve.Field != "n" {
			t.Fatalf("offending field = %q, want n", ve.Field)
		}
	})

	t.Run("query negative rejected for unsigned", func(t *testing.T) {
		if _, err := s.BindQuery(url.Values{"n": {"1"}, "u": {"-1"}}); err == nil {
			t.Fatalf("expected error for negative unsigned value")
		}
	})

	t.Run("json value out of range rejected", func(t *testing.T) {
		if _, err := s.BindJSON(map[string]any{"n": float64(300), "u": float64(1)}); err == nil {
			t.Fatalf("expected error for out-of-range value")
		}
		if _, err := s.BindJSON(map[string]any{"n": float64(1), "u": float64(256)}); err == nil {
			t.Fatalf("expected error for out-of-range unsigned value")
		}
	})

	t.Run("boundary values bind", func(t *testing.T) {
		rec, err := s.BindQuery(url.Values{"n": {"-128"}, "u": {"255"}})
		if err != nil {
			t.Fatalf("BindQuery failed: %v", err)
		}
		got := rec.(narrow)
		if got.N != -128 || got.U != 255 {
			t.Fatalf("unexpected bound record: %+v", got)
		}
	})
}

func TestBindJSON_HugeNumberRejected(t *testing.T) {
	s := pairSchema(t)
	// Integral, but far beyond what any integer field can hold.
	if _, err := s.BindJSON(map[string]any{"a": 1e30}); err == nil {
		t.Fatalf("expected error for oversized number")
	}
	if _, err := s.BindJSON(map[string]any{"a": -1e30}); err == nil {
		t.Fatalf("expected error for oversized negative number")
	}
}

func TestBindAll_AllOrNothing(t *testing.T) {
	s := pairSchema(t)
	items := []map[string]any{
		{"a": float64(1)},
		{"b": float64(2)}, // missing required a
	}
	recs, err := BindAll(s, items)
	if err == nil {
		t.Fatalf("expected batch failure")
	}
	if recs != nil {
		t.Fatalf("no partial list may be returned, got %v", recs)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Item != 1 || ve.Field != "a" {
		t.Fatalf("unexpected error detail: item %d field %q", ve.Item, ve.Field)
	}
}

func TestMap_RoundTrip(t *testing.T) {
	s := pairSchema(t)
	rec, err := s.BindQuery(url.Values{"a": {"3"}})
	if err != nil {
		t.Fatalf("BindQuery failed: %v", err)
	}
	m, err := s.Map(rec)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	again, err := s.BindJSON(m)
	if err != nil {
		t.Fatalf("re-bind failed: %v", err)
	}
	if !reflect.DeepEqual(rec, again) {
		t.Fatalf("round trip mismatch: %+v != %+v", rec, again)
	}
}
