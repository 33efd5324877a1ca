// Package record declares record schemas and binds raw request data into
// typed records.
//
// A schema is derived by reflection from an ordinary struct: exported
// fields only, field names taken from the json tag, pointer fields
// optional. Field order is declaration order and is stable for the
// lifetime of the schema; output grouping depends on that stability.
package record

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the declared type of a schema field.
type Kind int

const (
	String Kind = iota
	Int
	Uint
	Float
	Bool
	UUID
	Time
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Int:
		return "integer"
	case Uint:
		return "integer"
	case Float:
		return "number"
	case Bool:
		return "boolean"
	case UUID:
		return "uuid"
	case Time:
		return "timestamp"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Field is one named, typed member of a Schema.
type Field struct {
	Name     string
	Kind     Kind
	Optional bool

	index int // struct field index
}

// Schema is an immutable, ordered field-name-to-type declaration describing
// one record shape. Obtain one with Of; schemas are cached per struct type.
type Schema struct {
	goType  reflect.Type
	fields  []Field
	byName  map[string]int
	columns []string
}

var schemaCache sync.Map // reflect.Type -> *Schema

// Of derives (or reuses a cached) Schema from the concrete struct type of
// prototype. prototype may be a struct value or a pointer to one.
func Of(prototype any) (*Schema, error) {
	if prototype == nil {
		return nil, fmt.Errorf("record: nil prototype")
	}
	rt := reflect.TypeOf(prototype)
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("record: prototype must be a struct, got %s", rt.Kind())
	}
	if v, ok := schemaCache.Load(rt); ok {
		return v.(*Schema), nil
	}
	s, err := buildSchema(rt)
	if err != nil {
		return nil, err
	}
	actual, _ := schemaCache.LoadOrStore(rt, s)
	return actual.(*Schema), nil
}

var (
	uuidType = reflect.TypeOf(uuid.UUID{})
	timeType = reflect.TypeOf(time.Time{})
)

func buildSchema(rt reflect.Type) (*Schema, error) {
	var fields []Field
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		jsonTag := f.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := f.Name
		if jsonTag != "" {
			if tagName := strings.Split(jsonTag, ",")[0]; tagName != "" {
				name = tagName
			}
		}

		ft := f.Type
		optional := ft.Kind() == reflect.Ptr
		if optional {
			ft = ft.Elem()
		}

		kind, err := kindOf(ft)
		if err != nil {
			return nil, fmt.Errorf("record: field %s of %s: %w", f.Name, rt.Name(), err)
		}

		fields = append(fields, Field{
			Name:     name,
			Kind:     kind,
			Optional: optional,
			index:    i,
		})
	}

	byName := make(map[string]int, len(fields))
	columns := make([]string, len(fields))
	for i, f := range fields {
		byName[f.Name] = i
		columns[i] = f.Name
	}

	return &Schema{
		goType:  rt,
		fields:  fields,
		byName:  byName,
		columns: columns,
	}, nil
}

func kindOf(ft reflect.Type) (Kind, error) {
	switch ft {
	case uuidType:
		return UUID, nil
	case timeType:
		return Time, nil
	}
	switch ft.Kind() {
	case reflect.String:
		return String, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Uint, nil
	case reflect.Float32, reflect.Float64:
		return Float, nil
	case reflect.Bool:
		return Bool, nil
	}
	return 0, fmt.Errorf("unsupported field type %s", ft)
}

// Fields returns the schema's fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Columns returns the ordered field-name list.
func (s *Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// SameShape reports whether two schemas declare identical field names in
// identical order. Shape equality ignores field types.
func (s *Schema) SameShape(other *Schema) bool {
	if other == nil || len(s.columns) != len(other.columns) {
		return false
	}
	for i, c := range s.columns {
		if other.columns[i] != c {
			return false
		}
	}
	return true
}

// Map converts a record of this schema's struct type into a plain key/value
// mapping with JSON-shaped values. The mapping re-binds through BindJSON to
// an equal record.
func (s *Schema) Map(rec any) (map[string]any, error) {
	rv := reflect.ValueOf(rec)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Type() != s.goType {
		return nil, fmt.Errorf("record: Map expects %s, got %s", s.goType, reflect.TypeOf(rec))
	}
	b, err := json.Marshal(rv.Interface())
	if err != nil {
		return nil, fmt.Errorf("record: failed to serialize record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("record: failed to reshape record: %w", err)
	}
	return m, nil
}
