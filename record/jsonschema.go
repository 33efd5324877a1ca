package record

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// JSONSchema reflects the schema's struct type into a JSON Schema document
// for machine discovery. Definitions are inlined and the struct sits at the
// document root.
func (s *Schema) JSONSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return r.Reflect(reflect.New(s.goType).Interface())
}
