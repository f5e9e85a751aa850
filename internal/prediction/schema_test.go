package prediction

import (
	"reflect"
	"strings"
	"testing"
)

// The schema and the Prediction struct must describe the same fields.
func TestOutputSchemaMatchesPredictionFields(t *testing.T) {
	typ := reflect.TypeOf(Prediction{})
	fields := []string{}
	for i := 0; i < typ.NumField(); i++ {
		tag := strings.Split(typ.Field(i).Tag.Get("json"), ",")[0]
		fields = append(fields, tag)
	}

	if len(fields) != len(OutputSchema.Properties) {
		t.Fatalf("schema has %d properties, struct has %d fields", len(OutputSchema.Properties), len(fields))
	}
	required := map[string]bool{}
	for _, r := range OutputSchema.Required {
		required[r] = true
	}
	for _, f := range fields {
		if _, ok := OutputSchema.Properties[f]; !ok {
			t.Fatalf("field %q missing from schema", f)
		}
		if !required[f] {
			t.Fatalf("field %q is not required", f)
		}
	}
}

func TestValidateReportsPath(t *testing.T) {
	s := &Schema{Type: TypeObject, Properties: map[string]*Schema{
		"items": {Type: TypeArray, Items: &Schema{Type: TypeNumber}},
	}}
	err := s.Validate(map[string]interface{}{"items": []interface{}{1.0, "two"}})
	if err == nil || !strings.Contains(err.Error(), "$.items[1]") {
		t.Fatalf("expected path in error, got %v", err)
	}
}

func TestPropertyNamesSorted(t *testing.T) {
	names := OutputSchema.PropertyNames()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}
