package prediction

import (
	"fmt"
	"sort"
)

// SchemaVersion identifies the output contract. Bump it whenever OutputSchema
// or Prediction changes.
const SchemaVersion = "2025-06-01"

type SchemaType string

const (
	TypeObject SchemaType = "OBJECT"
	TypeArray  SchemaType = "ARRAY"
	TypeString SchemaType = "STRING"
	TypeNumber SchemaType = "NUMBER"
)

// Schema is a small subset of OpenAPI schema, enough to describe the model's
// output and to validate a decoded reply against it. Model adapters translate it
// into their own wire type.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
}

// OutputSchema is the structured-output contract sent to the model and used to
// validate its reply.
var OutputSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"predictedDisease": {
			Type:        TypeString,
			Description: "The most likely disease based on the symptoms.",
		},
		"confidenceScore": {
			Type:        TypeNumber,
			Description: "A confidence score between 0 and 1 for the main prediction.",
		},
		"explanation": {
			Type:        TypeString,
			Description: "A brief, easy-to-understand explanation of why this disease is predicted, mentioning key symptoms.",
		},
		"importantSymptoms": {
			Type:        TypeArray,
			Description: "A list of 2-3 of the most influential symptoms from the user's list that led to this prediction.",
			Items:       &Schema{Type: TypeString},
		},
		"differentialDiagnosis": {
			Type:        TypeArray,
			Description: "A list of 2-3 other possible diseases with their confidence scores, sorted from most to least likely.",
			Items: &Schema{
				Type: TypeObject,
				Properties: map[string]*Schema{
					"disease":    {Type: TypeString},
					"confidence": {Type: TypeNumber},
				},
				Required: []string{"disease", "confidence"},
			},
		},
		"precautions": {
			Type:        TypeArray,
			Description: "A list of 2-4 general precautions for the predicted disease.",
			Items:       &Schema{Type: TypeString},
		},
		"treatment": {
			Type:        TypeArray,
			Description: "A list of 2-4 common, general, over-the-counter or home-care treatment suggestions. This should not include prescription medications.",
			Items:       &Schema{Type: TypeString},
		},
	},
	Required: []string{
		"predictedDisease",
		"confidenceScore",
		"explanation",
		"importantSymptoms",
		"differentialDiagnosis",
		"precautions",
		"treatment",
	},
}

// PropertyNames returns the object's property names sorted, for stable output.
func (s *Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks a value produced by encoding/json against the schema.
// Only presence and type are checked; string content is free text.
func (s *Schema) Validate(v interface{}) error {
	return s.validate("$", v)
}

func (s *Schema) validate(path string, v interface{}) error {
	switch s.Type {
	case TypeObject:
		obj, ok := v.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%s: expected object", path)
		}
		for _, name := range s.Required {
			if val, ok := obj[name]; !ok || val == nil {
				return fmt.Errorf("%s.%s: required field missing", path, name)
			}
		}
		for _, name := range s.PropertyNames() {
			val, ok := obj[name]
			if !ok || val == nil {
				continue
			}
			if err := s.Properties[name].validate(path+"."+name, val); err != nil {
				return err
			}
		}
	case TypeArray:
		arr, ok := v.([]interface{})
		if !ok {
			return fmt.Errorf("%s: expected array", path)
		}
		if s.Items == nil {
			return nil
		}
		for i, item := range arr {
			if err := s.Items.validate(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
				return err
			}
		}
	case TypeString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%s: expected string", path)
		}
	case TypeNumber:
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("%s: expected number", path)
		}
	default:
		return fmt.Errorf("%s: unsupported schema type %q", path, s.Type)
	}
	return nil
}
