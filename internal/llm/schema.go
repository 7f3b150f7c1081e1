package llm

// SchemaType names a JSON value type in a Schema.
type SchemaType string

const (
	TypeObject SchemaType = "object"
	TypeArray  SchemaType = "array"
	TypeString SchemaType = "string"
	TypeNumber SchemaType = "number"
)

// Schema is a provider-neutral description of the structured answer a model must return.
// Provider clients translate it into their own schema types.
type Schema struct {
	Type             SchemaType
	Description      string
	Properties       map[string]*Schema
	PropertyOrdering []string
	Required         []string
	Items            *Schema
	Minimum          *float64
	Maximum          *float64
}

func float(v float64) *float64 { return &v }

func stringList(desc string) *Schema {
	return &Schema{Type: TypeArray, Description: desc, Items: &Schema{Type: TypeString}}
}

var resultKeys = []string{"matchScore", "skillsMatched", "missingSkills", "suggestions", "extraEdgeSuggestions"}

// ResultSchema declares the Result Contract: a 0..100 score and four lists.
var ResultSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"matchScore": {
			Type:        TypeNumber,
			Description: "Overall fit between resume and job description, 0 to 100.",
			Minimum:     float(0),
			Maximum:     float(100),
		},
		"skillsMatched": stringList("Keywords present in both the resume and the job description."),
		"missingSkills": stringList("Keywords required by the job description but absent from the resume."),
		"suggestions":   stringList("Actionable improvements to content or formatting."),
		"extraEdgeSuggestions": {
			Type:        TypeArray,
			Description: "Strategic improvements that help the candidate stand out.",
			Items: &Schema{
				Type: TypeObject,
				Properties: map[string]*Schema{
					"title":       {Type: TypeString},
					"description": {Type: TypeString},
				},
				PropertyOrdering: []string{"title", "description"},
				Required:         []string{"title", "description"},
			},
		},
	},
	PropertyOrdering: resultKeys,
	Required:         resultKeys,
}

// JSONSchema renders s as a JSON Schema document. Objects are closed
// (additionalProperties false) and every property is required, which is what strict
// structured-output modes expect. Numeric bounds are left to the result validator.
func (s *Schema) JSONSchema() map[string]any {
	out := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	switch s.Type {
	case TypeObject:
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = prop.JSONSchema()
		}
		out["properties"] = props
		out["required"] = append([]string(nil), s.order()...)
		out["additionalProperties"] = false
	case TypeArray:
		if s.Items != nil {
			out["items"] = s.Items.JSONSchema()
		}
	}
	return out
}

func (s *Schema) order() []string {
	if len(s.PropertyOrdering) > 0 {
		return s.PropertyOrdering
	}
	return s.Required
}
