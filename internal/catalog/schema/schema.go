// Package schema derives machine-readable field descriptions from projection
// specs. Descriptors feed the metadata endpoint clients use to render forms
// without hardcoding the catalog shape.
package schema

import (
	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/projection"
)

// FieldDescriptor describes one projected field for introspection.
type FieldDescriptor struct {
	Type     string `json:"type"`
	Required bool   `json:"required"`
	ReadOnly bool   `json:"read_only"`
	Label    string `json:"label"`
	HelpText string `json:"help_text,omitempty"`

	MinLength int `json:"min_length,omitempty"`
	MaxLength int `json:"max_length,omitempty"`

	// Choices lists the closed value set for writable choice fields.
	// Read-only and relational fields never expose choices.
	Choices []ChoiceDescriptor `json:"choices,omitempty"`

	// Child describes the element shape of a nested collection; Children
	// describes the fields of a single nested sub-object.
	Child    *FieldDescriptor           `json:"child,omitempty"`
	Children map[string]FieldDescriptor `json:"children,omitempty"`
}

// ChoiceDescriptor pairs a storable value with its display name.
type ChoiceDescriptor struct {
	Value       string `json:"value"`
	DisplayName string `json:"display_name"`
}

// Describe derives the field descriptors for one projection spec.
func Describe(spec projection.Spec) map[string]FieldDescriptor {
	out := make(map[string]FieldDescriptor, len(spec.Fields))
	for _, field := range spec.Fields {
		out[field.Name] = describeField(field)
	}
	return out
}

// DescribeOperations derives descriptors for every operation registered for a
// kind, keyed by operation.
func DescribeOperations(registry *projection.Registry, kind domain.Kind) map[projection.Operation]map[string]FieldDescriptor {
	operations := registry.RegisteredOperations(kind)
	out := make(map[projection.Operation]map[string]FieldDescriptor, len(operations))
	for _, operation := range operations {
		out[operation] = Describe(registry.ProjectionFor(kind, operation))
	}
	return out
}

func describeField(field projection.Field) FieldDescriptor {
	desc := FieldDescriptor{
		Type:      string(field.Type),
		Required:  field.Required,
		ReadOnly:  field.ReadOnly,
		Label:     field.Label,
		HelpText:  field.HelpText,
		MinLength: field.MinLength,
		MaxLength: field.MaxLength,
	}
	switch {
	case field.Children != nil:
		desc.Type = "list"
		element := FieldDescriptor{
			Type:     string(projection.TypeNested),
			ReadOnly: field.ReadOnly,
			Label:    field.Label,
			Children: Describe(*field.Children),
		}
		desc.Child = &element
	case field.Child != nil:
		desc.Children = Describe(*field.Child)
	case field.Choices != nil && !field.ReadOnly && !field.Relational:
		for _, choice := range field.Choices() {
			desc.Choices = append(desc.Choices, ChoiceDescriptor{
				Value:       choice.Value,
				DisplayName: choice.Label,
			})
		}
	}
	return desc
}
