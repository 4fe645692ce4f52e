// Package projection maps (entity kind, operation) pairs to the exact field
// shape used to render output and validate input for that operation.
//
// The registry is a static table built once at startup; nothing is derived
// from live objects at request time.
package projection

import "github.com/civikit/catalog/internal/catalog/domain"

// Operation names one catalog operation with a registered projection.
type Operation string

const (
	// OperationList renders collection pages.
	OperationList Operation = "list"
	// OperationRetrieve renders a single record.
	OperationRetrieve Operation = "retrieve"
	// OperationCreate validates creation payloads.
	OperationCreate Operation = "create"
	// OperationUpdate validates update payloads.
	OperationUpdate Operation = "update"
)

// Operations returns the registrable operations in presentation order.
func Operations() []Operation {
	return []Operation{OperationList, OperationRetrieve, OperationCreate, OperationUpdate}
}

// FieldType tags the wire type of a projected field.
type FieldType string

const (
	TypeInteger FieldType = "integer"
	TypeString  FieldType = "string"
	TypeBoolean FieldType = "boolean"
	TypeChoice  FieldType = "choice"
	TypeURL     FieldType = "url"
	// TypeRelated marks references to other records.
	TypeRelated FieldType = "field"
	// TypeNested marks an embedded sub-object rendered through a child spec.
	TypeNested FieldType = "nested object"
)

// Field describes one projected field: how it renders on reads and what it
// accepts on writes.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	ReadOnly bool
	// Relational fields reference other records; their choice sets are
	// never exposed through introspection.
	Relational bool
	// Many marks a relational field carrying a list of references.
	Many      bool
	Label     string
	HelpText  string
	MinLength int
	MaxLength int

	// Choices constrains writable values to a closed set and feeds
	// introspection.
	Choices func() []domain.Choice
	// Display substitutes the stored value with its display label when the
	// field renders.
	Display func(string) string

	// Child renders a single embedded sub-object; Children renders a
	// collection of them. At most one of the two is set.
	Child    *Spec
	Children *Spec
}

// Spec is the projection for one operation on one entity kind.
type Spec struct {
	Kind      domain.Kind
	Operation Operation
	Fields    []Field
}

// Field returns the named field of this spec.
func (s Spec) Field(name string) (Field, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// FieldNames returns the projected field names in order.
func (s Spec) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		names = append(names, field.Name)
	}
	return names
}

// Writable returns the fields a payload may set through this spec.
func (s Spec) Writable() []Field {
	out := make([]Field, 0, len(s.Fields))
	for _, field := range s.Fields {
		if !field.ReadOnly {
			out = append(out, field)
		}
	}
	return out
}
