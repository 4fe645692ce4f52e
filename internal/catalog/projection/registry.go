package projection

import "github.com/civikit/catalog/internal/catalog/domain"

// Registry resolves the projection for an (entity kind, operation) pair.
// Unregistered operations fall back to the kind's full-field default spec.
type Registry struct {
	specs    map[domain.Kind]map[Operation]Spec
	defaults map[domain.Kind]Spec
}

// NewRegistry creates an empty projection registry.
func NewRegistry() *Registry {
	return &Registry{
		specs:    map[domain.Kind]map[Operation]Spec{},
		defaults: map[domain.Kind]Spec{},
	}
}

// Register adds the projection for one operation of a kind.
func (r *Registry) Register(spec Spec) {
	byOp, ok := r.specs[spec.Kind]
	if !ok {
		byOp = map[Operation]Spec{}
		r.specs[spec.Kind] = byOp
	}
	byOp[spec.Operation] = spec
}

// RegisterDefault sets the full-field fallback projection for a kind.
func (r *Registry) RegisterDefault(spec Spec) {
	r.defaults[spec.Kind] = spec
}

// ProjectionFor returns the projection registered for the operation, or the
// kind's default projection when the operation has no registration.
func (r *Registry) ProjectionFor(kind domain.Kind, operation Operation) Spec {
	if byOp, ok := r.specs[kind]; ok {
		if spec, ok := byOp[operation]; ok {
			return spec
		}
	}
	return r.defaults[kind]
}

// RegisteredOperations returns the operations registered for a kind in
// presentation order.
func (r *Registry) RegisteredOperations(kind domain.Kind) []Operation {
	byOp, ok := r.specs[kind]
	if !ok {
		return nil
	}
	out := make([]Operation, 0, len(byOp))
	for _, operation := range Operations() {
		if _, ok := byOp[operation]; ok {
			out = append(out, operation)
		}
	}
	return out
}
