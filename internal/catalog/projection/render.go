package projection

// Render shapes a value map through a spec: only projected fields appear, in
// spec order semantics, with display labels substituted and nested sub-objects
// rendered through their child specs.
//
// The input map is produced by the service layer from storage records; fields
// absent from it render as null.
func Render(spec Spec, values map[string]any) map[string]any {
	out := make(map[string]any, len(spec.Fields))
	for _, field := range spec.Fields {
		value := values[field.Name]
		switch {
		case field.Children != nil:
			out[field.Name] = renderCollection(*field.Children, value)
		case field.Child != nil:
			if nested, ok := value.(map[string]any); ok {
				out[field.Name] = Render(*field.Child, nested)
			} else {
				out[field.Name] = nil
			}
		case field.Display != nil:
			if stored, ok := value.(string); ok {
				out[field.Name] = field.Display(stored)
			} else {
				out[field.Name] = value
			}
		default:
			out[field.Name] = value
		}
	}
	return out
}

// RenderCollection renders a page of value maps through the same spec.
func RenderCollection(spec Spec, items []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, Render(spec, item))
	}
	return out
}

func renderCollection(spec Spec, value any) []map[string]any {
	items, ok := value.([]map[string]any)
	if !ok {
		return []map[string]any{}
	}
	return RenderCollection(spec, items)
}
