package projection

import (
	"fmt"
	"strings"

	"github.com/civikit/catalog/internal/catalog/domain"
	apperrors "github.com/civikit/catalog/internal/errors"
)

// DecodePayload validates a write payload against a spec's writable fields
// and returns a normalized map keyed by field name.
//
// Unknown payload keys are dropped. In partial mode absent fields are left
// alone and only the supplied values are validated; otherwise every required
// writable field must be present. Nested sub-objects always merge partially.
func DecodePayload(spec Spec, payload map[string]any, partial bool) (map[string]any, error) {
	decoded := make(map[string]any, len(payload))
	for _, field := range spec.Writable() {
		value, present := payload[field.Name]
		if !present {
			if field.Required && !partial {
				return nil, requiredError(field)
			}
			continue
		}
		normalized, err := decodeField(field, value, partial)
		if err != nil {
			return nil, err
		}
		decoded[field.Name] = normalized
	}
	return decoded, nil
}

func decodeField(field Field, value any, partial bool) (any, error) {
	if field.Child != nil {
		nested, ok := value.(map[string]any)
		if !ok {
			return nil, invalidError(field, "an object")
		}
		return DecodePayload(*field.Child, nested, true)
	}
	if field.Many {
		return decodeReferenceList(field, value)
	}
	switch field.Type {
	case TypeString, TypeURL, TypeChoice:
		return decodeString(field, value)
	case TypeBoolean:
		flag, ok := value.(bool)
		if !ok {
			return nil, invalidError(field, "a boolean")
		}
		return flag, nil
	case TypeInteger, TypeRelated:
		return decodeReference(field, value)
	default:
		return nil, invalidError(field, "a supported value")
	}
}

func decodeString(field Field, value any) (any, error) {
	text, ok := value.(string)
	if !ok {
		return nil, invalidError(field, "a string")
	}
	text = strings.TrimSpace(text)
	if text == "" && field.Required {
		return nil, requiredError(field)
	}
	if field.MaxLength > 0 && len(text) > field.MaxLength {
		return nil, apperrors.WithMetadata(apperrors.CodeFieldInvalid,
			fmt.Sprintf("field %s exceeds %d characters", field.Name, field.MaxLength),
			map[string]string{"Field": field.Name})
	}
	if field.Choices != nil && text != "" && !hasChoiceValue(field.Choices(), text) {
		return nil, apperrors.WithMetadata(apperrors.CodeChoiceInvalid,
			fmt.Sprintf("field %s does not accept %q", field.Name, text),
			map[string]string{"Field": field.Name, "Value": text})
	}
	return text, nil
}

func decodeReference(field Field, value any) (any, error) {
	id, ok := asInt64(value)
	if !ok || (field.Relational && id <= 0) {
		return nil, invalidError(field, "a record reference")
	}
	return id, nil
}

func decodeReferenceList(field Field, value any) (any, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, invalidError(field, "a list of record references")
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		id, ok := asInt64(item)
		if !ok || id <= 0 {
			return nil, invalidError(field, "a list of record references")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// asInt64 accepts the integer encodings seen on the wire. JSON numbers arrive
// as float64 and must be integral.
func asInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

func hasChoiceValue(choices []domain.Choice, value string) bool {
	for _, choice := range choices {
		if choice.Value == value {
			return true
		}
	}
	return false
}

func requiredError(field Field) error {
	return apperrors.WithMetadata(apperrors.CodeFieldRequired,
		"field "+field.Name+" is required", map[string]string{"Field": field.Name})
}

func invalidError(field Field, expected string) error {
	return apperrors.WithMetadata(apperrors.CodeFieldInvalid,
		fmt.Sprintf("field %s must be %s", field.Name, expected),
		map[string]string{"Field": field.Name})
}
