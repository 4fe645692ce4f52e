package domain

import (
	"strings"
	"time"

	apperrors "github.com/civikit/catalog/internal/errors"
)

// Organization is the tenant boundary. Its code is the root segment of every
// identifier allocated in its scope and is immutable after creation.
type Organization struct {
	ID        int64
	Code      string
	Name      string
	CreatedAt time.Time
}

// CreateOrganizationInput describes the metadata needed to create an organization.
type CreateOrganizationInput struct {
	Code string
	Name string
}

// NormalizeCreateOrganizationInput trims and validates organization input.
func NormalizeCreateOrganizationInput(input CreateOrganizationInput) (CreateOrganizationInput, error) {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	input.Name = strings.TrimSpace(input.Name)
	if input.Code == "" {
		return CreateOrganizationInput{}, apperrors.WithMetadata(apperrors.CodeFieldRequired,
			"organization code is required", map[string]string{"Field": "code"})
	}
	if strings.Contains(input.Code, ".") {
		// The dot is the identifier segment separator and cannot appear in
		// the root segment.
		return CreateOrganizationInput{}, apperrors.WithMetadata(apperrors.CodeFieldInvalid,
			"organization code cannot contain '.'", map[string]string{"Field": "code"})
	}
	if input.Name == "" {
		return CreateOrganizationInput{}, apperrors.WithMetadata(apperrors.CodeFieldRequired,
			"organization name is required", map[string]string{"Field": "name"})
	}
	return input, nil
}
