package domain

import (
	"strings"
	"time"

	apperrors "github.com/civikit/catalog/internal/errors"
	"github.com/civikit/catalog/internal/platform/requestctx"
)

// LifeSituation is the top-level catalog node. Its identifier has the form
// {org_code}.{k} and is assigned by the allocator at creation time; the
// identifier and the organization link never change afterwards.
type LifeSituation struct {
	ID             int64
	Name           string
	Identifier     string
	OrganizationID int64
	UserID         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateLifeSituationInput describes a life situation creation request.
// The identifier is always computed server-side; any client-supplied value
// was discarded before this input was built.
type CreateLifeSituationInput struct {
	Name string
}

// NewLifeSituation combines a validated payload with the caller context into
// a complete creation record. The identifier is left empty for the store's
// allocator to fill.
func NewLifeSituation(input CreateLifeSituationInput, caller requestctx.Caller, now func() time.Time) (LifeSituation, error) {
	if now == nil {
		now = time.Now
	}
	normalized, err := NormalizeCreateLifeSituationInput(input)
	if err != nil {
		return LifeSituation{}, err
	}
	createdAt := now().UTC()
	return LifeSituation{
		Name:           normalized.Name,
		OrganizationID: caller.OrganizationID,
		UserID:         caller.UserID,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}, nil
}

// NormalizeCreateLifeSituationInput trims and validates creation input.
func NormalizeCreateLifeSituationInput(input CreateLifeSituationInput) (CreateLifeSituationInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return CreateLifeSituationInput{}, apperrors.WithMetadata(apperrors.CodeFieldRequired,
			"life situation name is required", map[string]string{"Field": "name"})
	}
	if !IsLifeSituationName(input.Name) {
		return CreateLifeSituationInput{}, apperrors.WithMetadata(apperrors.CodeChoiceInvalid,
			"unknown life situation name "+input.Name,
			map[string]string{"Field": "name", "Value": input.Name})
	}
	return input, nil
}

// UpdateLifeSituation applies the mutable fields onto an existing record.
// Only the name may change after creation.
type UpdateLifeSituationInput struct {
	Name string
}

// ApplyLifeSituationUpdate validates and applies an update in place.
func ApplyLifeSituationUpdate(record LifeSituation, input UpdateLifeSituationInput, now func() time.Time) (LifeSituation, error) {
	if now == nil {
		now = time.Now
	}
	normalized, err := NormalizeCreateLifeSituationInput(CreateLifeSituationInput{Name: input.Name})
	if err != nil {
		return LifeSituation{}, err
	}
	record.Name = normalized.Name
	record.UpdatedAt = now().UTC()
	return record, nil
}
