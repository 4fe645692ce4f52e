package domain

import (
	"strings"
	"time"

	apperrors "github.com/civikit/catalog/internal/errors"
	"github.com/civikit/catalog/internal/platform/requestctx"
)

// Service is the middle catalog node. Its identifier has the form
// {life_situation.identifier}.{k}; identifier and parent link are immutable
// after creation.
type Service struct {
	ID              int64
	ServiceType     string
	Name            string
	RegulatingAct   string
	Identifier      string
	LifeSituationID int64
	OrganizationID  int64
	UserID          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateServiceInput describes a service creation request.
type CreateServiceInput struct {
	ServiceType     string
	Name            string
	RegulatingAct   string
	LifeSituationID int64
}

// NewService combines a validated payload with the caller context into a
// complete creation record. The identifier is left for the allocator.
func NewService(input CreateServiceInput, caller requestctx.Caller, now func() time.Time) (Service, error) {
	if now == nil {
		now = time.Now
	}
	normalized, err := NormalizeCreateServiceInput(input)
	if err != nil {
		return Service{}, err
	}
	createdAt := now().UTC()
	return Service{
		ServiceType:     normalized.ServiceType,
		Name:            normalized.Name,
		RegulatingAct:   normalized.RegulatingAct,
		LifeSituationID: normalized.LifeSituationID,
		OrganizationID:  caller.OrganizationID,
		UserID:          caller.UserID,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}, nil
}

// NormalizeCreateServiceInput trims and validates creation input.
func NormalizeCreateServiceInput(input CreateServiceInput) (CreateServiceInput, error) {
	input.ServiceType = strings.TrimSpace(input.ServiceType)
	input.Name = strings.TrimSpace(input.Name)
	input.RegulatingAct = strings.TrimSpace(input.RegulatingAct)
	if input.Name == "" {
		return CreateServiceInput{}, apperrors.WithMetadata(apperrors.CodeFieldRequired,
			"service name is required", map[string]string{"Field": "name"})
	}
	if input.ServiceType == "" {
		return CreateServiceInput{}, apperrors.WithMetadata(apperrors.CodeFieldRequired,
			"service type is required", map[string]string{"Field": "service_type"})
	}
	if !IsServiceType(input.ServiceType) {
		return CreateServiceInput{}, apperrors.WithMetadata(apperrors.CodeChoiceInvalid,
			"unknown service type "+input.ServiceType,
			map[string]string{"Field": "service_type", "Value": input.ServiceType})
	}
	if input.LifeSituationID <= 0 {
		return CreateServiceInput{}, apperrors.WithMetadata(apperrors.CodeFieldRequired,
			"life situation reference is required", map[string]string{"Field": "lifesituation"})
	}
	return input, nil
}

// UpdateServiceInput carries the mutable service fields. The identifier and
// the life situation link stay fixed after creation.
type UpdateServiceInput struct {
	ServiceType   string
	Name          string
	RegulatingAct string
}

// ApplyServiceUpdate validates and applies an update in place.
func ApplyServiceUpdate(record Service, input UpdateServiceInput, now func() time.Time) (Service, error) {
	if now == nil {
		now = time.Now
	}
	normalized, err := NormalizeCreateServiceInput(CreateServiceInput{
		ServiceType:     input.ServiceType,
		Name:            input.Name,
		RegulatingAct:   input.RegulatingAct,
		LifeSituationID: record.LifeSituationID,
	})
	if err != nil {
		return Service{}, err
	}
	record.ServiceType = normalized.ServiceType
	record.Name = normalized.Name
	record.RegulatingAct = normalized.RegulatingAct
	record.UpdatedAt = now().UTC()
	return record, nil
}
