package domain

import (
	"strings"
	"time"

	apperrors "github.com/civikit/catalog/internal/errors"
	"github.com/civikit/catalog/internal/platform/requestctx"
)

// Process is the leaf catalog node. Its identifier has the form
// {service.identifier}.{k}. Every process owns exactly one ProcessData
// sub-record, persisted through the process itself.
type Process struct {
	ID                   int64
	Name                 string
	Status               string
	IsInternalClient     bool
	IsExternalClient     bool
	IsDigitalFormat      bool
	IsNonDigitalFormat   bool
	ResponsibleAuthority string
	Department           string
	DigitalFormatLink    string
	Identifier           string
	ServiceID            int64
	OrganizationID       int64
	UserID               string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ProcessData is the owner-managed sub-record of a process. It has no
// independent identity or lifecycle.
type ProcessData struct {
	ClientValue       string
	InputData         string
	OutputData        string
	RelatedProcessIDs []int64
	Group             string
}

// CreateProcessInput describes a process creation request. ProcessData is
// never supplied at creation; an empty sub-record is created alongside the
// process.
type CreateProcessInput struct {
	Name                 string
	Status               string
	IsInternalClient     bool
	IsExternalClient     bool
	IsDigitalFormat      bool
	IsNonDigitalFormat   bool
	ResponsibleAuthority string
	Department           string
	DigitalFormatLink    string
	ServiceID            int64
}

// NewProcess combines a validated payload with the caller context into a
// complete creation record. The identifier is left for the allocator.
func NewProcess(input CreateProcessInput, caller requestctx.Caller, now func() time.Time) (Process, error) {
	if now == nil {
		now = time.Now
	}
	normalized, err := NormalizeCreateProcessInput(input)
	if err != nil {
		return Process{}, err
	}
	createdAt := now().UTC()
	return Process{
		Name:                 normalized.Name,
		Status:               normalized.Status,
		IsInternalClient:     normalized.IsInternalClient,
		IsExternalClient:     normalized.IsExternalClient,
		IsDigitalFormat:      normalized.IsDigitalFormat,
		IsNonDigitalFormat:   normalized.IsNonDigitalFormat,
		ResponsibleAuthority: normalized.ResponsibleAuthority,
		Department:           normalized.Department,
		DigitalFormatLink:    normalized.DigitalFormatLink,
		ServiceID:            normalized.ServiceID,
		OrganizationID:       caller.OrganizationID,
		UserID:               caller.UserID,
		CreatedAt:            createdAt,
		UpdatedAt:            createdAt,
	}, nil
}

// NormalizeCreateProcessInput trims and validates creation input. Status is
// optional and defaults to NOT_STARTED; a supplied status must belong to the
// closed set, no transition table is enforced.
func NormalizeCreateProcessInput(input CreateProcessInput) (CreateProcessInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Status = strings.TrimSpace(input.Status)
	input.ResponsibleAuthority = strings.TrimSpace(input.ResponsibleAuthority)
	input.Department = strings.TrimSpace(input.Department)
	input.DigitalFormatLink = strings.TrimSpace(input.DigitalFormatLink)
	if input.Name == "" {
		return CreateProcessInput{}, apperrors.WithMetadata(apperrors.CodeFieldRequired,
			"process name is required", map[string]string{"Field": "name"})
	}
	if input.Status == "" {
		input.Status = "NOT_STARTED"
	}
	if !IsProcessStatus(input.Status) {
		return CreateProcessInput{}, apperrors.WithMetadata(apperrors.CodeChoiceInvalid,
			"unknown process status "+input.Status,
			map[string]string{"Field": "status", "Value": input.Status})
	}
	if input.ServiceID <= 0 {
		return CreateProcessInput{}, apperrors.WithMetadata(apperrors.CodeFieldRequired,
			"service reference is required", map[string]string{"Field": "service"})
	}
	return input, nil
}
