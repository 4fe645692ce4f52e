// Package storage defines persistence contracts for catalog state.
package storage

import (
	"context"
	"errors"

	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/search"
)

var (
	// ErrNotFound indicates a requested catalog record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateIdentifier indicates an identifier collided with an
	// existing sibling. Creation retries a bounded number of times on it.
	ErrDuplicateIdentifier = errors.New("identifier already exists")
	// ErrProcessDataMissing indicates a process lost its data sub-record.
	// Every process is created with one; a missing row is corruption.
	ErrProcessDataMissing = errors.New("process data record missing")
)

// ListOptions narrows and pages a collection query. Records are keyset
// paginated by ascending id; AfterID carries the decoded page token.
type ListOptions struct {
	PageSize int
	AfterID  int64
	// Filter is a parsed filter expression condition; Search is a
	// free-text name condition. Either may be empty.
	Filter search.SQLCondition
	Search search.SQLCondition
}

// LifeSituationPage is one page of life situations.
type LifeSituationPage struct {
	Records     []domain.LifeSituation
	NextAfterID int64
}

// ServicePage is one page of services.
type ServicePage struct {
	Records     []domain.Service
	NextAfterID int64
}

// ProcessPage is one page of processes.
type ProcessPage struct {
	Records     []domain.Process
	NextAfterID int64
}

// OrganizationStore persists organizations.
type OrganizationStore interface {
	CreateOrganization(ctx context.Context, record domain.Organization) (domain.Organization, error)
	GetOrganization(ctx context.Context, id int64) (domain.Organization, error)
	GetOrganizationByCode(ctx context.Context, code string) (domain.Organization, error)
}

// LifeSituationStore persists life situations. Creation allocates the
// identifier inside the insert transaction using the organization code as
// the prefix.
type LifeSituationStore interface {
	CreateLifeSituation(ctx context.Context, record domain.LifeSituation, orgCode string) (domain.LifeSituation, error)
	GetLifeSituation(ctx context.Context, organizationID, id int64) (domain.LifeSituation, error)
	ListLifeSituations(ctx context.Context, organizationID int64, opts ListOptions) (LifeSituationPage, error)
	UpdateLifeSituation(ctx context.Context, record domain.LifeSituation) (domain.LifeSituation, error)
	DeleteLifeSituation(ctx context.Context, organizationID, id int64) error
	PeekLifeSituationIdentifier(ctx context.Context, organizationID int64, orgCode string) (string, error)
}

// ServiceStore persists services under their life situation parent.
type ServiceStore interface {
	CreateService(ctx context.Context, record domain.Service) (domain.Service, error)
	GetService(ctx context.Context, organizationID, id int64) (domain.Service, error)
	ListServices(ctx context.Context, organizationID int64, opts ListOptions) (ServicePage, error)
	// ListServicesByParents loads the services of several life situations
	// at once, for nested rendering.
	ListServicesByParents(ctx context.Context, organizationID int64, lifeSituationIDs []int64) ([]domain.Service, error)
	UpdateService(ctx context.Context, record domain.Service) (domain.Service, error)
	DeleteService(ctx context.Context, organizationID, id int64) error
	PeekServiceIdentifier(ctx context.Context, organizationID, lifeSituationID int64) (string, error)
}

// ProcessStore persists processes and their data sub-records. Creation
// inserts an empty process_data row in the same transaction; updates write
// the process and its sub-record atomically.
type ProcessStore interface {
	CreateProcess(ctx context.Context, record domain.Process) (domain.Process, error)
	GetProcess(ctx context.Context, organizationID, id int64) (domain.Process, error)
	ListProcesses(ctx context.Context, organizationID int64, opts ListOptions) (ProcessPage, error)
	UpdateProcess(ctx context.Context, record domain.Process, data *domain.ProcessData) (domain.Process, error)
	DeleteProcess(ctx context.Context, organizationID, id int64) error
	GetProcessData(ctx context.Context, processID int64) (domain.ProcessData, error)
	// GetProcessDataBatch loads the data sub-records of several processes,
	// keyed by process id.
	GetProcessDataBatch(ctx context.Context, processIDs []int64) (map[int64]domain.ProcessData, error)
	PeekProcessIdentifier(ctx context.Context, organizationID, serviceID int64) (string, error)
}

// Store is the full catalog persistence surface.
type Store interface {
	OrganizationStore
	LifeSituationStore
	ServiceStore
	ProcessStore
	Close() error
}
