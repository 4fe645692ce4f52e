// Package seed fills a local catalog database with demo data for development.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/storage"
	"github.com/civikit/catalog/internal/platform/requestctx"
)

// seedUserID marks records created by the seeder.
const seedUserID = "seed"

// Config holds the fixture configuration.
type Config struct {
	OrganizationCode string
	OrganizationName string
	Verbose          bool
	Log              func(format string, args ...any)
}

// DefaultConfig returns the demo organization fixture.
func DefaultConfig() Config {
	return Config{
		OrganizationCode: "MIN",
		OrganizationName: "Ministry of services",
	}
}

// Result reports what the seeder created.
type Result struct {
	Organization   domain.Organization
	LifeSituations []domain.LifeSituation
	Services       []domain.Service
	Processes      []domain.Process
}

// Run seeds the store with one organization and a small catalog tree under
// it. Running twice against the same database creates a second tree; the
// allocator keeps identifiers unique either way.
func Run(ctx context.Context, store storage.Store, cfg Config) (Result, error) {
	logf := cfg.Log
	if logf == nil || !cfg.Verbose {
		logf = func(string, ...any) {}
	}

	org, err := ensureOrganization(ctx, store, cfg)
	if err != nil {
		return Result{}, err
	}
	logf("organization %s (%s)", org.Name, org.Code)

	caller := requestctx.Caller{
		UserID:           seedUserID,
		OrganizationID:   org.ID,
		OrganizationCode: org.Code,
	}
	result := Result{Organization: org}

	for _, fixture := range lifeSituationFixtures() {
		ls, err := createLifeSituation(ctx, store, caller, fixture.name)
		if err != nil {
			return Result{}, err
		}
		logf("  life situation %s %s", ls.Identifier, ls.Name)
		result.LifeSituations = append(result.LifeSituations, ls)

		for _, serviceFixture := range fixture.services {
			svc, err := createService(ctx, store, caller, ls.ID, serviceFixture)
			if err != nil {
				return Result{}, err
			}
			logf("    service %s %s", svc.Identifier, svc.Name)
			result.Services = append(result.Services, svc)

			for _, processFixture := range serviceFixture.processes {
				proc, err := createProcess(ctx, store, caller, svc.ID, processFixture)
				if err != nil {
					return Result{}, err
				}
				logf("      process %s %s", proc.Identifier, proc.Name)
				result.Processes = append(result.Processes, proc)
			}
		}
	}
	return result, nil
}

func ensureOrganization(ctx context.Context, store storage.Store, cfg Config) (domain.Organization, error) {
	org, err := store.GetOrganizationByCode(ctx, cfg.OrganizationCode)
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.Organization{}, fmt.Errorf("look up organization: %w", err)
	}
	org, err = store.CreateOrganization(ctx, domain.Organization{
		Code: cfg.OrganizationCode,
		Name: cfg.OrganizationName,
	})
	if err != nil {
		return domain.Organization{}, fmt.Errorf("create organization: %w", err)
	}
	return org, nil
}

func createLifeSituation(ctx context.Context, store storage.Store, caller requestctx.Caller, name string) (domain.LifeSituation, error) {
	record, err := domain.NewLifeSituation(domain.CreateLifeSituationInput{Name: name}, caller, time.Now)
	if err != nil {
		return domain.LifeSituation{}, err
	}
	created, err := store.CreateLifeSituation(ctx, record, caller.OrganizationCode)
	if err != nil {
		return domain.LifeSituation{}, fmt.Errorf("create life situation %s: %w", name, err)
	}
	return created, nil
}

func createService(ctx context.Context, store storage.Store, caller requestctx.Caller, parentID int64, fixture serviceFixture) (domain.Service, error) {
	record, err := domain.NewService(domain.CreateServiceInput{
		ServiceType:     fixture.serviceType,
		Name:            fixture.name,
		RegulatingAct:   fixture.regulatingAct,
		LifeSituationID: parentID,
	}, caller, time.Now)
	if err != nil {
		return domain.Service{}, err
	}
	created, err := store.CreateService(ctx, record)
	if err != nil {
		return domain.Service{}, fmt.Errorf("create service %s: %w", fixture.name, err)
	}
	return created, nil
}

func createProcess(ctx context.Context, store storage.Store, caller requestctx.Caller, parentID int64, fixture processFixture) (domain.Process, error) {
	record, err := domain.NewProcess(domain.CreateProcessInput{
		Name:                 fixture.name,
		Status:               fixture.status,
		IsDigitalFormat:      fixture.digital,
		IsExternalClient:     true,
		ResponsibleAuthority: fixture.authority,
		Department:           fixture.department,
		ServiceID:            parentID,
	}, caller, time.Now)
	if err != nil {
		return domain.Process{}, err
	}
	created, err := store.CreateProcess(ctx, record)
	if err != nil {
		return domain.Process{}, fmt.Errorf("create process %s: %w", fixture.name, err)
	}
	return created, nil
}

type processFixture struct {
	name       string
	status     string
	digital    bool
	authority  string
	department string
}

type serviceFixture struct {
	name          string
	serviceType   string
	regulatingAct string
	processes     []processFixture
}

type lifeSituationFixture struct {
	name     string
	services []serviceFixture
}

func lifeSituationFixtures() []lifeSituationFixture {
	return []lifeSituationFixture{
		{
			name: "birth",
			services: []serviceFixture{
				{
					name:          "Birth certificate issuance",
					serviceType:   "public_service",
					regulatingAct: "Civil Status Act",
					processes: []processFixture{
						{
							name:       "Application intake",
							status:     "COMPLETED",
							digital:    true,
							authority:  "Civil registry office",
							department: "Registration",
						},
						{
							name:       "Certificate printing",
							status:     "IN_PROGRESS",
							authority:  "Civil registry office",
							department: "Document production",
						},
					},
				},
				{
					name:          "Child benefit enrollment",
					serviceType:   "support_measure",
					regulatingAct: "Family Support Act",
					processes: []processFixture{
						{
							name:      "Eligibility review",
							status:    "NOT_STARTED",
							authority: "Social services agency",
						},
					},
				},
			},
		},
		{
			name: "business",
			services: []serviceFixture{
				{
					name:          "Business registration",
					serviceType:   "public_service",
					regulatingAct: "Commercial Register Act",
					processes: []processFixture{
						{
							name:       "Name reservation",
							status:     "COMPLETED",
							digital:    true,
							authority:  "Commercial registry",
							department: "Registrations",
						},
					},
				},
			},
		},
	}
}
