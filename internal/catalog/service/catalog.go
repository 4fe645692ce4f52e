// Package service implements the catalog operations: listing, retrieval,
// creation, updates, deletion, identifier preview, and schema introspection,
// all scoped to the authenticated caller's organization.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/projection"
	"github.com/civikit/catalog/internal/catalog/storage"
	apperrors "github.com/civikit/catalog/internal/errors"
	"github.com/civikit/catalog/internal/platform/requestctx"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// Catalog exposes the catalog operations over a storage backend.
type Catalog struct {
	store    storage.Store
	registry *projection.Registry
	tracer   trace.Tracer
	now      func() time.Time
}

// Option customizes a Catalog.
type Option func(*Catalog)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a catalog service over the given store and projection registry.
func New(store storage.Store, registry *projection.Registry, opts ...Option) *Catalog {
	c := &Catalog{
		store:    store,
		registry: registry,
		tracer:   otel.Tracer("catalog"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// callerOrganization resolves the authenticated caller and its organization.
// Every catalog operation starts here; nothing is reachable without an
// organization scope.
func (c *Catalog) callerOrganization(ctx context.Context) (requestctx.Caller, domain.Organization, error) {
	caller, ok := requestctx.CallerFromContext(ctx)
	if !ok {
		return requestctx.Caller{}, domain.Organization{},
			apperrors.New(apperrors.CodeUnauthenticated, "caller identity is missing")
	}
	org, err := c.store.GetOrganization(ctx, caller.OrganizationID)
	if errors.Is(err, storage.ErrNotFound) {
		return requestctx.Caller{}, domain.Organization{},
			apperrors.New(apperrors.CodeUnauthorized, "caller organization is unknown")
	}
	if err != nil {
		return requestctx.Caller{}, domain.Organization{},
			apperrors.Wrap(apperrors.CodeUnknown, "resolve caller organization", err)
	}
	return caller, org, nil
}

func notFoundError(kind domain.Kind, id int64) error {
	return apperrors.WithMetadata(apperrors.CodeNotFound,
		fmt.Sprintf("%s %d not found", kind, id),
		map[string]string{"Kind": string(kind), "Value": fmt.Sprintf("%d", id)})
}

func parentNotFoundError(kind domain.Kind) error {
	field := parentField(kind)
	return apperrors.WithMetadata(apperrors.CodeParentNotFound,
		fmt.Sprintf("parent %s not found", field),
		map[string]string{"Field": field})
}

// parentField names the payload field carrying the parent reference of a kind.
func parentField(kind domain.Kind) string {
	switch kind {
	case domain.KindService:
		return "lifesituation"
	case domain.KindProcess:
		return "service"
	default:
		return "organization"
	}
}

func unknownKindError(kind domain.Kind) error {
	return apperrors.WithMetadata(apperrors.CodeUnknownEntityKind,
		fmt.Sprintf("unknown entity kind %q", kind),
		map[string]string{"Kind": string(kind)})
}

func storageError(operation string, err error) error {
	return apperrors.Wrap(apperrors.CodeUnknown, operation, err)
}
