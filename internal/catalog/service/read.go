package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/projection"
	"github.com/civikit/catalog/internal/catalog/schema"
	"github.com/civikit/catalog/internal/catalog/search"
	"github.com/civikit/catalog/internal/catalog/storage"
	apperrors "github.com/civikit/catalog/internal/errors"
	"github.com/civikit/catalog/internal/platform/pagination"
)

// ListRequest narrows and pages a catalog collection.
type ListRequest struct {
	Kind      domain.Kind
	PageSize  int
	PageToken string
	// Filter is an AIP-160 filter expression over the kind's fields.
	Filter string
	// Search is a case-insensitive substring matched against record names,
	// including descendant names.
	Search string
}

// ListResponse is one rendered page of catalog records.
type ListResponse struct {
	Items         []map[string]any
	NextPageToken string
}

// List returns one page of records of a kind, rendered through the kind's
// list projection.
func (c *Catalog) List(ctx context.Context, req ListRequest) (ListResponse, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.List")
	defer span.End()

	caller, _, err := c.callerOrganization(ctx)
	if err != nil {
		return ListResponse{}, err
	}

	opts, err := c.listOptions(req)
	if err != nil {
		return ListResponse{}, err
	}

	spec := c.registry.ProjectionFor(req.Kind, projection.OperationList)
	switch req.Kind {
	case domain.KindLifeSituation:
		page, err := c.store.ListLifeSituations(ctx, caller.OrganizationID, opts)
		if err != nil {
			return ListResponse{}, storageError("list life situations", err)
		}
		items, err := c.lifeSituationPageValues(ctx, caller.OrganizationID, page.Records)
		if err != nil {
			return ListResponse{}, err
		}
		return ListResponse{
			Items:         projection.RenderCollection(spec, items),
			NextPageToken: encodePageToken(page.NextAfterID),
		}, nil
	case domain.KindService:
		page, err := c.store.ListServices(ctx, caller.OrganizationID, opts)
		if err != nil {
			return ListResponse{}, storageError("list services", err)
		}
		items := make([]map[string]any, 0, len(page.Records))
		for _, record := range page.Records {
			items = append(items, serviceValues(record))
		}
		return ListResponse{
			Items:         projection.RenderCollection(spec, items),
			NextPageToken: encodePageToken(page.NextAfterID),
		}, nil
	case domain.KindProcess:
		page, err := c.store.ListProcesses(ctx, caller.OrganizationID, opts)
		if err != nil {
			return ListResponse{}, storageError("list processes", err)
		}
		items, err := c.processPageValues(ctx, page.Records)
		if err != nil {
			return ListResponse{}, err
		}
		return ListResponse{
			Items:         projection.RenderCollection(spec, items),
			NextPageToken: encodePageToken(page.NextAfterID),
		}, nil
	default:
		return ListResponse{}, unknownKindError(req.Kind)
	}
}

// Get returns one record rendered through the kind's retrieve projection.
func (c *Catalog) Get(ctx context.Context, kind domain.Kind, id int64) (map[string]any, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.Get")
	defer span.End()

	caller, _, err := c.callerOrganization(ctx)
	if err != nil {
		return nil, err
	}

	spec := c.registry.ProjectionFor(kind, projection.OperationRetrieve)
	switch kind {
	case domain.KindLifeSituation:
		record, err := c.store.GetLifeSituation(ctx, caller.OrganizationID, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFoundError(kind, id)
		}
		if err != nil {
			return nil, storageError("get life situation", err)
		}
		return projection.Render(spec, lifeSituationValues(record)), nil
	case domain.KindService:
		record, err := c.store.GetService(ctx, caller.OrganizationID, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFoundError(kind, id)
		}
		if err != nil {
			return nil, storageError("get service", err)
		}
		return projection.Render(spec, serviceValues(record)), nil
	case domain.KindProcess:
		record, err := c.store.GetProcess(ctx, caller.OrganizationID, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFoundError(kind, id)
		}
		if err != nil {
			return nil, storageError("get process", err)
		}
		values, err := c.processRecordValues(ctx, record)
		if err != nil {
			return nil, err
		}
		return projection.Render(spec, values), nil
	default:
		return nil, unknownKindError(kind)
	}
}

// PreviewIdentifier returns the identifier the next record of a kind would
// receive under the given parent, without consuming the ordinal. Concurrent
// writers may take the previewed value first.
func (c *Catalog) PreviewIdentifier(ctx context.Context, kind domain.Kind, parentID int64) (string, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.PreviewIdentifier")
	defer span.End()

	caller, org, err := c.callerOrganization(ctx)
	if err != nil {
		return "", err
	}

	switch kind {
	case domain.KindLifeSituation:
		preview, err := c.store.PeekLifeSituationIdentifier(ctx, caller.OrganizationID, org.Code)
		if err != nil {
			return "", storageError("preview life situation identifier", err)
		}
		return preview, nil
	case domain.KindService, domain.KindProcess:
		if parentID <= 0 {
			return "", apperrors.WithMetadata(apperrors.CodeFieldRequired,
				"parent reference is required",
				map[string]string{"Field": parentField(kind)})
		}
		var preview string
		if kind == domain.KindService {
			preview, err = c.store.PeekServiceIdentifier(ctx, caller.OrganizationID, parentID)
		} else {
			preview, err = c.store.PeekProcessIdentifier(ctx, caller.OrganizationID, parentID)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return "", parentNotFoundError(kind)
		}
		if err != nil {
			return "", storageError("preview identifier", err)
		}
		return preview, nil
	default:
		return "", unknownKindError(kind)
	}
}

// Describe returns the field descriptors for every operation registered for
// a kind.
func (c *Catalog) Describe(ctx context.Context, kind domain.Kind) (map[projection.Operation]map[string]schema.FieldDescriptor, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.Describe")
	defer span.End()

	if _, _, err := c.callerOrganization(ctx); err != nil {
		return nil, err
	}
	if _, ok := domain.ParseKind(string(kind)); !ok {
		return nil, unknownKindError(kind)
	}
	return schema.DescribeOperations(c.registry, kind), nil
}

func (c *Catalog) listOptions(req ListRequest) (storage.ListOptions, error) {
	afterID, err := decodePageToken(req.PageToken)
	if err != nil {
		return storage.ListOptions{}, err
	}
	filter, err := search.ParseFilter(req.Kind, req.Filter)
	if err != nil {
		return storage.ListOptions{}, err
	}
	return storage.ListOptions{
		PageSize: pagination.ClampPageSize(req.PageSize, pagination.PageSizeConfig{
			Default: defaultPageSize,
			Max:     maxPageSize,
		}),
		AfterID: afterID,
		Filter:  filter,
		Search:  search.SearchCondition(req.Kind, req.Search),
	}, nil
}

// lifeSituationPageValues builds the value maps for a life situation page,
// loading the services of every record in one query for nested rendering.
func (c *Catalog) lifeSituationPageValues(ctx context.Context, organizationID int64, records []domain.LifeSituation) ([]map[string]any, error) {
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	services, err := c.store.ListServicesByParents(ctx, organizationID, ids)
	if err != nil {
		return nil, storageError("list services by parents", err)
	}
	byParent := make(map[int64][]map[string]any, len(records))
	for _, service := range services {
		byParent[service.LifeSituationID] = append(byParent[service.LifeSituationID], serviceValues(service))
	}

	items := make([]map[string]any, 0, len(records))
	for _, record := range records {
		values := lifeSituationValues(record)
		children := byParent[record.ID]
		if children == nil {
			children = []map[string]any{}
		}
		values["services"] = children
		items = append(items, values)
	}
	return items, nil
}

// processPageValues builds the value maps for a process page, loading the
// data sub-records in one batch.
func (c *Catalog) processPageValues(ctx context.Context, records []domain.Process) ([]map[string]any, error) {
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	dataByID, err := c.store.GetProcessDataBatch(ctx, ids)
	if err != nil {
		return nil, storageError("get process data batch", err)
	}

	items := make([]map[string]any, 0, len(records))
	for _, record := range records {
		values := processValues(record)
		values["process_data"] = processDataValues(dataByID[record.ID])
		items = append(items, values)
	}
	return items, nil
}

func (c *Catalog) processRecordValues(ctx context.Context, record domain.Process) (map[string]any, error) {
	data, err := c.store.GetProcessData(ctx, record.ID)
	if errors.Is(err, storage.ErrProcessDataMissing) {
		return nil, apperrors.WithMetadata(apperrors.CodeProcessDataMissing,
			"process data record is missing",
			map[string]string{"Value": strconv.FormatInt(record.ID, 10)})
	}
	if err != nil {
		return nil, storageError("get process data", err)
	}
	values := processValues(record)
	values["process_data"] = processDataValues(data)
	return values, nil
}

func encodePageToken(afterID int64) string {
	if afterID <= 0 {
		return ""
	}
	return strconv.FormatInt(afterID, 10)
}

func decodePageToken(token string) (int64, error) {
	if token == "" {
		return 0, nil
	}
	afterID, err := strconv.ParseInt(token, 10, 64)
	if err != nil || afterID <= 0 {
		return 0, apperrors.WithMetadata(apperrors.CodeFieldInvalid,
			"page token is malformed", map[string]string{"Field": "page_token"})
	}
	return afterID, nil
}
