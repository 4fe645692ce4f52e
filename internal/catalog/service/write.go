package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/identifier"
	"github.com/civikit/catalog/internal/catalog/projection"
	"github.com/civikit/catalog/internal/catalog/storage"
	apperrors "github.com/civikit/catalog/internal/errors"
)

// Create validates a creation payload against the kind's create projection,
// allocates the identifier server-side, and returns the rendered record. Any
// client-supplied identifier is discarded.
//
// Identifier conflicts under concurrent creation are retried transparently a
// bounded number of times.
func (c *Catalog) Create(ctx context.Context, kind domain.Kind, payload map[string]any) (map[string]any, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.Create")
	defer span.End()

	caller, org, err := c.callerOrganization(ctx)
	if err != nil {
		return nil, err
	}

	spec := c.registry.ProjectionFor(kind, projection.OperationCreate)
	decoded, err := projection.DecodePayload(spec, payload, false)
	if err != nil {
		return nil, err
	}

	switch kind {
	case domain.KindLifeSituation:
		record, err := domain.NewLifeSituation(domain.CreateLifeSituationInput{
			Name: stringValue(decoded, "name"),
		}, caller, c.now)
		if err != nil {
			return nil, err
		}
		created, err := c.retryCreateLifeSituation(ctx, record, org.Code)
		if err != nil {
			return nil, err
		}
		return projection.Render(spec, lifeSituationValues(created)), nil
	case domain.KindService:
		record, err := domain.NewService(domain.CreateServiceInput{
			ServiceType:     stringValue(decoded, "service_type"),
			Name:            stringValue(decoded, "name"),
			RegulatingAct:   stringValue(decoded, "regulating_act"),
			LifeSituationID: intValue(decoded, "lifesituation"),
		}, caller, c.now)
		if err != nil {
			return nil, err
		}
		created, err := c.retryCreateService(ctx, record)
		if err != nil {
			return nil, err
		}
		return projection.Render(spec, serviceValues(created)), nil
	case domain.KindProcess:
		record, err := domain.NewProcess(domain.CreateProcessInput{
			Name:                 stringValue(decoded, "name"),
			Status:               stringValue(decoded, "status"),
			IsInternalClient:     boolValue(decoded, "is_internal_client"),
			IsExternalClient:     boolValue(decoded, "is_external_client"),
			IsDigitalFormat:      boolValue(decoded, "is_digital_format"),
			IsNonDigitalFormat:   boolValue(decoded, "is_non_digital_format"),
			ResponsibleAuthority: stringValue(decoded, "responsible_authority"),
			Department:           stringValue(decoded, "department"),
			DigitalFormatLink:    stringValue(decoded, "digital_format_link"),
			ServiceID:            intValue(decoded, "service"),
		}, caller, c.now)
		if err != nil {
			return nil, err
		}
		created, err := c.retryCreateProcess(ctx, record)
		if err != nil {
			return nil, err
		}
		return projection.Render(spec, processValues(created)), nil
	default:
		return nil, unknownKindError(kind)
	}
}

// Update applies a partial payload to an existing record and returns the
// rendered result. Process payloads may carry a process_data sub-object whose
// present keys are written through in the same transaction.
func (c *Catalog) Update(ctx context.Context, kind domain.Kind, id int64, payload map[string]any) (map[string]any, error) {
	ctx, span := c.tracer.Start(ctx, "catalog.Update")
	defer span.End()

	caller, _, err := c.callerOrganization(ctx)
	if err != nil {
		return nil, err
	}

	spec := c.registry.ProjectionFor(kind, projection.OperationUpdate)
	decoded, err := projection.DecodePayload(spec, payload, true)
	if err != nil {
		return nil, err
	}

	switch kind {
	case domain.KindLifeSituation:
		record, err := c.store.GetLifeSituation(ctx, caller.OrganizationID, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFoundError(kind, id)
		}
		if err != nil {
			return nil, storageError("get life situation", err)
		}
		name := record.Name
		if v, ok := decoded["name"].(string); ok {
			name = v
		}
		record, err = domain.ApplyLifeSituationUpdate(record, domain.UpdateLifeSituationInput{Name: name}, c.now)
		if err != nil {
			return nil, err
		}
		record, err = c.store.UpdateLifeSituation(ctx, record)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFoundError(kind, id)
		}
		if err != nil {
			return nil, storageError("update life situation", err)
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
		input := domain.UpdateServiceInput{
			ServiceType:   record.ServiceType,
			Name:          record.Name,
			RegulatingAct: record.RegulatingAct,
		}
		if v, ok := decoded["service_type"].(string); ok {
			input.ServiceType = v
		}
		if v, ok := decoded["name"].(string); ok {
			input.Name = v
		}
		if v, ok := decoded["regulating_act"].(string); ok {
			input.RegulatingAct = v
		}
		record, err = domain.ApplyServiceUpdate(record, input, c.now)
		if err != nil {
			return nil, err
		}
		record, err = c.store.UpdateService(ctx, record)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFoundError(kind, id)
		}
		if err != nil {
			return nil, storageError("update service", err)
		}
		return projection.Render(spec, serviceValues(record)), nil
	case domain.KindProcess:
		return c.updateProcess(ctx, caller.OrganizationID, id, spec, decoded)
	default:
		return nil, unknownKindError(kind)
	}
}

func (c *Catalog) updateProcess(ctx context.Context, organizationID, id int64, spec projection.Spec, decoded map[string]any) (map[string]any, error) {
	record, err := c.store.GetProcess(ctx, organizationID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, notFoundError(domain.KindProcess, id)
	}
	if err != nil {
		return nil, storageError("get process", err)
	}
	data, err := c.store.GetProcessData(ctx, record.ID)
	if errors.Is(err, storage.ErrProcessDataMissing) {
		return nil, apperrors.New(apperrors.CodeProcessDataMissing, "process data record is missing")
	}
	if err != nil {
		return nil, storageError("get process data", err)
	}

	_, dataTouched := decoded["process_data"]
	projection.ApplyProcessPayload(&record, &data, decoded, c.now)

	if dataTouched {
		if err := c.checkRelatedProcesses(ctx, organizationID, record.ID, data.RelatedProcessIDs); err != nil {
			return nil, err
		}
	}

	var dataPtr *domain.ProcessData
	if dataTouched {
		dataPtr = &data
	}
	record, err = c.store.UpdateProcess(ctx, record, dataPtr)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, notFoundError(domain.KindProcess, id)
	}
	if errors.Is(err, storage.ErrProcessDataMissing) {
		return nil, apperrors.New(apperrors.CodeProcessDataMissing, "process data record is missing")
	}
	if err != nil {
		return nil, storageError("update process", err)
	}

	values := processValues(record)
	values["process_data"] = processDataValues(data)
	return projection.Render(spec, values), nil
}

// checkRelatedProcesses verifies every related process reference resolves
// inside the caller's organization.
func (c *Catalog) checkRelatedProcesses(ctx context.Context, organizationID, selfID int64, relatedIDs []int64) error {
	for _, relatedID := range relatedIDs {
		if relatedID == selfID {
			return apperrors.WithMetadata(apperrors.CodeRelatedProcessNotFound,
				"process cannot relate to itself",
				map[string]string{"Field": "related_processes",
					"ID": strconv.FormatInt(relatedID, 10)})
		}
		if _, err := c.store.GetProcess(ctx, organizationID, relatedID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return apperrors.WithMetadata(apperrors.CodeRelatedProcessNotFound,
					"related process not found",
					map[string]string{"Field": "related_processes",
						"ID": strconv.FormatInt(relatedID, 10)})
			}
			return storageError("resolve related process", err)
		}
	}
	return nil
}

// Delete removes a record of a kind. Children are removed with their parent;
// retired identifier ordinals are never reissued.
func (c *Catalog) Delete(ctx context.Context, kind domain.Kind, id int64) error {
	ctx, span := c.tracer.Start(ctx, "catalog.Delete")
	defer span.End()

	caller, _, err := c.callerOrganization(ctx)
	if err != nil {
		return err
	}

	switch kind {
	case domain.KindLifeSituation:
		err = c.store.DeleteLifeSituation(ctx, caller.OrganizationID, id)
	case domain.KindService:
		err = c.store.DeleteService(ctx, caller.OrganizationID, id)
	case domain.KindProcess:
		err = c.store.DeleteProcess(ctx, caller.OrganizationID, id)
	default:
		return unknownKindError(kind)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return notFoundError(kind, id)
	}
	if err != nil {
		return storageError("delete record", err)
	}
	return nil
}

func (c *Catalog) retryCreateLifeSituation(ctx context.Context, record domain.LifeSituation, orgCode string) (domain.LifeSituation, error) {
	for attempt := 1; ; attempt++ {
		created, err := c.store.CreateLifeSituation(ctx, record, orgCode)
		if err == nil {
			return created, nil
		}
		if retryErr := classifyCreateError(domain.KindLifeSituation, err, attempt); retryErr != nil {
			return domain.LifeSituation{}, retryErr
		}
	}
}

func (c *Catalog) retryCreateService(ctx context.Context, record domain.Service) (domain.Service, error) {
	for attempt := 1; ; attempt++ {
		created, err := c.store.CreateService(ctx, record)
		if err == nil {
			return created, nil
		}
		if retryErr := classifyCreateError(domain.KindService, err, attempt); retryErr != nil {
			return domain.Service{}, retryErr
		}
	}
}

func (c *Catalog) retryCreateProcess(ctx context.Context, record domain.Process) (domain.Process, error) {
	for attempt := 1; ; attempt++ {
		created, err := c.store.CreateProcess(ctx, record)
		if err == nil {
			return created, nil
		}
		if retryErr := classifyCreateError(domain.KindProcess, err, attempt); retryErr != nil {
			return domain.Process{}, retryErr
		}
	}
}

// classifyCreateError returns nil when the creation should be retried, and a
// terminal error otherwise.
func classifyCreateError(kind domain.Kind, err error, attempt int) error {
	switch {
	case errors.Is(err, storage.ErrDuplicateIdentifier):
		if attempt < identifier.MaxAllocationAttempts {
			return nil
		}
		return apperrors.WithMetadata(apperrors.CodeIdentifierExhausted,
			"identifier allocation kept colliding",
			map[string]string{"Kind": string(kind)})
	case errors.Is(err, storage.ErrNotFound):
		return parentNotFoundError(kind)
	default:
		return storageError("create record", err)
	}
}

func stringValue(decoded map[string]any, key string) string {
	v, _ := decoded[key].(string)
	return v
}

func intValue(decoded map[string]any, key string) int64 {
	v, _ := decoded[key].(int64)
	return v
}

func boolValue(decoded map[string]any, key string) bool {
	v, _ := decoded[key].(bool)
	return v
}
