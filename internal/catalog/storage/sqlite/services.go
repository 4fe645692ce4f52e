package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/identifier"
	"github.com/civikit/catalog/internal/catalog/storage"
)

const serviceColumns = `id, service_type, name, regulating_act, identifier,
	life_situation_id, organization_id, user_id, created_at, updated_at`

// CreateService inserts one service, deriving its identifier from the parent
// life situation inside the same transaction. The parent must belong to the
// record's organization.
func (s *Store) CreateService(ctx context.Context, record domain.Service) (domain.Service, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Service{}, err
	}
	if record.OrganizationID <= 0 {
		return domain.Service{}, fmt.Errorf("organization id is required")
	}
	if record.LifeSituationID <= 0 {
		return domain.Service{}, fmt.Errorf("life situation id is required")
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var parentIdentifier string
		err := tx.QueryRowContext(
			ctx,
			`SELECT identifier FROM life_situations WHERE organization_id = ? AND id = ?`,
			record.OrganizationID, record.LifeSituationID,
		).Scan(&parentIdentifier)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("resolve parent life situation: %w", err)
		}

		ordinal, err := nextOrdinal(ctx, tx, identifier.LifeSituationScope(record.LifeSituationID))
		if err != nil {
			return err
		}
		record.Identifier = identifier.Compose(parentIdentifier, ordinal)

		result, err := tx.ExecContext(
			ctx,
			`INSERT INTO services (service_type, name, regulating_act, identifier,
			   life_situation_id, organization_id, user_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ServiceType,
			record.Name,
			record.RegulatingAct,
			record.Identifier,
			record.LifeSituationID,
			record.OrganizationID,
			record.UserID,
			toMillis(record.CreatedAt),
			toMillis(record.UpdatedAt),
		)
		if err != nil {
			if isIdentifierUniqueViolation(err) {
				return storage.ErrDuplicateIdentifier
			}
			return fmt.Errorf("create service: %w", err)
		}
		record.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("create service: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Service{}, err
	}
	return record, nil
}

// GetService returns one service scoped to an organization.
func (s *Store) GetService(ctx context.Context, organizationID, id int64) (domain.Service, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Service{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+serviceColumns+` FROM services WHERE organization_id = ? AND id = ?`,
		organizationID, id,
	)
	record, err := scanService(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Service{}, storage.ErrNotFound
		}
		return domain.Service{}, fmt.Errorf("get service: %w", err)
	}
	return record, nil
}

// ListServices returns one page of services for an organization.
func (s *Store) ListServices(ctx context.Context, organizationID int64, opts storage.ListOptions) (storage.ServicePage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ServicePage{}, err
	}
	if opts.PageSize <= 0 {
		return storage.ServicePage{}, fmt.Errorf("page size must be greater than zero")
	}

	query, params := buildListQuery(`SELECT `+serviceColumns+` FROM services`, organizationID, opts)
	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return storage.ServicePage{}, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	page := storage.ServicePage{Records: make([]domain.Service, 0, opts.PageSize)}
	for rows.Next() {
		record, err := scanService(rows.Scan)
		if err != nil {
			return storage.ServicePage{}, fmt.Errorf("list services: %w", err)
		}
		page.Records = append(page.Records, record)
	}
	if err := rows.Err(); err != nil {
		return storage.ServicePage{}, fmt.Errorf("list services: %w", err)
	}
	if len(page.Records) > opts.PageSize {
		page.Records = page.Records[:opts.PageSize]
		page.NextAfterID = page.Records[opts.PageSize-1].ID
	}
	return page, nil
}

// ListServicesByParents loads every service under the given life situations.
func (s *Store) ListServicesByParents(ctx context.Context, organizationID int64, lifeSituationIDs []int64) ([]domain.Service, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if len(lifeSituationIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(lifeSituationIDs))
	placeholders = placeholders[:len(placeholders)-2]
	params := make([]any, 0, len(lifeSituationIDs)+1)
	params = append(params, organizationID)
	for _, id := range lifeSituationIDs {
		params = append(params, id)
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+serviceColumns+` FROM services
		  WHERE organization_id = ? AND life_situation_id IN (`+placeholders+`)
		  ORDER BY id ASC`,
		params...,
	)
	if err != nil {
		return nil, fmt.Errorf("list services by parents: %w", err)
	}
	defer rows.Close()

	var records []domain.Service
	for rows.Next() {
		record, err := scanService(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list services by parents: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list services by parents: %w", err)
	}
	return records, nil
}

// UpdateService persists the mutable service fields. The identifier and the
// parent link never change.
func (s *Store) UpdateService(ctx context.Context, record domain.Service) (domain.Service, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Service{}, err
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE services SET service_type = ?, name = ?, regulating_act = ?, updated_at = ?
		  WHERE organization_id = ? AND id = ?`,
		record.ServiceType,
		record.Name,
		record.RegulatingAct,
		toMillis(record.UpdatedAt),
		record.OrganizationID,
		record.ID,
	)
	if err != nil {
		return domain.Service{}, fmt.Errorf("update service: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Service{}, fmt.Errorf("update service: %w", err)
	}
	if affected == 0 {
		return domain.Service{}, storage.ErrNotFound
	}
	return record, nil
}

// DeleteService removes a service and, through foreign keys, its processes.
func (s *Store) DeleteService(ctx context.Context, organizationID, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM services WHERE organization_id = ? AND id = ?`,
		organizationID, id,
	)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// PeekServiceIdentifier returns the identifier the next service under a life
// situation would receive, without consuming it.
func (s *Store) PeekServiceIdentifier(ctx context.Context, organizationID, lifeSituationID int64) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	var parentIdentifier string
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT identifier FROM life_situations WHERE organization_id = ? AND id = ?`,
		organizationID, lifeSituationID,
	).Scan(&parentIdentifier)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve parent life situation: %w", err)
	}
	ordinal, err := s.peekOrdinal(ctx, identifier.LifeSituationScope(lifeSituationID))
	if err != nil {
		return "", err
	}
	return identifier.Compose(parentIdentifier, ordinal), nil
}

func scanService(scan func(...any) error) (domain.Service, error) {
	var record domain.Service
	var createdAt int64
	var updatedAt int64
	err := scan(
		&record.ID,
		&record.ServiceType,
		&record.Name,
		&record.RegulatingAct,
		&record.Identifier,
		&record.LifeSituationID,
		&record.OrganizationID,
		&record.UserID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Service{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
