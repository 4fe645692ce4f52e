package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/identifier"
	"github.com/civikit/catalog/internal/catalog/search"
	"github.com/civikit/catalog/internal/catalog/storage"
)

const lifeSituationColumns = `id, name, identifier, organization_id, user_id, created_at, updated_at`

// CreateLifeSituation inserts one life situation, allocating its identifier
// from the organization counter inside the same transaction.
func (s *Store) CreateLifeSituation(ctx context.Context, record domain.LifeSituation, orgCode string) (domain.LifeSituation, error) {
	if err := s.ready(ctx); err != nil {
		return domain.LifeSituation{}, err
	}
	orgCode = strings.TrimSpace(orgCode)
	if orgCode == "" {
		return domain.LifeSituation{}, fmt.Errorf("organization code is required")
	}
	if record.OrganizationID <= 0 {
		return domain.LifeSituation{}, fmt.Errorf("organization id is required")
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ordinal, err := nextOrdinal(ctx, tx, identifier.OrganizationScope(record.OrganizationID))
		if err != nil {
			return err
		}
		record.Identifier = identifier.Compose(orgCode, ordinal)

		result, err := tx.ExecContext(
			ctx,
			`INSERT INTO life_situations (name, identifier, organization_id, user_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			record.Name,
			record.Identifier,
			record.OrganizationID,
			record.UserID,
			toMillis(record.CreatedAt),
			toMillis(record.UpdatedAt),
		)
		if err != nil {
			if isIdentifierUniqueViolation(err) {
				return storage.ErrDuplicateIdentifier
			}
			return fmt.Errorf("create life situation: %w", err)
		}
		record.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("create life situation: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.LifeSituation{}, err
	}
	return record, nil
}

// GetLifeSituation returns one life situation scoped to an organization.
func (s *Store) GetLifeSituation(ctx context.Context, organizationID, id int64) (domain.LifeSituation, error) {
	if err := s.ready(ctx); err != nil {
		return domain.LifeSituation{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+lifeSituationColumns+` FROM life_situations WHERE organization_id = ? AND id = ?`,
		organizationID, id,
	)
	record, err := scanLifeSituation(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LifeSituation{}, storage.ErrNotFound
		}
		return domain.LifeSituation{}, fmt.Errorf("get life situation: %w", err)
	}
	return record, nil
}

// ListLifeSituations returns one page of life situations for an organization.
func (s *Store) ListLifeSituations(ctx context.Context, organizationID int64, opts storage.ListOptions) (storage.LifeSituationPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.LifeSituationPage{}, err
	}
	if opts.PageSize <= 0 {
		return storage.LifeSituationPage{}, fmt.Errorf("page size must be greater than zero")
	}

	query, params := buildListQuery(
		`SELECT `+lifeSituationColumns+` FROM life_situations`,
		organizationID, opts,
	)
	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return storage.LifeSituationPage{}, fmt.Errorf("list life situations: %w", err)
	}
	defer rows.Close()

	page := storage.LifeSituationPage{
		Records: make([]domain.LifeSituation, 0, opts.PageSize),
	}
	for rows.Next() {
		record, err := scanLifeSituation(rows.Scan)
		if err != nil {
			return storage.LifeSituationPage{}, fmt.Errorf("list life situations: %w", err)
		}
		page.Records = append(page.Records, record)
	}
	if err := rows.Err(); err != nil {
		return storage.LifeSituationPage{}, fmt.Errorf("list life situations: %w", err)
	}
	if len(page.Records) > opts.PageSize {
		page.Records = page.Records[:opts.PageSize]
		page.NextAfterID = page.Records[opts.PageSize-1].ID
	}
	return page, nil
}

// UpdateLifeSituation persists the mutable life situation fields.
func (s *Store) UpdateLifeSituation(ctx context.Context, record domain.LifeSituation) (domain.LifeSituation, error) {
	if err := s.ready(ctx); err != nil {
		return domain.LifeSituation{}, err
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE life_situations SET name = ?, updated_at = ? WHERE organization_id = ? AND id = ?`,
		record.Name, toMillis(record.UpdatedAt), record.OrganizationID, record.ID,
	)
	if err != nil {
		return domain.LifeSituation{}, fmt.Errorf("update life situation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.LifeSituation{}, fmt.Errorf("update life situation: %w", err)
	}
	if affected == 0 {
		return domain.LifeSituation{}, storage.ErrNotFound
	}
	return record, nil
}

// DeleteLifeSituation removes a life situation and, through foreign keys, its
// services and processes. The identifier counter keeps its value so deleted
// ordinals are never reissued.
func (s *Store) DeleteLifeSituation(ctx context.Context, organizationID, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM life_situations WHERE organization_id = ? AND id = ?`,
		organizationID, id,
	)
	if err != nil {
		return fmt.Errorf("delete life situation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete life situation: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// PeekLifeSituationIdentifier returns the identifier the next life situation
// in the organization would receive, without consuming it.
func (s *Store) PeekLifeSituationIdentifier(ctx context.Context, organizationID int64, orgCode string) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	ordinal, err := s.peekOrdinal(ctx, identifier.OrganizationScope(organizationID))
	if err != nil {
		return "", err
	}
	return identifier.Compose(strings.TrimSpace(orgCode), ordinal), nil
}

func scanLifeSituation(scan func(...any) error) (domain.LifeSituation, error) {
	var record domain.LifeSituation
	var createdAt int64
	var updatedAt int64
	err := scan(
		&record.ID,
		&record.Name,
		&record.Identifier,
		&record.OrganizationID,
		&record.UserID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.LifeSituation{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

// buildListQuery assembles a scoped keyset pagination query from the shared
// list options. The base query must not contain a WHERE clause.
func buildListQuery(base string, organizationID int64, opts storage.ListOptions) (string, []any) {
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString(" WHERE organization_id = ?")
	params := []any{organizationID}
	if opts.AfterID > 0 {
		sb.WriteString(" AND id > ?")
		params = append(params, opts.AfterID)
	}
	if condition := search.Combine(opts.Filter, opts.Search); !condition.Empty() {
		sb.WriteString(" AND ")
		sb.WriteString(condition.Clause)
		params = append(params, condition.Params...)
	}
	sb.WriteString(" ORDER BY id ASC LIMIT ?")
	params = append(params, opts.PageSize+1)
	return sb.String(), params
}
