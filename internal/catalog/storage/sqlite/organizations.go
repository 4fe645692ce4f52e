package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civikit/catalog/internal/catalog/domain"
	"github.com/civikit/catalog/internal/catalog/storage"
)

// CreateOrganization inserts one organization record.
func (s *Store) CreateOrganization(ctx context.Context, record domain.Organization) (domain.Organization, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Organization{}, err
	}
	code := strings.TrimSpace(record.Code)
	name := strings.TrimSpace(record.Name)
	if code == "" {
		return domain.Organization{}, fmt.Errorf("organization code is required")
	}
	if name == "" {
		return domain.Organization{}, fmt.Errorf("organization name is required")
	}
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO organizations (code, name, created_at) VALUES (?, ?, ?)`,
		code, name, toMillis(createdAt),
	)
	if err != nil {
		if isIdentifierUniqueViolation(err) {
			return domain.Organization{}, storage.ErrDuplicateIdentifier
		}
		return domain.Organization{}, fmt.Errorf("create organization: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return domain.Organization{}, fmt.Errorf("create organization: %w", err)
	}
	record.ID = id
	record.Code = code
	record.Name = name
	record.CreatedAt = createdAt
	return record, nil
}

// GetOrganization returns one organization by id.
func (s *Store) GetOrganization(ctx context.Context, id int64) (domain.Organization, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Organization{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, code, name, created_at FROM organizations WHERE id = ?`,
		id,
	)
	return scanOrganization(row)
}

// GetOrganizationByCode returns one organization by its code.
func (s *Store) GetOrganizationByCode(ctx context.Context, code string) (domain.Organization, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Organization{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, code, name, created_at FROM organizations WHERE code = ?`,
		strings.TrimSpace(code),
	)
	return scanOrganization(row)
}

func scanOrganization(row *sql.Row) (domain.Organization, error) {
	var record domain.Organization
	var createdAt int64
	err := row.Scan(&record.ID, &record.Code, &record.Name, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Organization{}, storage.ErrNotFound
		}
		return domain.Organization{}, fmt.Errorf("get organization: %w", err)
	}
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}
