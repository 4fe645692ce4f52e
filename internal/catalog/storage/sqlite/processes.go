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

const processColumns = `id, name, status, is_internal_client, is_external_client,
	is_digital_format, is_non_digital_format, responsible_authority, department,
	digital_format_link, identifier, service_id, organization_id, user_id,
	created_at, updated_at`

// CreateProcess inserts one process, deriving its identifier from the parent
// service and creating an empty data sub-record, all in one transaction.
func (s *Store) CreateProcess(ctx context.Context, record domain.Process) (domain.Process, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Process{}, err
	}
	if record.OrganizationID <= 0 {
		return domain.Process{}, fmt.Errorf("organization id is required")
	}
	if record.ServiceID <= 0 {
		return domain.Process{}, fmt.Errorf("service id is required")
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var parentIdentifier string
		err := tx.QueryRowContext(
			ctx,
			`SELECT identifier FROM services WHERE organization_id = ? AND id = ?`,
			record.OrganizationID, record.ServiceID,
		).Scan(&parentIdentifier)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("resolve parent service: %w", err)
		}

		ordinal, err := nextOrdinal(ctx, tx, identifier.ServiceScope(record.ServiceID))
		if err != nil {
			return err
		}
		record.Identifier = identifier.Compose(parentIdentifier, ordinal)

		result, err := tx.ExecContext(
			ctx,
			`INSERT INTO processes (name, status, is_internal_client, is_external_client,
			   is_digital_format, is_non_digital_format, responsible_authority, department,
			   digital_format_link, identifier, service_id, organization_id, user_id,
			   created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.Name,
			record.Status,
			record.IsInternalClient,
			record.IsExternalClient,
			record.IsDigitalFormat,
			record.IsNonDigitalFormat,
			record.ResponsibleAuthority,
			record.Department,
			record.DigitalFormatLink,
			record.Identifier,
			record.ServiceID,
			record.OrganizationID,
			record.UserID,
			toMillis(record.CreatedAt),
			toMillis(record.UpdatedAt),
		)
		if err != nil {
			if isIdentifierUniqueViolation(err) {
				return storage.ErrDuplicateIdentifier
			}
			return fmt.Errorf("create process: %w", err)
		}
		record.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("create process: %w", err)
		}

		// The data sub-record exists from the moment the process does.
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO process_data (process_id) VALUES (?)`,
			record.ID,
		); err != nil {
			return fmt.Errorf("create process data: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Process{}, err
	}
	return record, nil
}

// GetProcess returns one process scoped to an organization.
func (s *Store) GetProcess(ctx context.Context, organizationID, id int64) (domain.Process, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Process{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+processColumns+` FROM processes WHERE organization_id = ? AND id = ?`,
		organizationID, id,
	)
	record, err := scanProcess(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Process{}, storage.ErrNotFound
		}
		return domain.Process{}, fmt.Errorf("get process: %w", err)
	}
	return record, nil
}

// ListProcesses returns one page of processes for an organization.
func (s *Store) ListProcesses(ctx context.Context, organizationID int64, opts storage.ListOptions) (storage.ProcessPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ProcessPage{}, err
	}
	if opts.PageSize <= 0 {
		return storage.ProcessPage{}, fmt.Errorf("page size must be greater than zero")
	}

	query, params := buildListQuery(`SELECT `+processColumns+` FROM processes`, organizationID, opts)
	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return storage.ProcessPage{}, fmt.Errorf("list processes: %w", err)
	}
	defer rows.Close()

	page := storage.ProcessPage{Records: make([]domain.Process, 0, opts.PageSize)}
	for rows.Next() {
		record, err := scanProcess(rows.Scan)
		if err != nil {
			return storage.ProcessPage{}, fmt.Errorf("list processes: %w", err)
		}
		page.Records = append(page.Records, record)
	}
	if err := rows.Err(); err != nil {
		return storage.ProcessPage{}, fmt.Errorf("list processes: %w", err)
	}
	if len(page.Records) > opts.PageSize {
		page.Records = page.Records[:opts.PageSize]
		page.NextAfterID = page.Records[opts.PageSize-1].ID
	}
	return page, nil
}

// UpdateProcess persists the mutable process fields and, when data is
// non-nil, the data sub-record and its relations, in one transaction.
func (s *Store) UpdateProcess(ctx context.Context, record domain.Process, data *domain.ProcessData) (domain.Process, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Process{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(
			ctx,
			`UPDATE processes SET name = ?, status = ?, is_internal_client = ?,
			   is_external_client = ?, is_digital_format = ?, is_non_digital_format = ?,
			   responsible_authority = ?, department = ?, digital_format_link = ?,
			   updated_at = ?
			  WHERE organization_id = ? AND id = ?`,
			record.Name,
			record.Status,
			record.IsInternalClient,
			record.IsExternalClient,
			record.IsDigitalFormat,
			record.IsNonDigitalFormat,
			record.ResponsibleAuthority,
			record.Department,
			record.DigitalFormatLink,
			toMillis(record.UpdatedAt),
			record.OrganizationID,
			record.ID,
		)
		if err != nil {
			return fmt.Errorf("update process: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update process: %w", err)
		}
		if affected == 0 {
			return storage.ErrNotFound
		}

		if data == nil {
			return nil
		}
		return updateProcessData(ctx, tx, record.ID, *data)
	})
	if err != nil {
		return domain.Process{}, err
	}
	return record, nil
}

func updateProcessData(ctx context.Context, tx *sql.Tx, processID int64, data domain.ProcessData) error {
	result, err := tx.ExecContext(
		ctx,
		`UPDATE process_data SET client_value = ?, input_data = ?, output_data = ?, group_name = ?
		  WHERE process_id = ?`,
		data.ClientValue,
		data.InputData,
		data.OutputData,
		data.Group,
		processID,
	)
	if err != nil {
		return fmt.Errorf("update process data: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update process data: %w", err)
	}
	if affected == 0 {
		return storage.ErrProcessDataMissing
	}

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM process_relations WHERE process_id = ?`,
		processID,
	); err != nil {
		return fmt.Errorf("clear process relations: %w", err)
	}
	for _, relatedID := range data.RelatedProcessIDs {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO process_relations (process_id, related_process_id) VALUES (?, ?)`,
			processID, relatedID,
		); err != nil {
			return fmt.Errorf("insert process relation: %w", err)
		}
	}
	return nil
}

// DeleteProcess removes a process and, through foreign keys, its data
// sub-record and relations.
func (s *Store) DeleteProcess(ctx context.Context, organizationID, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM processes WHERE organization_id = ? AND id = ?`,
		organizationID, id,
	)
	if err != nil {
		return fmt.Errorf("delete process: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete process: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetProcessData returns the data sub-record of one process, including its
// related process references.
func (s *Store) GetProcessData(ctx context.Context, processID int64) (domain.ProcessData, error) {
	if err := s.ready(ctx); err != nil {
		return domain.ProcessData{}, err
	}
	var data domain.ProcessData
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT client_value, input_data, output_data, group_name FROM process_data WHERE process_id = ?`,
		processID,
	).Scan(&data.ClientValue, &data.InputData, &data.OutputData, &data.Group)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ProcessData{}, storage.ErrProcessDataMissing
	}
	if err != nil {
		return domain.ProcessData{}, fmt.Errorf("get process data: %w", err)
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT related_process_id FROM process_relations WHERE process_id = ? ORDER BY related_process_id ASC`,
		processID,
	)
	if err != nil {
		return domain.ProcessData{}, fmt.Errorf("get process relations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var relatedID int64
		if err := rows.Scan(&relatedID); err != nil {
			return domain.ProcessData{}, fmt.Errorf("get process relations: %w", err)
		}
		data.RelatedProcessIDs = append(data.RelatedProcessIDs, relatedID)
	}
	if err := rows.Err(); err != nil {
		return domain.ProcessData{}, fmt.Errorf("get process relations: %w", err)
	}
	return data, nil
}

// GetProcessDataBatch loads the data sub-records of several processes at
// once, keyed by process id.
func (s *Store) GetProcessDataBatch(ctx context.Context, processIDs []int64) (map[int64]domain.ProcessData, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	out := make(map[int64]domain.ProcessData, len(processIDs))
	if len(processIDs) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?, ", len(processIDs))
	placeholders = placeholders[:len(placeholders)-2]
	params := make([]any, 0, len(processIDs))
	for _, id := range processIDs {
		params = append(params, id)
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT process_id, client_value, input_data, output_data, group_name
		   FROM process_data WHERE process_id IN (`+placeholders+`)`,
		params...,
	)
	if err != nil {
		return nil, fmt.Errorf("get process data batch: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var processID int64
		var data domain.ProcessData
		if err := rows.Scan(&processID, &data.ClientValue, &data.InputData, &data.OutputData, &data.Group); err != nil {
			return nil, fmt.Errorf("get process data batch: %w", err)
		}
		out[processID] = data
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get process data batch: %w", err)
	}

	relationRows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT process_id, related_process_id FROM process_relations
		  WHERE process_id IN (`+placeholders+`)
		  ORDER BY process_id ASC, related_process_id ASC`,
		params...,
	)
	if err != nil {
		return nil, fmt.Errorf("get process relations batch: %w", err)
	}
	defer relationRows.Close()
	for relationRows.Next() {
		var processID int64
		var relatedID int64
		if err := relationRows.Scan(&processID, &relatedID); err != nil {
			return nil, fmt.Errorf("get process relations batch: %w", err)
		}
		data := out[processID]
		data.RelatedProcessIDs = append(data.RelatedProcessIDs, relatedID)
		out[processID] = data
	}
	if err := relationRows.Err(); err != nil {
		return nil, fmt.Errorf("get process relations batch: %w", err)
	}
	return out, nil
}

// PeekProcessIdentifier returns the identifier the next process under a
// service would receive, without consuming it.
func (s *Store) PeekProcessIdentifier(ctx context.Context, organizationID, serviceID int64) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	var parentIdentifier string
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT identifier FROM services WHERE organization_id = ? AND id = ?`,
		organizationID, serviceID,
	).Scan(&parentIdentifier)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve parent service: %w", err)
	}
	ordinal, err := s.peekOrdinal(ctx, identifier.ServiceScope(serviceID))
	if err != nil {
		return "", err
	}
	return identifier.Compose(parentIdentifier, ordinal), nil
}

func scanProcess(scan func(...any) error) (domain.Process, error) {
	var record domain.Process
	var createdAt int64
	var updatedAt int64
	err := scan(
		&record.ID,
		&record.Name,
		&record.Status,
		&record.IsInternalClient,
		&record.IsExternalClient,
		&record.IsDigitalFormat,
		&record.IsNonDigitalFormat,
		&record.ResponsibleAuthority,
		&record.Department,
		&record.DigitalFormatLink,
		&record.Identifier,
		&record.ServiceID,
		&record.OrganizationID,
		&record.UserID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Process{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
