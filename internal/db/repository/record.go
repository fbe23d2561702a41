package repository

import (
	"context"
	"database/sql"
	"strings"

	"licence-desk/internal/domain"
)

var _ domain.RecordRepository = (*RecordRepo)(nil)

// RecordRepo stores dynamic table records in SQLite.
type RecordRepo struct {
	db *sql.DB
}

// NewRecordRepo creates a new RecordRepo.
func NewRecordRepo(db *sql.DB) *RecordRepo {
	return &RecordRepo{db: db}
}

// Create inserts a new table record.
func (r *RecordRepo) Create(ctx context.Context, req domain.CreateRecordRequest) (*domain.TableRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	fieldsJSON, err := marshalMap(req.Fields)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO table_records (table_name, company_id, company_name, fields_json)
		VALUES (?, ?, ?, ?)
	`, req.TableName, req.CompanyID, req.CompanyName, fieldsJSON)
	if err != nil {
		return nil, mapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID returns a table record by ID.
func (r *RecordRepo) GetByID(ctx context.Context, id int64) (*domain.TableRecord, error) {
	return scanRecord(r.db.QueryRowContext(ctx, `
		SELECT id, table_name, company_id, company_name, fields_json, created_at, updated_at
		FROM table_records WHERE id = ?
	`, id))
}

// ListByTable returns records of one table in insertion order.
func (r *RecordRepo) ListByTable(ctx context.Context, tableName string, page domain.PageRequest) ([]domain.TableRecord, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM table_records WHERE table_name = ?
	`, tableName).Scan(&total); err != nil {
		return nil, 0, mapDBError(err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, table_name, company_id, company_name, fields_json, created_at, updated_at
		FROM table_records
		WHERE table_name = ?
		ORDER BY id
		LIMIT ? OFFSET ?
	`, tableName, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, mapDBError(err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListByTables loads all records of the given tables keyed by table name,
// each table's records in insertion order. The result map contains an
// entry for every requested table, empty slices included.
func (r *RecordRepo) ListByTables(ctx context.Context, tableNames []string) (map[string][]domain.TableRecord, error) {
	out := make(map[string][]domain.TableRecord, len(tableNames))
	if len(tableNames) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(tableNames))
	for _, name := range tableNames {
		out[name] = nil
		args = append(args, name)
	}
	placeholders := strings.Repeat("?, ", len(tableNames)-1) + "?"

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, table_name, company_id, company_name, fields_json, created_at, updated_at
		FROM table_records
		WHERE table_name IN (`+placeholders+`)
		ORDER BY table_name, id
	`, args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		out[rec.TableName] = append(out[rec.TableName], rec)
	}
	return out, nil
}

// Update replaces a record's field bag.
func (r *RecordRepo) Update(ctx context.Context, id int64, fields map[string]any) (*domain.TableRecord, error) {
	fieldsJSON, err := marshalMap(fields)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE table_records
		SET fields_json = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, fieldsJSON, id)
	if err != nil {
		return nil, mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotFound("record %d not found", id)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a table record.
func (r *RecordRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM table_records WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound("record %d not found", id)
	}
	return nil
}

func scanRecord(row rowScanner) (*domain.TableRecord, error) {
	var rec domain.TableRecord
	var companyID sql.NullInt64
	var fieldsJSON string
	if err := row.Scan(&rec.ID, &rec.TableName, &companyID, &rec.CompanyName, &fieldsJSON, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, mapDBError(err)
	}
	if companyID.Valid {
		rec.CompanyID = &companyID.Int64
	}
	fields, err := unmarshalMap(fieldsJSON)
	if err != nil {
		return nil, err
	}
	rec.Fields = fields
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]domain.TableRecord, error) {
	var records []domain.TableRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err)
	}
	return records, nil
}
