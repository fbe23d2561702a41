package repository

import (
	"context"
	"database/sql"

	"licence-desk/internal/domain"
)

var _ domain.MappingRepository = (*MappingRepo)(nil)

// MappingRepo stores schema-mapping rows and display settings in SQLite.
// The JSON columns are written single-encoded; reads return the raw
// strings untouched so the tolerant parser can deal with legacy
// double-encoded payloads imported from older systems.
type MappingRepo struct {
	db *sql.DB
}

// NewMappingRepo creates a new MappingRepo.
func NewMappingRepo(db *sql.DB) *MappingRepo {
	return &MappingRepo{db: db}
}

const mappingColumns = `
	id, main_tab, tab, sections_sections, sections_subsections,
	table_names, column_mappings, column_order, field_dropdowns,
	created_at, updated_at
`

// Create inserts a new mapping row.
func (r *MappingRepo) Create(ctx context.Context, req domain.CreateMappingRequest) (*domain.MappingRow, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cols := make([]string, 0, 6)
	for _, v := range []any{
		req.SectionsSections, req.SectionsSubsections, req.TableNames,
		req.ColumnMappings, req.ColumnOrder, req.FieldDropdowns,
	} {
		s, err := marshalAny(v)
		if err != nil {
			return nil, err
		}
		cols = append(cols, s)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO schema_mappings
			(main_tab, tab, sections_sections, sections_subsections,
			 table_names, column_mappings, column_order, field_dropdowns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, req.MainTab, req.Tab, cols[0], cols[1], cols[2], cols[3], cols[4], cols[5])
	if err != nil {
		return nil, mapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID returns a mapping row by ID.
func (r *MappingRepo) GetByID(ctx context.Context, id int64) (*domain.MappingRow, error) {
	return scanMapping(r.db.QueryRowContext(ctx, `
		SELECT `+mappingColumns+` FROM schema_mappings WHERE id = ?
	`, id))
}

// ListByTab returns the mapping rows of one (main_tab, tab) pair in
// insertion order.
func (r *MappingRepo) ListByTab(ctx context.Context, mainTab, tab string) ([]domain.MappingRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+mappingColumns+`
		FROM schema_mappings
		WHERE main_tab = ? AND tab = ?
		ORDER BY id
	`, mainTab, tab)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()
	return collectMappings(rows)
}

// ListAll returns every mapping row grouped by tab in insertion order.
func (r *MappingRepo) ListAll(ctx context.Context) ([]domain.MappingRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+mappingColumns+`
		FROM schema_mappings
		ORDER BY main_tab, tab, id
	`)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()
	return collectMappings(rows)
}

// Update applies partial changes to a mapping row. Nil maps leave the
// stored column untouched.
func (r *MappingRepo) Update(ctx context.Context, id int64, req domain.UpdateMappingRequest) (*domain.MappingRow, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	set := func(raw string, v any, present bool) (string, error) {
		if !present {
			return raw, nil
		}
		return marshalAny(v)
	}

	sections, err := set(current.SectionsSections, req.SectionsSections, req.SectionsSections != nil)
	if err != nil {
		return nil, err
	}
	subsections, err := set(current.SectionsSubsections, req.SectionsSubsections, req.SectionsSubsections != nil)
	if err != nil {
		return nil, err
	}
	tableNames, err := set(current.TableNames, req.TableNames, req.TableNames != nil)
	if err != nil {
		return nil, err
	}
	columns, err := set(current.ColumnMappings, req.ColumnMappings, req.ColumnMappings != nil)
	if err != nil {
		return nil, err
	}
	order, err := set(current.ColumnOrder, req.ColumnOrder, req.ColumnOrder != nil)
	if err != nil {
		return nil, err
	}
	dropdowns, err := set(current.FieldDropdowns, req.FieldDropdowns, req.FieldDropdowns != nil)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE schema_mappings
		SET sections_sections = ?, sections_subsections = ?, table_names = ?,
		    column_mappings = ?, column_order = ?, field_dropdowns = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, sections, subsections, tableNames, columns, order, dropdowns, id)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a mapping row.
func (r *MappingRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schema_mappings WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound("mapping %d not found", id)
	}
	return nil
}

// GetDisplaySettings returns the overrides for one tab pair. If none are
// stored yet, empty settings are returned rather than NotFoundError: the
// absence of overrides is a valid state meaning everything visible.
func (r *MappingRepo) GetDisplaySettings(ctx context.Context, mainTab, tab string) (*domain.DisplaySettings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, main_tab, tab,
		       tab_visibility, section_visibility, subsection_visibility, field_visibility,
		       tab_order, section_order, subsection_order, field_order,
		       updated_at
		FROM display_settings
		WHERE main_tab = ? AND tab = ?
	`, mainTab, tab)

	var s domain.DisplaySettings
	var vis [4]string
	var ord [4]string
	err := row.Scan(&s.ID, &s.MainTab, &s.Tab,
		&vis[0], &vis[1], &vis[2], &vis[3],
		&ord[0], &ord[1], &ord[2], &ord[3],
		&s.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.EmptyDisplaySettings(mainTab, tab), nil
	}
	if err != nil {
		return nil, mapDBError(err)
	}

	boolMaps := []*map[string]bool{&s.TabVisibility, &s.SectionVisibility, &s.SubsectionVisibility, &s.FieldVisibility}
	for i, raw := range vis {
		if err := unmarshalInto(raw, boolMaps[i]); err != nil {
			return nil, err
		}
	}
	intMaps := []*map[string]int{&s.TabOrder, &s.SectionOrder, &s.SubsectionOrder, &s.FieldOrder}
	for i, raw := range ord {
		if err := unmarshalInto(raw, intMaps[i]); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// SaveDisplaySettings upserts the overrides for the settings' tab pair.
func (r *MappingRepo) SaveDisplaySettings(ctx context.Context, s *domain.DisplaySettings) (*domain.DisplaySettings, error) {
	if s == nil || s.MainTab == "" || s.Tab == "" {
		return nil, domain.ErrValidation("main_tab and tab are required")
	}

	cols := make([]string, 0, 8)
	for _, v := range []any{
		s.TabVisibility, s.SectionVisibility, s.SubsectionVisibility, s.FieldVisibility,
		s.TabOrder, s.SectionOrder, s.SubsectionOrder, s.FieldOrder,
	} {
		raw, err := marshalAny(v)
		if err != nil {
			return nil, err
		}
		cols = append(cols, raw)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO display_settings
			(main_tab, tab, tab_visibility, section_visibility, subsection_visibility,
			 field_visibility, tab_order, section_order, subsection_order, field_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (main_tab, tab) DO UPDATE SET
			tab_visibility = excluded.tab_visibility,
			section_visibility = excluded.section_visibility,
			subsection_visibility = excluded.subsection_visibility,
			field_visibility = excluded.field_visibility,
			tab_order = excluded.tab_order,
			section_order = excluded.section_order,
			subsection_order = excluded.subsection_order,
			field_order = excluded.field_order,
			updated_at = CURRENT_TIMESTAMP
	`, s.MainTab, s.Tab, cols[0], cols[1], cols[2], cols[3], cols[4], cols[5], cols[6], cols[7])
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetDisplaySettings(ctx, s.MainTab, s.Tab)
}

func scanMapping(row rowScanner) (*domain.MappingRow, error) {
	var m domain.MappingRow
	err := row.Scan(&m.ID, &m.MainTab, &m.Tab,
		&m.SectionsSections, &m.SectionsSubsections, &m.TableNames,
		&m.ColumnMappings, &m.ColumnOrder, &m.FieldDropdowns,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &m, nil
}

func collectMappings(rows *sql.Rows) ([]domain.MappingRow, error) {
	var out []domain.MappingRow
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err)
	}
	return out, nil
}
