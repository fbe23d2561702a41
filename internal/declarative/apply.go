package declarative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"licence-desk/internal/domain"
)

// Operation represents a planned change type.
type Operation int

// Planned change types. Desired-state apply never deletes: resources
// absent from the YAML are left alone.
const (
	OpCreate Operation = iota
	OpUpdate
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Action is a single planned change.
type Action struct {
	Operation Operation `json:"operation"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`    // "Companies/Licences" or the document type name
	Changes   []string  `json:"changes"` // changed fields on updates
}

// Plan is the list of changes an apply would make.
type Plan struct {
	Actions []Action `json:"actions"`
}

// Summary returns counts of creates and updates.
func (p *Plan) Summary() (creates, updates int) {
	for _, a := range p.Actions {
		if a.Operation == OpCreate {
			creates++
		} else {
			updates++
		}
	}
	return creates, updates
}

// HasChanges reports whether the plan would touch anything.
func (p *Plan) HasChanges() bool { return len(p.Actions) > 0 }

// Applier reconciles a desired state against the metastore.
type Applier struct {
	mappings domain.MappingRepository
	docTypes domain.DocumentTypeRepository
	logger   *slog.Logger
}

// NewApplier creates a new Applier.
func NewApplier(mappings domain.MappingRepository, docTypes domain.DocumentTypeRepository, logger *slog.Logger) *Applier {
	return &Applier{mappings: mappings, docTypes: docTypes, logger: logger}
}

// Plan computes the changes needed to bring the metastore to the
// desired state, without applying anything.
func (a *Applier) Plan(ctx context.Context, state *DesiredState) (*Plan, error) {
	plan := &Plan{}

	existingRows, err := a.mappings.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	byTab := map[string]*domain.MappingRow{}
	for i := range existingRows {
		row := &existingRows[i]
		byTab[row.MainTab+"/"+row.Tab] = row
	}

	for i := range state.Mappings {
		spec := &state.Mappings[i]
		req, err := spec.ToCreateRequest()
		if err != nil {
			return nil, err
		}
		name := spec.MainTab + "/" + spec.Tab
		existing, ok := byTab[name]
		if !ok {
			plan.Actions = append(plan.Actions, Action{Operation: OpCreate, Kind: KindNameMappingList, Name: name})
			continue
		}
		changes := diffMapping(existing, req)
		if len(changes) > 0 {
			plan.Actions = append(plan.Actions, Action{Operation: OpUpdate, Kind: KindNameMappingList, Name: name, Changes: changes})
		}
	}

	for i := range state.DocumentTypes {
		spec := &state.DocumentTypes[i]
		req, err := spec.ToCreateRequest()
		if err != nil {
			return nil, err
		}
		existing, err := a.docTypes.GetByName(ctx, spec.Name)
		if err != nil {
			var nf *domain.NotFoundError
			if errors.As(err, &nf) {
				plan.Actions = append(plan.Actions, Action{Operation: OpCreate, Kind: KindNameDocumentTypeList, Name: spec.Name})
				continue
			}
			return nil, fmt.Errorf("look up document type %q: %w", spec.Name, err)
		}
		changes := diffDocumentType(existing, req)
		if len(changes) > 0 {
			plan.Actions = append(plan.Actions, Action{Operation: OpUpdate, Kind: KindNameDocumentTypeList, Name: spec.Name, Changes: changes})
		}
	}

	return plan, nil
}

// Apply reconciles the desired state: creates missing resources and
// overwrites drifted ones. Returns the plan it executed.
func (a *Applier) Apply(ctx context.Context, state *DesiredState) (*Plan, error) {
	plan, err := a.Plan(ctx, state)
	if err != nil {
		return nil, err
	}

	mappingSpecs := map[string]*MappingSpec{}
	for i := range state.Mappings {
		spec := &state.Mappings[i]
		mappingSpecs[spec.MainTab+"/"+spec.Tab] = spec
	}
	docTypeSpecs := map[string]*DocumentTypeSpec{}
	for i := range state.DocumentTypes {
		spec := &state.DocumentTypes[i]
		docTypeSpecs[spec.Name] = spec
	}

	for _, action := range plan.Actions {
		switch action.Kind {
		case KindNameMappingList:
			if err := a.applyMapping(ctx, action, mappingSpecs[action.Name]); err != nil {
				return nil, err
			}
		case KindNameDocumentTypeList:
			if err := a.applyDocumentType(ctx, action, docTypeSpecs[action.Name]); err != nil {
				return nil, err
			}
		}
		a.logger.Info("applied declarative change",
			"operation", action.Operation.String(),
			"kind", action.Kind,
			"name", action.Name,
		)
	}
	return plan, nil
}

func (a *Applier) applyMapping(ctx context.Context, action Action, spec *MappingSpec) error {
	req, err := spec.ToCreateRequest()
	if err != nil {
		return err
	}
	if action.Operation == OpCreate {
		if _, err := a.mappings.Create(ctx, req); err != nil {
			return fmt.Errorf("create mapping %s: %w", action.Name, err)
		}
		return nil
	}

	rows, err := a.mappings.ListByTab(ctx, spec.MainTab, spec.Tab)
	if err != nil || len(rows) == 0 {
		return fmt.Errorf("load mapping %s for update: %w", action.Name, err)
	}
	update := domain.UpdateMappingRequest{
		SectionsSections:    req.SectionsSections,
		SectionsSubsections: req.SectionsSubsections,
		TableNames:          req.TableNames,
		ColumnMappings:      req.ColumnMappings,
		ColumnOrder:         req.ColumnOrder,
		FieldDropdowns:      req.FieldDropdowns,
	}
	if _, err := a.mappings.Update(ctx, rows[0].ID, update); err != nil {
		return fmt.Errorf("update mapping %s: %w", action.Name, err)
	}
	return nil
}

func (a *Applier) applyDocumentType(ctx context.Context, action Action, spec *DocumentTypeSpec) error {
	req, err := spec.ToCreateRequest()
	if err != nil {
		return err
	}
	if action.Operation == OpCreate {
		if _, err := a.docTypes.Create(ctx, req); err != nil {
			return fmt.Errorf("create document type %q: %w", action.Name, err)
		}
		return nil
	}

	existing, err := a.docTypes.GetByName(ctx, spec.Name)
	if err != nil {
		return fmt.Errorf("load document type %q for update: %w", spec.Name, err)
	}
	update := domain.UpdateDocumentTypeRequest{
		Category: &req.Category,
		Validity: &req.Validity,
		Fields:   req.Fields,
	}
	if _, err := a.docTypes.Update(ctx, existing.ID, update); err != nil {
		return fmt.Errorf("update document type %q: %w", action.Name, err)
	}
	return nil
}

// diffMapping compares a stored row against the desired request column
// by column. Both sides are rendered through encoding/json so the
// comparison is canonical; historically double-encoded rows simply
// report as drifted and get overwritten, which is the wanted outcome.
func diffMapping(row *domain.MappingRow, req domain.CreateMappingRequest) []string {
	var changes []string
	check := func(name, stored string, desired any) {
		if stored != canonicalJSON(desired) {
			changes = append(changes, name)
		}
	}
	check("sections_sections", row.SectionsSections, req.SectionsSections)
	check("sections_subsections", row.SectionsSubsections, req.SectionsSubsections)
	check("table_names", row.TableNames, req.TableNames)
	check("column_mappings", row.ColumnMappings, req.ColumnMappings)
	check("column_order", row.ColumnOrder, req.ColumnOrder)
	check("field_dropdowns", row.FieldDropdowns, req.FieldDropdowns)
	return changes
}

func diffDocumentType(existing *domain.DocumentType, req domain.CreateDocumentTypeRequest) []string {
	var changes []string
	if existing.Category != req.Category {
		changes = append(changes, "category")
	}
	if existing.Validity != req.Validity {
		changes = append(changes, "validity")
	}
	if !fieldsEqual(existing.Fields, req.Fields) {
		changes = append(changes, "fields")
	}
	return changes
}

// fieldsEqual treats nil and empty schemas as the same thing.
func fieldsEqual(a, b []domain.ExtractedField) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func canonicalJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
