package cli

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"licence-desk/internal/declarative"
	"licence-desk/internal/domain"
)

func newApplyCmd(client *Client) *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply declarative YAML configuration through the API",
		Long:  "Loads mapping and document type definitions from a config directory and creates or updates them on the server.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := declarative.LoadDirectory(configDir)
			if err != nil {
				return err
			}

			var created, updated int
			for i := range state.Mappings {
				op, err := applyMappingSpec(client, &state.Mappings[i])
				if err != nil {
					return fmt.Errorf("mapping %s/%s: %w", state.Mappings[i].MainTab, state.Mappings[i].Tab, err)
				}
				count(op, &created, &updated)
				cmd.Printf("%s mapping %s/%s\n", op, state.Mappings[i].MainTab, state.Mappings[i].Tab)
			}
			for i := range state.DocumentTypes {
				op, err := applyDocumentTypeSpec(client, &state.DocumentTypes[i])
				if err != nil {
					return fmt.Errorf("document type %s: %w", state.DocumentTypes[i].Name, err)
				}
				count(op, &created, &updated)
				cmd.Printf("%s document type %s\n", op, state.DocumentTypes[i].Name)
			}

			cmd.Printf("Done: %d created, %d updated\n", created, updated)
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "./desk-config", "Path to the configuration directory")

	return cmd
}

func count(op string, created, updated *int) {
	if op == "created" {
		*created++
	} else {
		*updated++
	}
}

// applyMappingSpec creates the mapping when no row exists for its tab and
// overwrites the first row otherwise.
func applyMappingSpec(client *Client, spec *declarative.MappingSpec) (string, error) {
	req, err := spec.ToCreateRequest()
	if err != nil {
		return "", err
	}
	body := map[string]any{
		"sections_sections":    req.SectionsSections,
		"sections_subsections": req.SectionsSubsections,
		"table_names":          req.TableNames,
		"column_mappings":      req.ColumnMappings,
		"column_order":         req.ColumnOrder,
		"field_dropdowns":      req.FieldDropdowns,
	}

	q := url.Values{}
	q.Set("main_tab", spec.MainTab)
	q.Set("tab", spec.Tab)
	var page listEnvelope[struct {
		ID int64 `json:"id"`
	}]
	if err := client.doJSON(http.MethodGet, "/mappings", q, nil, &page); err != nil {
		return "", err
	}

	if len(page.Data) == 0 {
		body["main_tab"] = spec.MainTab
		body["tab"] = spec.Tab
		return "created", client.doJSON(http.MethodPost, "/mappings", nil, body, nil)
	}
	path := fmt.Sprintf("/mappings/%d", page.Data[0].ID)
	return "updated", client.doJSON(http.MethodPatch, path, nil, body, nil)
}

func applyDocumentTypeSpec(client *Client, spec *declarative.DocumentTypeSpec) (string, error) {
	req, err := spec.ToCreateRequest()
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("max_results", "1000")
	var page listEnvelope[struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}]
	if err := client.doJSON(http.MethodGet, "/document-types", q, nil, &page); err != nil {
		return "", err
	}

	var existingID int64
	for _, dt := range page.Data {
		if dt.Name == req.Name {
			existingID = dt.ID
			break
		}
	}

	if existingID == 0 {
		body := map[string]any{
			"name":     req.Name,
			"category": req.Category,
			"validity": req.Validity,
			"fields":   req.Fields,
		}
		return "created", client.doJSON(http.MethodPost, "/document-types", nil, body, nil)
	}
	body := map[string]any{
		"category": req.Category,
		"validity": req.Validity,
		"fields":   fieldsOrEmpty(req.Fields),
	}
	path := fmt.Sprintf("/document-types/%d", existingID)
	return "updated", client.doJSON(http.MethodPatch, path, nil, body, nil)
}

// fieldsOrEmpty keeps a declared-empty schema explicit in the patch body.
func fieldsOrEmpty(fields []domain.ExtractedField) []domain.ExtractedField {
	if fields == nil {
		return []domain.ExtractedField{}
	}
	return fields
}
