package cli

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

type companyInfo struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Fields    map[string]any `json:"fields"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func newCompaniesCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Manage companies",
	}
	cmd.AddCommand(newCompaniesListCmd(client))
	return cmd
}

func newCompaniesListCmd(client *Client) *cobra.Command {
	var (
		maxResults int
		pageToken  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List companies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if maxResults > 0 {
				q.Set("max_results", strconv.Itoa(maxResults))
			}
			if pageToken != "" {
				q.Set("page_token", pageToken)
			}

			var page listEnvelope[companyInfo]
			if err := client.doJSON(http.MethodGet, "/companies", q, nil, &page); err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), page)
			}
			rows := make([][]string, len(page.Data))
			for i, c := range page.Data {
				rows[i] = []string{
					strconv.FormatInt(c.ID, 10),
					c.Name,
					strconv.Itoa(len(c.Fields)),
					c.UpdatedAt.Format("2006-01-02"),
				}
			}
			if err := printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "FIELDS", "UPDATED"}, rows); err != nil {
				return err
			}
			if page.NextPageToken != "" {
				cmd.Printf("\nNext page: --page-token %s\n", page.NextPageToken)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Maximum companies per page")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Page token from a previous listing")

	return cmd
}
