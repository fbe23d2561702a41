package cli

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

type documentStatusInfo struct {
	DocumentTypeID int64      `json:"document_type_id"`
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	Status         string     `json:"status"`
	ExpiryDate     *time.Time `json:"expiry_date"`
	DaysLeft       *int       `json:"days_left"`
}

func newComplianceCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compliance <company-id>",
		Short: "Show a company's document compliance summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			companyID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid company id %q", args[0])
			}

			var page listEnvelope[documentStatusInfo]
			path := fmt.Sprintf("/companies/%d/compliance", companyID)
			if err := client.doJSON(http.MethodGet, path, nil, nil, &page); err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), page)
			}
			rows := make([][]string, len(page.Data))
			for i, ds := range page.Data {
				expiry, daysLeft := "-", "-"
				if ds.ExpiryDate != nil {
					expiry = ds.ExpiryDate.Format("2006-01-02")
				}
				if ds.DaysLeft != nil {
					daysLeft = strconv.Itoa(*ds.DaysLeft)
				}
				rows[i] = []string{ds.Name, ds.Category, ds.Status, expiry, daysLeft}
			}
			return printTable(cmd.OutOrStdout(), []string{"DOCUMENT", "CATEGORY", "STATUS", "EXPIRY", "DAYS LEFT"}, rows)
		},
	}
	return cmd
}
