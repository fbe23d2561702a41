package cli

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(client *Client) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <main-tab> <tab>",
		Short: "Export a tab's dataset as CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/tabs/%s/%s/export", url.PathEscape(args[0]), url.PathEscape(args[1]))
			resp, err := client.Do(http.MethodGet, path, nil, nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return apiErrorFromResponse(resp)
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath) //nolint:gosec // path is caller-controlled
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			if _, err := io.Copy(out, resp.Body); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			if outPath != "" {
				cmd.Printf("Exported %s/%s to %s\n", args[0], args[1], outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "Write the CSV to a file instead of stdout")

	return cmd
}
