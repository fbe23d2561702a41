package cli

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type apiKeyCreated struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	KeyPrefix string     `json:"key_prefix"`
	Key       string     `json:"key"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func newAPIKeyCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api-key",
		Short: "Manage API keys",
	}
	cmd.AddCommand(newAPIKeyCreateCmd(client))
	return cmd
}

func newAPIKeyCreateCmd(client *Client) *cobra.Command {
	var (
		name      string
		principal string
		expiresIn time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key",
		Long:  "Creates an API key. The raw key is printed once and never stored.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := promptForCredentials(client); err != nil {
				return err
			}

			body := map[string]any{
				"name":           name,
				"principal_name": principal,
			}
			if expiresIn > 0 {
				expiresAt := time.Now().Add(expiresIn)
				body["expires_at"] = expiresAt
			}

			var created apiKeyCreated
			if err := client.doJSON(http.MethodPost, "/api-keys", nil, body, &created); err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), created)
			}
			cmd.Printf("Created API key %s (prefix %s)\n", created.Name, created.KeyPrefix)
			cmd.Printf("Key (shown once): %s\n", created.Key)
			if created.ExpiresAt != nil {
				cmd.Printf("Expires: %s\n", created.ExpiresAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Key name (required)")
	cmd.Flags().StringVar(&principal, "principal", "", "Principal the key acts as (defaults to the caller)")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Key lifetime, e.g. 720h (default: no expiry)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// promptForCredentials asks for an admin token on the terminal when no
// credentials were given. The secret is read without echo.
func promptForCredentials(client *Client) error {
	if client.Token != "" || client.APIKey != "" {
		return nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("no credentials: pass --token or --api-key, or run interactively")
	}
	fmt.Fprint(os.Stderr, "Admin token: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	client.Token = string(raw)
	return nil
}
