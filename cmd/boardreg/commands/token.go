package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remotehive/boardreg/internal/printer"
)

var (
	tokenSubject     string
	tokenRole        string
	tokenPermissions []string
	tokenTTL         string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage service tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a signed service token",
	Long: `Issue a signed service token for an internal component.

Issuance reads the signing secret from local config, so this command is
only useful on a trusted bootstrap host; it is deliberately not exposed
through any network surface.

Examples:
  # Admin token for registry maintenance, valid one hour
  boardreg token issue --subject admin@remotehive.in --role admin \
    --permission registry:read --permission registry:write \
    --permission registry:admin --ttl 1h

  # Read-only token for a scraper worker
  boardreg token issue --subject scraper-worker --role service \
    --permission registry:read --ttl 24h`,
	RunE: runTokenIssue,
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenSubject, "subject", "", "Token subject (required)")
	tokenIssueCmd.Flags().StringVar(&tokenRole, "role", "service", "Role claim")
	tokenIssueCmd.Flags().StringArrayVar(&tokenPermissions, "permission", nil, "Permission to grant (repeatable)")
	tokenIssueCmd.Flags().StringVar(&tokenTTL, "ttl", "", "Token lifetime, e.g. 1h (defaults to config token.default_ttl)")
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenIssue(cmd *cobra.Command, args []string) error {
	if tokenSubject == "" {
		return printer.Error("--subject is required", "Name the component or operator this token identifies.")
	}

	svc, _, err := buildService()
	if err != nil {
		return err
	}

	ttl, err := parseTTL(tokenTTL)
	if err != nil {
		return err
	}

	signed, err := svc.IssueToken(tokenSubject, tokenRole, tokenPermissions, ttl)
	if err != nil {
		return err
	}

	fmt.Println(signed)
	return nil
}
