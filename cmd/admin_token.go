package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/meetbook/internal/server"
)

func newAdminTokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Issue a bearer token for the admin HTTP routes",
		Long: `Issue a signed token for the /admin routes. ADMIN_JWT_SECRET must be set
both here and on the server. Send it as "Authorization: Bearer <token>".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Admin.JWTSecret == "" {
				return errors.New("ADMIN_JWT_SECRET is not set")
			}
			token, err := server.IssueAdminToken([]byte(cfg.Admin.JWTSecret), ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", server.DefaultAdminTokenTTL, "Token lifetime")
	return cmd
}
