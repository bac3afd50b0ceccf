package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/rescue-api/internal/auth"
	"github.com/tbourn/rescue-api/internal/domain"
	"github.com/tbourn/rescue-api/internal/repo"
	"github.com/tbourn/rescue-api/internal/services"
)

var (
	adminEmail    string
	adminPassword string
	tokenEmail    string
)

// createAdminCmd bootstraps an activated ADMIN account. Admin-only routes
// are unreachable until one exists.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an activated ADMIN user",
	Long: `Create an activated user carrying the ADMIN role. The password is read
from --password or, when empty, from the RESCUE_ADMIN_PASSWORD variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pw := adminPassword
		if pw == "" {
			pw = os.Getenv("RESCUE_ADMIN_PASSWORD")
		}
		if len(pw) < 8 {
			return fmt.Errorf("password must be at least 8 characters")
		}
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		svc := services.NewUserService(db)
		svc.BcryptCost = cfg.Auth.BcryptCost
		u, err := svc.Create(cmd.Context(), services.CreateUserInput{
			Email:    adminEmail,
			Password: pw,
			Roles:    []string{domain.RoleAdmin},
			Status:   domain.UserActivated,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), u.ID)
		return nil
	},
}

// tokenCmd mints a bearer token for an existing user.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token for a user",
	Long:  `Print a bearer token for the user with the given email, carrying the user's stored roles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		u, err := repo.FindUserByEmail(cmd.Context(), db, strings.ToLower(strings.TrimSpace(tokenEmail)))
		if err != nil {
			return fmt.Errorf("user %q: %w", tokenEmail, err)
		}
		tok, exp, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).Issue(u.ID, u.Roles)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.Format(time.RFC3339))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd, tokenCmd)

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	_ = createAdminCmd.MarkFlagRequired("email")

	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "user email")
	_ = tokenCmd.MarkFlagRequired("email")
}
