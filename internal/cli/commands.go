package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tvkcanada/tvk-be/internal/auth"
	"github.com/tvkcanada/tvk-be/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		_, closeStore, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		closeStore()
		log.Info().Str("driver", cfg.Database.Driver).Msg("Migrations applied")
		return nil
	},
}

var adminFlags struct {
	email    string
	name     string
	password string
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account, or promote and reset an existing one",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		user, err := a.users.EnsureAdmin(cmd.Context(), adminFlags.email, adminFlags.name, adminFlags.password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin ready: %s (%s)\n", user.Email, user.ID)
		return nil
	},
}

var runJobCmd = &cobra.Command{
	Use:   "run-job <name>",
	Short: "Run one maintenance job now",
	Long: `Run one maintenance job immediately and print its result.

Jobs: expire-memberships, renewal-reminders, prune-webhooks, system-health.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close()

		st, err := a.scheduler.RunNow(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if st.LastError != "" {
			return fmt.Errorf("job %s failed: %s", args[0], st.LastError)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", st.Name, st.LastResult, time.Since(*st.LastRunAt).Round(time.Millisecond))
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminFlags.email, "email", "", "admin email address")
	createAdminCmd.Flags().StringVar(&adminFlags.name, "name", "Administrator", "display name")
	createAdminCmd.Flags().StringVar(&adminFlags.password, "password", "", "password (min 8 characters)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}

func newTokenManager(cfg *config.Config) *auth.Manager {
	return auth.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
}
