package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dayflowhq/dayflow-client/internal/client/config"
	"github.com/dayflowhq/dayflow-client/internal/utils"
)

func init() {
	rootCmd.AddCommand(newLoginCmd())
}

// newLoginCmd writes a validated config file so the daemon can start
// non-interactively afterwards.
func newLoginCmd() *cobra.Command {
	var email string
	var dataDir string
	var serverURL string
	var token string

	cmd := &cobra.Command{
		Use:     "login",
		Aliases: []string{"init"},
		Short:   "Set up the Dayflow client configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := utils.ResolvePath(cmd.Flag("config").Value.String())
			if err != nil {
				return err
			}

			if cfg, err := config.Load(configPath); err == nil {
				fmt.Printf("%s %s (%s)\n", green("Already logged in as"), cyan(cfg.Email), configPath)
				os.Exit(0)
			}

			cfg := &config.Config{
				Email:     email,
				DataDir:   dataDir,
				ServerURL: serverURL,
				AuthToken: token,
				Path:      configPath,
			}
			if err := cfg.Validate(); err != nil {
				fmt.Printf("%s: %s\n", red("ERROR"), err)
				os.Exit(1)
			}

			if err := cfg.Save(configPath); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			fmt.Printf("%s %s\n", green("Config written to"), cyan(configPath))
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Email for the Dayflow account")
	cmd.Flags().StringVarP(&dataDir, "datadir", "d", config.DefaultDataDir, "Dayflow data directory")
	cmd.Flags().StringVarP(&serverURL, "server", "s", config.DefaultServerURL, "Dayflow server")
	cmd.Flags().StringVarP(&token, "token", "t", "", "API token for the Dayflow account")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("token")

	return cmd
}
