package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dayflowhq/dayflow-client/internal/client"
	"github.com/dayflowhq/dayflow-client/internal/client/config"
	"github.com/dayflowhq/dayflow-client/internal/utils"
	"github.com/dayflowhq/dayflow-client/internal/version"
)

var (
	home, _        = os.UserHomeDir()
	configFileName = "config"
)

var (
	red   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green = color.New(color.FgHiGreen).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:     "dayflow",
	Short:   "Dayflow sync client",
	Version: version.Detailed(),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// create & validate config
		cfg := &config.Config{
			Path:       viper.ConfigFileUsed(),
			Email:      viper.GetString("email"),
			DataDir:    viper.GetString("data_dir"),
			ServerURL:  viper.GetString("server_url"),
			ClientAddr: viper.GetString("client_addr"),
			AuthToken:  viper.GetString("auth_token"),
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// all good now, show header
		cmd.SilenceUsage = true
		showDayflowHeader()

		// create daemon
		d, err := client.NewClientDaemon(cfg, &client.ControlPlaneConfig{
			Addr:      cfg.ClientAddr,
			AuthToken: viper.GetString("http_token"),
		})
		if err != nil {
			return err
		}

		// start daemon
		defer slog.Info("Bye!")
		return d.Start(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("email", "e", "", "Email for the Dayflow account")
	rootCmd.Flags().StringP("datadir", "d", config.DefaultDataDir, "Dayflow data directory")
	rootCmd.Flags().StringP("server", "s", config.DefaultServerURL, "Dayflow server")
	rootCmd.Flags().String("addr", config.DefaultClientAddr, "Control plane bind address")
	rootCmd.Flags().StringP("http-token", "t", "", "Access token for the control plane server")
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "Dayflow config file")
}

func main() {
	// TODO handle log rotation
	logFile := config.DefaultLogFilePath

	logDir := filepath.Dir(logFile)
	// Create log directory
	if err := os.MkdirAll(logDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
		os.Exit(1)
	}

	// Create new log file for this instance
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	// Setup handlers for both outputs
	stdoutHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	// Create multi-handler
	multiLogHandler := utils.NewMultiLogHandler(stdoutHandler, fileHandler)
	logger := slog.New(multiLogHandler)
	slog.SetDefault(logger)

	// Setup root context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	// config path
	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".dayflow"))
		viper.AddConfigPath(filepath.Join(home, ".config/dayflow"))
		viper.SetConfigName(configFileName) // Name of config file (without extension)
		viper.SetConfigType("json")
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, ok := err.(viper.ConfigFileNotFoundError)
		if !enoent && !ok {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	// Bind flags to viper
	viper.BindPFlag("email", cmd.Flags().Lookup("email"))
	viper.BindPFlag("data_dir", cmd.Flags().Lookup("datadir"))
	viper.BindPFlag("server_url", cmd.Flags().Lookup("server"))
	viper.BindPFlag("client_addr", cmd.Flags().Lookup("addr"))
	viper.BindPFlag("http_token", cmd.Flags().Lookup("http-token"))

	// Set up environment variables
	viper.SetEnvPrefix("DAYFLOW")
	viper.AutomaticEnv()

	return nil
}

func showDayflowHeader() {
	color.New(color.FgHiCyan, color.Bold).
		Print(utils.DayflowArt + "\n")
}
