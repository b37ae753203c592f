package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/gobeyondidentity/ssoctl/internal/command"
	"github.com/gobeyondidentity/ssoctl/internal/config"
	"github.com/gobeyondidentity/ssoctl/internal/logger"
	"github.com/gobeyondidentity/ssoctl/internal/prompt"
	"github.com/gobeyondidentity/ssoctl/internal/server"
	"github.com/gobeyondidentity/ssoctl/internal/setup"
	"github.com/gobeyondidentity/ssoctl/internal/wizard"
	"github.com/spf13/cobra"
)

// newRootCmd builds the ssoctl command tree
func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "ssoctl",
		Short: "AWS SSO session synchronization tool",
		Long: `A tool for keeping the local AWS SSO sessions of each configured
integration in sync with its access portal.

This application supports two modes:
- One-shot mode: sync one integration and exit
- Server mode: run continuously with scheduled syncs and an HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ssoctl.yaml or ~/.config/ssoctl/config.yaml)")

	integrationCmd := &cobra.Command{
		Use:   "integration",
		Short: "Manage and synchronize AWS SSO integrations",
	}
	integrationCmd.AddCommand(newSyncCmd(&cfgFile))
	integrationCmd.AddCommand(newListCmd(&cfgFile))
	integrationCmd.AddCommand(newCreateCmd(&cfgFile))

	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Setup checks",
	}
	setupCmd.AddCommand(newSetupValidateCmd(&cfgFile))

	rootCmd.AddCommand(integrationCmd)
	rootCmd.AddCommand(newServeCmd(&cfgFile))
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(newValidateConfigCmd(&cfgFile))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newSyncCmd(cfgFile *string) *cobra.Command {
	var integrationID string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the sessions of one integration",
		Long: `Synchronize the AWS SSO sessions of one integration and notify the session daemon.
Without --integrationId, choose among the integrations that hold a valid SSO token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgFile, logger.FormatPlain)
			if err != nil {
				return err
			}

			log := logger.Setup(cfg.App.LogLevel, cfg.App.LogFormat)
			p := newProvider(cfg, prompt.NewSelector(), log)

			return command.NewSyncCommand(p, log).Run(cmd.Context(), integrationID)
		},
	}

	cmd.Flags().StringVar(&integrationID, "integrationId", "", "id of the integration to synchronize")
	cmd.SetFlagErrorFunc(flagError)

	return cmd
}

// flagError reports flag parsing failures as usage errors
func flagError(cmd *cobra.Command, err error) error {
	const missingValue = "flag needs an argument: "

	msg := err.Error()
	if strings.HasPrefix(msg, missingValue) {
		name := strings.TrimPrefix(msg, missingValue)
		return command.NewUsageError(fmt.Sprintf("Flag %s expects a value", name))
	}
	return command.NewUsageError(msg)
}

func newListCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured integrations and their SSO token status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgFile, logger.FormatPlain)
			if err != nil {
				return err
			}

			log := logger.New(cmd.ErrOrStderr(), cfg.App.LogLevel, cfg.App.LogFormat)
			p := newProvider(cfg, headlessSelector{}, log)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tALIAS\tPORTAL\tONLINE")
			for _, i := range p.directory.GetIntegrations() {
				status := p.directory.Status(cmd.Context(), i)
				online := "no"
				if status.Online {
					online = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", i.ID, i.Alias, i.PortalURL, online)
			}
			return w.Flush()
		},
	}
}

func newCreateCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Add an integration with an interactive wizard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *cfgFile
			if path == "" {
				found, err := config.FindConfigFile()
				if err != nil {
					found = config.DefaultConfigPath()
				}
				path = found
			}

			_, err := wizard.NewWizard(path).Run()
			return err
		},
	}
}

func newServeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run in server mode with HTTP API and optional scheduling",
		Long: `Run the application in server mode. This provides an HTTP API for manual syncs,
health checks, and metrics. If scheduling is enabled in configuration, every online
integration is synced according to the configured cron schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgFile, logger.FormatTimestamped)
			if err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration validation failed: %w", err)
			}

			log := logger.Setup(cfg.App.LogLevel, cfg.App.LogFormat)

			aliases := make([]string, len(cfg.Integrations))
			for i, integration := range cfg.Integrations {
				aliases[i] = integration.Alias
			}
			logger.LogIntegrations(log, aliases, cfg.App.LogLevel)

			if cfg.Server.ScheduleEnabled {
				log.Infof("Scheduling enabled with cron: %s", cfg.Server.Schedule)
			} else {
				log.Info("Scheduling disabled - manual sync only")
			}

			p := newProvider(cfg, headlessSelector{}, log)
			srv := server.NewServer(cfg, server.NewCommandRunner(p, log), p.directory, log)

			return srv.Start(cmd.Context())
		},
	}
}

func newValidateConfigCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config",
		Short: "Validate configuration file",
		Long:  `Validate the configuration file for syntax and required fields.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgFile, logger.FormatPlain)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "❌ Configuration validation failed:\n%v\n", err)
				return fmt.Errorf("configuration validation failed")
			}

			fmt.Fprintln(out, "✅ Configuration file is valid")
			fmt.Fprintf(out, "   - Daemon: %s\n", cfg.Daemon.URL)
			fmt.Fprintf(out, "   - Integrations: %d\n", len(cfg.Integrations))
			fmt.Fprintf(out, "   - Log level: %s\n", cfg.App.LogLevel)

			return nil
		},
	}
}

func newSetupValidateCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate current setup and connectivity",
		Long:  `Validate the configuration file, session daemon connectivity, and the SSO token of every integration.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgFile, logger.FormatPlain)
			if err != nil {
				return fmt.Errorf("%w - run 'ssoctl integration create' first", err)
			}

			log := logger.New(cmd.ErrOrStderr(), "error", cfg.App.LogFormat)
			p := newProvider(cfg, headlessSelector{}, log)

			summary := setup.NewValidator(cfg, p.daemon, p.directory).ValidateSetup(cmd.Context())
			if summary.OverallStatus != "PASS" {
				return fmt.Errorf("setup validation failed: %d of %d checks failed", summary.Failed, summary.TotalChecks)
			}

			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ssoctl version %s\n", server.Version)
		},
	}
}

// loadConfig reads the config file from path, or from the standard locations
// when path is empty, and applies defaults.
func loadConfig(path, defaultFormat string) (*config.Config, error) {
	if path == "" {
		found, err := config.FindConfigFile()
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cfg.App.LogFormat == "" {
		cfg.App.LogFormat = defaultFormat
	}
	cfg.SetDefaults()

	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
