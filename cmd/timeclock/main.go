// timeclock is the worker's terminal time clock. It reads the client
// section of the configuration and talks to timekeeperd over HTTP.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timekeeping-backend/config"
	"timekeeping-backend/internal/auth"
	"timekeeping-backend/internal/client"
	"timekeeping-backend/internal/clockui"
	"timekeeping-backend/internal/parse"
	"timekeeping-backend/internal/projector"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var configPath, project string

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "./config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "timeclock",
		Short:         "Clock in and out from the terminal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, project)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", defaultPath, "path to the YAML configuration (env CONFIG_PATH)")
	cmd.Flags().StringVar(&project, "project", "", "project id attached to clock-ins")
	return cmd
}

func run(ctx context.Context, configPath, project string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}
	if cfg.Client.Token == "" {
		return fmt.Errorf("client.token is not set; issue one with `timekeeperd token`")
	}
	actor, err := auth.Unverified(cfg.Client.Token)
	if err != nil {
		return err
	}
	projectID, err := parse.OptionalID("project", &project)
	if err != nil {
		return err
	}

	// The TUI owns the terminal; client diagnostics are dropped.
	api := client.New(&cfg.Client, zap.NewNop())
	current, err := api.Current(ctx)
	if err != nil {
		return fmt.Errorf("failed to load the current shift: %w", err)
	}

	session := projector.NewSession(actor.WorkerID, actor.CompanyID, current,
		projector.WithTimeout(cfg.Client.Timeout))
	_, err = tea.NewProgram(clockui.New(session, api, projectID, nil)).Run()
	return err
}
