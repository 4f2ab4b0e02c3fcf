package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"timekeeping-backend/internal/auth"
	"timekeeping-backend/internal/model"
	"timekeeping-backend/internal/parse"
)

type tokenOptions struct {
	workerID  string
	companyID string
	roles     string
	ttl       time.Duration
}

// newTokenCommand signs a bearer token with the configured secret, for
// development and for configuring the terminal client.
func newTokenCommand(opts *rootOptions) *cobra.Command {
	topts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			actor, err := topts.actor()
			if err != nil {
				return err
			}
			token, err := auth.NewManager(&cfg.Auth).Issue(actor, topts.ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&topts.workerID, "worker", "", "worker id (required)")
	cmd.Flags().StringVar(&topts.companyID, "company", "", "company id (required)")
	cmd.Flags().StringVar(&topts.roles, "roles", "worker", "comma separated roles: worker, manager, admin")
	cmd.Flags().DurationVar(&topts.ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("worker")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func (o *tokenOptions) actor() (model.Actor, error) {
	workerID, err := parse.ID("worker", o.workerID)
	if err != nil {
		return model.Actor{}, err
	}
	companyID, err := parse.ID("company", o.companyID)
	if err != nil {
		return model.Actor{}, err
	}
	roles, err := parse.Roles(strings.Split(o.roles, ","))
	if err != nil {
		return model.Actor{}, err
	}
	return model.Actor{WorkerID: workerID, CompanyID: companyID, Roles: roles}, nil
}
