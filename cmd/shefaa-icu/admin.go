package main

import (
	"fmt"
	"log/slog"

	"github.com/shefaa-icu/internal/application/staff"
	"github.com/shefaa-icu/internal/config"
	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/infrastructure/dynamo"
	"github.com/shefaa-icu/internal/pkg/validate"
	"github.com/spf13/cobra"
)

func bootstrapCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create DynamoDB tables and indexes if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := dynamo.NewClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			dynamo.Bootstrap(cmd.Context(), client, cfg.DynamoTables)
			slog.Info("bootstrap complete")
			return nil
		},
	}
}

func createAdminCmd(cfg *config.Config) *cobra.Command {
	var req domain.CreateStaffRequest
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Role = domain.RoleAdmin
			if err := validate.Struct(&req); err != nil {
				return err
			}
			client, err := dynamo.NewClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			svc := staff.NewService(staff.ServiceDeps{
				StaffRepo: dynamo.NewStaffRepo(client, cfg.DynamoTables.Staff, cfg.DynamoTables.Uniques),
			})
			st, err := svc.Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			slog.Info("admin created", "staff_id", st.StaffID, "username", st.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "login name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password (min 8 characters)")
	cmd.Flags().StringVar(&req.FullName, "name", "", "full name")
	for _, f := range []string{"username", "email", "password", "name"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
