package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/app/bootstrap"
	"github.com/spf13/cobra"
)

var defaultCategories = []string{
	"Electronics",
	"Home & Kitchen",
	"Beauty & Personal Care",
	"Sports & Outdoors",
	"Toys & Games",
	"Fashion",
	"Health",
	"Books",
	"Pet Supplies",
	"Automotive",
}

type rootOptions struct {
	configPath string
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "supertryctl",
		Short:         "Maintenance commands for the Super Try platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "configs/default.yaml", "Path to the YAML config file")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Overall command timeout")

	root.AddCommand(
		newMigrateCmd(opts),
		newSeedCategoriesCmd(opts),
		newSweepCmd(opts),
		newPurgeLogsCmd(opts),
		newProcessWithdrawalsCmd(opts),
		newCreateAdminCmd(opts),
	)
	return root
}

// withRuntime builds the runtime, runs fn and releases every connection.
func withRuntime(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, rt *bootstrap.Runtime) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()
	rt, err := bootstrap.NewRuntime(ctx, opts.configPath)
	if err != nil {
		return fmt.Errorf("bootstrap runtime: %w", err)
	}
	defer rt.Close(context.Background())
	return fn(ctx, rt)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *bootstrap.Runtime) error {
				if err := rt.Migrate(ctx); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return err
			})
		},
	}
}

func newSeedCategoriesCmd(opts *rootOptions) *cobra.Command {
	var names []string
	cmd := &cobra.Command{
		Use:   "seed-categories",
		Short: "Create the default product categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(names) == 0 {
				names = defaultCategories
			}
			return withRuntime(cmd, opts, func(ctx context.Context, rt *bootstrap.Runtime) error {
				created, err := rt.Service().SeedCategories(ctx, names)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int{"created": created})
			})
		},
	}
	cmd.Flags().StringSliceVar(&names, "name", nil, "Category name to create (repeatable, defaults to the built-in list)")
	return cmd
}

func newSweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire stale sessions, complete ended campaigns and apply log retention",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *bootstrap.Runtime) error {
				report, err := rt.Service().Sweep(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}

func newPurgeLogsCmd(opts *rootOptions) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "purge-logs",
		Short: "Delete system logs older than the given age",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan < 0 {
				return errors.New("--older-than must not be negative")
			}
			return withRuntime(cmd, opts, func(ctx context.Context, rt *bootstrap.Runtime) error {
				removed, err := rt.Service().PurgeSystemLogs(ctx, olderThan)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int64{"removed": removed})
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Minimum age of the logs to delete, e.g. 2160h (0 uses the configured retention)")
	return cmd
}

func newProcessWithdrawalsCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "process-withdrawals",
		Short: "Pay out pending bank-transfer withdrawals through Stripe",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			return withRuntime(cmd, opts, func(ctx context.Context, rt *bootstrap.Runtime) error {
				report, err := rt.Service().ProcessPendingWithdrawals(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of withdrawals to process")
	return cmd
}

func newCreateAdminCmd(opts *rootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, opts, func(ctx context.Context, rt *bootstrap.Runtime) error {
				user, err := rt.Service().CreateAdmin(ctx, email, password)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), struct {
					UserID string `json:"user_id"`
					Email  string `json:"email"`
					Role   string `json:"role"`
				}{user.UserID.String(), user.Email, string(user.Role)})
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Administrator email")
	cmd.Flags().StringVar(&password, "password", "", "Administrator password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
