package main

// Operator CLI for the tenant directory:
//   go run ./cmd/tenantctl migrate
//   go run ./cmd/tenantctl resolve "Acme Corp"

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tenant-ingest/internal/shared/config"
	"tenant-ingest/internal/shared/storage/db"
	"tenant-ingest/internal/tenants"
)

var errNotFound = errors.New("tenant not found")

// openDB is swapped in tests.
var openDB = func(ctx context.Context, databaseURL string) (*sql.DB, error) {
	return db.Connect(ctx, databaseURL, db.OptionsFromEnv(db.DefaultCLIOptions()))
}

// openDirectory is swapped in tests.
var openDirectory = func(ctx context.Context, databaseURL string) (tenants.Directory, func(), error) {
	sqlDB, err := openDB(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	return &tenants.PGRepo{DB: sqlDB}, func() { sqlDB.Close() }, nil
}

func main() {
	cfg := config.Load()
	if err := newRootCmd(cfg.DatabaseURL).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(defaultURL string) *cobra.Command {
	var databaseURL string

	root := &cobra.Command{
		Use:          "tenantctl",
		Short:        "Inspect and provision tenants in the directory store",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&databaseURL, "database-url", defaultURL, "directory store connection string (DATABASE_URL)")

	root.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply directory schema migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd.Context(), databaseURL, cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "derive <tenant name>",
			Short: "Print the database name a tenant would be provisioned with",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name := strings.TrimSpace(args[0])
				if name == "" {
					return tenants.ErrInvalidTenantName
				}
				fmt.Fprintln(cmd.OutOrStdout(), tenants.DeriveDBName(name))
				return nil
			},
		},
		&cobra.Command{
			Use:   "lookup <tenant name>",
			Short: "Show the directory entry for a tenant without creating it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDirectory(cmd.Context(), databaseURL, func(dir tenants.Directory) error {
					t, found, err := dir.Lookup(cmd.Context(), strings.TrimSpace(args[0]))
					if err != nil {
						return err
					}
					if !found {
						return fmt.Errorf("%w: %q", errNotFound, args[0])
					}
					return printJSON(cmd.OutOrStdout(), t)
				})
			},
		},
		&cobra.Command{
			Use:   "resolve <tenant name>",
			Short: "Resolve a tenant, provisioning it on first use",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDirectory(cmd.Context(), databaseURL, func(dir tenants.Directory) error {
					t, err := tenants.NewProvisioner(dir).ResolveTenant(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), t)
				})
			},
		},
	)
	return root
}

func runMigrate(ctx context.Context, databaseURL string, out io.Writer) error {
	sqlDB, err := openDB(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	fmt.Fprintln(out, "migrations applied")
	return nil
}

func withDirectory(ctx context.Context, databaseURL string, fn func(tenants.Directory) error) error {
	dir, closeFn, err := openDirectory(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("open directory: %w", err)
	}
	defer closeFn()
	return fn(dir)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
