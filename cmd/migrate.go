/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/blnkfinance/auditsync"
	pgconn "github.com/blnkfinance/auditsync/internal/pg-conn"
)

const migrationTable = "auditsync_migrations"

// migrateCommands creates the root command for migration-related operations.
func migrateCommands(app *auditsyncInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the audit store schema",
	}

	cmd.AddCommand(migrateUpCommands(app))
	cmd.AddCommand(migrateDownCommands(app))

	return cmd
}

func runMigrations(app *auditsyncInstance, cmd *cobra.Command, direction migrate.MigrationDirection) (int, error) {
	migrations := migrate.EmbedFileSystemMigrationSource{
		FileSystem: auditsync.SQLFiles,
		Root:       "sql",
	}

	db, err := pgconn.ConnectDB(cmd.Context(), app.cnf.DataSource)
	if err != nil {
		return 0, fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	migrate.SetTable(migrationTable)
	return migrate.Exec(db, "postgres", migrations, direction)
}

// migrateUpCommands creates the command for applying migrations.
func migrateUpCommands(app *auditsyncInstance) *cobra.Command {
	return &cobra.Command{
		Use: "up",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := runMigrations(app, cmd, migrate.Up)
			if err != nil {
				return fmt.Errorf("error migrating up: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migrations!\n", n)
			return nil
		},
	}
}

// migrateDownCommands creates the command for rolling back migrations.
func migrateDownCommands(app *auditsyncInstance) *cobra.Command {
	return &cobra.Command{
		Use: "down",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := runMigrations(app, cmd, migrate.Down)
			if err != nil {
				return fmt.Errorf("error migrating down: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migrations!\n", n)
			return nil
		},
	}
}
