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
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blnkfinance/auditsync"
	"github.com/blnkfinance/auditsync/config"
	"github.com/blnkfinance/auditsync/database"
	"github.com/blnkfinance/auditsync/internal/lock"
	"github.com/blnkfinance/auditsync/internal/logging"
	"github.com/blnkfinance/auditsync/internal/notification"
	redis_db "github.com/blnkfinance/auditsync/internal/redis-db"
)

// AuditSyncCLI represents the CLI application, encapsulating the root Cobra command.
type AuditSyncCLI struct {
	cmd *cobra.Command
}

// auditsyncInstance holds what the subcommands share for one process run.
type auditsyncInstance struct {
	cnf   *config.Configuration
	logs  *logging.Factory
	ds    *database.Datasource
	sync  *auditsync.AuditSync
	redis *redis_db.Redis
}

// recoverPanic handles any panics during program execution and logs the error using Logrus.
func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads the configuration. A bad configuration stops the process before any work.
func preRun(app *auditsyncInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := config.InitConfig(*configFile); err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}

		logs, err := logging.NewFactory(cnf.Log)
		if err != nil {
			return fmt.Errorf("error configuring logs: %w", err)
		}

		app.cnf = cnf
		app.logs = logs
		return nil
	}
}

// service connects the data source and builds the sync service on first use.
func (app *auditsyncInstance) service(ctx context.Context) (*auditsync.AuditSync, error) {
	if app.sync != nil {
		return app.sync, nil
	}

	ds, err := database.NewDataSource(ctx, app.cnf)
	if err != nil {
		notification.NotifyError(err)
		return nil, fmt.Errorf("error getting datasource: %w", err)
	}

	s, err := auditsync.NewAuditSync(ds, app.logs)
	if err != nil {
		_ = ds.Close()
		return nil, fmt.Errorf("error creating auditsync: %w", err)
	}

	app.ds = ds
	app.sync = s
	return s, nil
}

// runLock builds the configured run lock, connecting to redis when that backend is selected.
func (app *auditsyncInstance) runLock() (lock.RunLock, error) {
	if app.cnf.Lock.Backend != config.LockBackendRedis {
		return lock.New(app.cnf.Lock, nil)
	}

	r, err := redis_db.NewRedisClient(app.cnf.Redis.Dns)
	if err != nil {
		notification.NotifyError(err)
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}
	app.redis = r
	return lock.New(app.cnf.Lock, r.Client())
}

func (app *auditsyncInstance) close() {
	if app.ds != nil {
		if err := app.ds.Close(); err != nil {
			logrus.Warnf("error closing datasource: %v", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			logrus.Warnf("error closing redis: %v", err)
		}
	}
	if app.logs != nil {
		_ = app.logs.Close()
	}
}

// NewCLI creates the command-line interface with one subcommand per sync job.
func NewCLI() (*AuditSyncCLI, *auditsyncInstance) {
	var configFile string
	app := &auditsyncInstance{}

	rootCmd := &cobra.Command{
		Use:           "auditsync",
		Short:         "Keeps the audit store and the issue tracker in sync",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./auditsync.json", "Configuration file for auditsync")
	rootCmd.PersistentPreRunE = preRun(app, &configFile)

	rootCmd.AddCommand(checkCommand(app))
	rootCmd.AddCommand(sendQueueCommand(app))
	rootCmd.AddCommand(relayCommentsCommand(app))
	rootCmd.AddCommand(syncStatusInCommand(app))
	rootCmd.AddCommand(syncStatusOutCommand(app))
	rootCmd.AddCommand(intakeCommand(app))
	rootCmd.AddCommand(setCoordsCommand(app))
	rootCmd.AddCommand(migrateCommands(app))
	rootCmd.AddCommand(configCommands(app))

	return &AuditSyncCLI{cmd: rootCmd}, app
}

func (c AuditSyncCLI) executeCLI() error {
	return c.cmd.Execute()
}

func main() {
	defer recoverPanic()

	cli, app := NewCLI()
	err := cli.executeCLI()
	app.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
