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

package auditsync

import (
	"context"
	"embed"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/auditsync/config"
	"github.com/blnkfinance/auditsync/database"
	"github.com/blnkfinance/auditsync/internal/files"
	"github.com/blnkfinance/auditsync/internal/gateway"
	"github.com/blnkfinance/auditsync/internal/logging"
)

// Task names used as the "task" log field and as job names in the registry.
const (
	TaskRecordToTodo        = "RecordToTodo"
	TaskInsertCommentToTodo = "InsertCommentToTodo"
	TaskSyncStatusTwToSIT   = "SyncStatusTwToSIT"
	TaskSyncStatusPgToTwprj = "SyncStatusPgToTwprj"
	TaskIssueToTicket       = "IssueToTicket"
	TaskSetIssueCoord       = "SetIssueCoord"
	TaskCheckIntegration    = "checkintegration"
)

const attachmentDownloadTimeout = 60 * time.Second

//go:embed sql/*.sql
var SQLFiles embed.FS

// AuditSync owns the sync jobs between the audit store and the tracker.
type AuditSync struct {
	datasource database.IDataSource
	tracker    gateway.Tracker
	cnf        config.TrackerConfig
	logs       *logging.Factory
	downloader *files.Downloader
}

// NewAuditSync builds the service from the loaded configuration.
//
// Parameters:
// - db database.IDataSource: The datasource for database operations.
// - logs *logging.Factory: The per-task logger factory.
//
// Returns:
// - *AuditSync: The service.
// - error: A configuration error when the active tracker section is missing or invalid.
func NewAuditSync(db database.IDataSource, logs *logging.Factory) (*AuditSync, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	trackerCnf, err := configuration.Tracker()
	if err != nil {
		return nil, err
	}
	return New(db, gateway.NewClient(*trackerCnf), *trackerCnf, logs), nil
}

// New wires a service around an explicit tracker. A nil logger factory discards output.
func New(db database.IDataSource, tracker gateway.Tracker, cnf config.TrackerConfig, logs *logging.Factory) *AuditSync {
	if logs == nil {
		logs = logging.Discard()
	}
	a := &AuditSync{
		datasource: db,
		tracker:    tracker,
		cnf:        cnf,
		logs:       logs,
	}
	if cnf.ResourceLocalPath != "" {
		a.downloader = files.NewDownloader(cnf.ResourceLocalPath, attachmentDownloadTimeout)
	}
	return a
}

type runIDKey struct{}

// WithRunID tags every job log line written under ctx with the orchestrator run id.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// logger returns the task entry and a context that makes tracker calls log through it.
func (a *AuditSync) logger(ctx context.Context, task string) (context.Context, *logrus.Entry) {
	entry := a.logs.ForTask(task)
	if runID, ok := ctx.Value(runIDKey{}).(string); ok && runID != "" {
		entry = entry.WithField("run_id", runID)
	}
	return gateway.WithLogger(ctx, entry), entry
}
