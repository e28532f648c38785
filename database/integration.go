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

package database

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/blnkfinance/auditsync/model"
)

// GetIntegrationStatus reads every orchestrator gate in a single query.
func (d Datasource) GetIntegrationStatus(ctx context.Context) (model.IntegrationStatus, error) {
	ctx, span := otel.Tracer("integration.database").Start(ctx, "Fetching integration status")
	defer span.End()

	status := model.IntegrationStatus{Always: true}
	err := d.Conn.QueryRowContext(ctx, `
		SELECT
			EXISTS (
				SELECT 1 FROM segn.reporting_ticket
				WHERE is_from = 'twproject'
					AND action_description IS NOT NULL
			) AS insert_comment_todo,
			EXISTS (
				SELECT 1 FROM audit.todo_queue
				WHERE status IN ('pending','failed')
			) AS open_todo,
			EXISTS (
				SELECT 1 FROM audit.todo_queue
				WHERE status = 'sended'
					AND (todo_status_twprj = 1 OR todo_status_twprj IS NULL)
			) AS todo_sended
	`).Scan(&status.CommentsPending, &status.QueuePending, &status.SyncPending)
	if err != nil {
		span.RecordError(err)
		return model.IntegrationStatus{}, persistenceError("failed to fetch integration status", err)
	}
	return status, nil
}
