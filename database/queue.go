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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wacul/ptr"
	"go.opentelemetry.io/otel"

	"github.com/blnkfinance/auditsync/internal/apierror"
	"github.com/blnkfinance/auditsync/model"
)

const queueColumns = `id, subject, body, task_id, gravity, assigned_by, assignee_id, lat, lon, status,
	id_todo_twprj, todo_status_twprj, todo_comments_twprj, created_at, sent_at, sinc_status`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQueueItem(row rowScanner) (*model.QueueItem, error) {
	var (
		item                    model.QueueItem
		subject, body, status   sql.NullString
		taskID, assignedBy      sql.NullInt64
		assigneeID, externalID  sql.NullInt64
		gravity, externalStatus sql.NullInt32
		lat, lon                sql.NullFloat64
		comments                []byte
		sentAt, syncedAt        sql.NullTime
	)

	err := row.Scan(
		&item.ID, &subject, &body, &taskID, &gravity, &assignedBy, &assigneeID, &lat, &lon, &status,
		&externalID, &externalStatus, &comments, &item.CreatedAt, &sentAt, &syncedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Subject = subject.String
	item.Body = body.String
	item.TaskID = taskID.Int64
	item.Status = model.QueueStatus(status.String)
	if gravity.Valid {
		item.Gravity = ptr.Int(int(gravity.Int32))
	}
	if assignedBy.Valid {
		item.AssignedBy = ptr.Int64(assignedBy.Int64)
	}
	if assigneeID.Valid {
		item.AssigneeID = ptr.Int64(assigneeID.Int64)
	}
	if lat.Valid {
		item.Lat = ptr.Float64(lat.Float64)
	}
	if lon.Valid {
		item.Lon = ptr.Float64(lon.Float64)
	}
	if externalID.Valid {
		item.ExternalID = ptr.Int64(externalID.Int64)
	}
	if externalStatus.Valid {
		item.ExternalStatus = ptr.Int(int(externalStatus.Int32))
	}
	if sentAt.Valid {
		item.SentAt = ptr.Time(sentAt.Time)
	}
	if syncedAt.Valid {
		item.SyncedAt = ptr.Time(syncedAt.Time)
	}
	if len(comments) > 0 {
		if err := json.Unmarshal(comments, &item.ExternalComments); err != nil {
			return nil, fmt.Errorf("invalid todo_comments_twprj for queue item %d: %w", item.ID, err)
		}
	}
	return &item, nil
}

// GetPendingQueueItems returns items never sent or whose last attempt failed, oldest first.
func (d Datasource) GetPendingQueueItems(ctx context.Context) ([]model.QueueItem, error) {
	ctx, span := otel.Tracer("todo_queue.database").Start(ctx, "Fetching pending queue items")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+queueColumns+`
		FROM audit.todo_queue
		WHERE status IN ('pending','failed')
		ORDER BY created_at ASC
	`)
	if err != nil {
		span.RecordError(err)
		return nil, persistenceError("failed to fetch pending queue items", err)
	}
	defer rows.Close()

	var items []model.QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			span.RecordError(err)
			return nil, persistenceError("failed to scan queue item", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("failed to iterate queue items", err)
	}
	return items, nil
}

func (d Datasource) GetQueueItem(ctx context.Context, id int64) (*model.QueueItem, error) {
	ctx, span := otel.Tracer("todo_queue.database").Start(ctx, "Fetching queue item")
	defer span.End()

	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+queueColumns+`
		FROM audit.todo_queue
		WHERE id = $1
	`, id)

	item, err := scanQueueItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("queue item %d not found", id), err)
		}
		span.RecordError(err)
		return nil, persistenceError(fmt.Sprintf("failed to fetch queue item %d", id), err)
	}
	return item, nil
}

// MarkQueueItemSent records the tracker id. The observed status starts open.
func (d Datasource) MarkQueueItemSent(ctx context.Context, update model.SentUpdate) error {
	ctx, span := otel.Tracer("todo_queue.database").Start(ctx, "Marking queue item sent")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		UPDATE audit.todo_queue
		SET status = 'sended',
			sent_at = NOW(),
			todo_status_twprj = 1,
			id_todo_twprj = $2
		WHERE id = $1
	`, update.ID, update.ExternalID)
	if err != nil {
		span.RecordError(err)
		return persistenceError(fmt.Sprintf("failed to mark queue item %d sent", update.ID), err)
	}
	return nil
}

func (d Datasource) MarkQueueItemFailed(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer("todo_queue.database").Start(ctx, "Marking queue item failed")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		UPDATE audit.todo_queue
		SET status = 'failed',
			sent_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		span.RecordError(err)
		return persistenceError(fmt.Sprintf("failed to mark queue item %d failed", id), err)
	}
	return nil
}

// GetOpenSentIssueIDs lists tracker ids of sent items whose last observed status is open.
func (d Datasource) GetOpenSentIssueIDs(ctx context.Context) ([]int64, error) {
	ctx, span := otel.Tracer("todo_queue.database").Start(ctx, "Fetching open sent issue ids")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT id_todo_twprj
		FROM audit.todo_queue
		WHERE status = 'sended'
			AND (todo_status_twprj = 1 OR todo_status_twprj IS NULL)
		ORDER BY id ASC
	`)
	if err != nil {
		span.RecordError(err)
		return nil, persistenceError("failed to fetch open sent issues", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id sql.NullInt64
		if err := rows.Scan(&id); err != nil {
			return nil, persistenceError("failed to scan issue id", err)
		}
		if id.Valid {
			ids = append(ids, id.Int64)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("failed to iterate issue ids", err)
	}
	return ids, nil
}

// UpdateQueueItemSync replaces the status and the whole comment snapshot of an item.
func (d Datasource) UpdateQueueItemSync(ctx context.Context, update model.SyncUpdate) error {
	ctx, span := otel.Tracer("todo_queue.database").Start(ctx, "Updating queue item sync")
	defer span.End()

	comments := update.Comments
	if comments == nil {
		comments = []model.ExternalComment{}
	}
	commentsJSON, err := json.Marshal(comments)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrData, "failed to encode comments", err)
	}

	_, err = d.Conn.ExecContext(ctx, `
		UPDATE audit.todo_queue
		SET todo_status_twprj = $1,
			sinc_status = NOW(),
			todo_comments_twprj = $2
		WHERE id_todo_twprj = $3
	`, update.StatusID, commentsJSON, update.ExternalID)
	if err != nil {
		span.RecordError(err)
		return persistenceError(fmt.Sprintf("failed to update sync state of issue %d", update.ExternalID), err)
	}
	return nil
}
