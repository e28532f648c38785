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
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/blnkfinance/auditsync/internal/apierror"
	"github.com/blnkfinance/auditsync/model"
)

func (d Datasource) GetAuditLink(ctx context.Context, externalID int64) (*model.AuditLink, error) {
	ctx, span := otel.Tracer("control_issue_to_ticket.database").Start(ctx, "Fetching audit link")
	defer span.End()

	link := &model.AuditLink{}
	err := d.Conn.QueryRowContext(ctx, `
		SELECT id_issue, id_ticket, status_id, COALESCE(sync, false)
		FROM audit.control_issue_to_ticket
		WHERE id_issue = $1
	`, externalID).Scan(&link.ExternalID, &link.TicketID, &link.Status, &link.Sync)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("no audit link for issue %d", externalID), err)
		}
		span.RecordError(err)
		return nil, persistenceError(fmt.Sprintf("failed to fetch audit link for issue %d", externalID), err)
	}
	return link, nil
}

func (d Datasource) AuditLinkExists(ctx context.Context, externalID int64) (bool, error) {
	ctx, span := otel.Tracer("control_issue_to_ticket.database").Start(ctx, "Checking audit link")
	defer span.End()

	var count int64
	err := d.Conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM audit.control_issue_to_ticket WHERE id_issue = $1
	`, externalID).Scan(&count)
	if err != nil {
		span.RecordError(err)
		return false, persistenceError(fmt.Sprintf("failed to check audit link for issue %d", externalID), err)
	}
	return count > 0, nil
}

func (d Datasource) CreateAuditLink(ctx context.Context, link model.AuditLink) error {
	ctx, span := otel.Tracer("control_issue_to_ticket.database").Start(ctx, "Creating audit link")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO audit.control_issue_to_ticket (id_issue, id_ticket, status_id, sync)
		VALUES ($1, $2, $3, $4)
	`, link.ExternalID, link.TicketID, int(link.Status), link.Sync)
	if err != nil {
		span.RecordError(err)
		return persistenceError(fmt.Sprintf("failed to create audit link for issue %d", link.ExternalID), err)
	}
	return nil
}

// ReopenAuditLink hands authority back to the tracker: status open, flag cleared.
func (d Datasource) ReopenAuditLink(ctx context.Context, externalID int64) error {
	ctx, span := otel.Tracer("control_issue_to_ticket.database").Start(ctx, "Reopening audit link")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		UPDATE audit.control_issue_to_ticket
		SET status_id = 1, sync = false
		WHERE id_issue = $1
	`, externalID)
	if err != nil {
		span.RecordError(err)
		return persistenceError(fmt.Sprintf("failed to reopen audit link for issue %d", externalID), err)
	}
	return nil
}

func (d Datasource) MarkAuditLinkSynced(ctx context.Context, externalID int64) error {
	ctx, span := otel.Tracer("control_issue_to_ticket.database").Start(ctx, "Marking audit link synced")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		UPDATE audit.control_issue_to_ticket
		SET sync = true
		WHERE id_issue = $1
	`, externalID)
	if err != nil {
		span.RecordError(err)
		return persistenceError(fmt.Sprintf("failed to mark audit link for issue %d synced", externalID), err)
	}
	return nil
}
