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
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/blnkfinance/auditsync/model"
)

// GetPendingSourceComments returns tracker-tagged comments on linked tickets, joined with the external issue id.
func (d Datasource) GetPendingSourceComments(ctx context.Context) ([]model.SourceComment, error) {
	ctx, span := otel.Tracer("reporting_ticket.database").Start(ctx, "Fetching pending source comments")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT rt.id, rt.id_prosit, COALESCE(rt.action_user, ''), COALESCE(rt.action_description, ''), rt.is_from, cit.id_issue
		FROM segn.reporting_ticket AS rt
		JOIN audit.control_issue_to_ticket AS cit
			ON rt.id_prosit = cit.id_ticket
		WHERE rt.is_from = $1
			AND rt.action_description IS NOT NULL
		ORDER BY rt.id ASC
	`, model.ProvenanceTracker)
	if err != nil {
		span.RecordError(err)
		return nil, persistenceError("failed to fetch pending comments", err)
	}
	defer rows.Close()

	var comments []model.SourceComment
	for rows.Next() {
		var c model.SourceComment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.Author, &c.Text, &c.IsFrom, &c.ExternalIssueID); err != nil {
			span.RecordError(err)
			return nil, persistenceError("failed to scan comment", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("failed to iterate comments", err)
	}
	return comments, nil
}

func (d Datasource) DeleteSourceComment(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer("reporting_ticket.database").Start(ctx, "Deleting relayed comment")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `DELETE FROM segn.reporting_ticket WHERE id = $1`, id)
	if err != nil {
		span.RecordError(err)
		return persistenceError(fmt.Sprintf("failed to delete comment %d", id), err)
	}
	return nil
}
