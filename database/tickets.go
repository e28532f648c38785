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

// CreateTicket inserts a local ticket and returns its generated id.
func (d Datasource) CreateTicket(ctx context.Context, ticket model.Ticket) (int64, error) {
	ctx, span := otel.Tracer("segn_id.database").Start(ctx, "Creating ticket")
	defer span.End()

	var id int64
	err := d.Conn.QueryRowContext(ctx, `
		INSERT INTO segn.segn_id (
			seg_t_mat, seg_o_ogg, seg_o_desc, seg_s_ac_op,
			office_manager, seg_i_rek_alias, seg_i_ty_cont, isFrom
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seg_id
	`, ticket.Category, ticket.Subject, ticket.Description, ticket.Operator,
		ticket.Office, ticket.Alias, ticket.ContactType, ticket.IsFrom).Scan(&id)
	if err != nil {
		span.RecordError(err)
		return 0, persistenceError(fmt.Sprintf("failed to create ticket %s", ticket.Alias), err)
	}
	return id, nil
}

func (d Datasource) CreateAttachment(ctx context.Context, attachment model.Attachment) error {
	ctx, span := otel.Tracer("issue_docs_attachment.database").Start(ctx, "Creating attachment")
	defer span.End()

	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO segn.issue_docs_attachment (id_ticket, url, file_name)
		VALUES ($1, $2, $3)
	`, attachment.TicketID, attachment.URL, attachment.FileName)
	if err != nil {
		span.RecordError(err)
		return persistenceError(fmt.Sprintf("failed to create attachment %s", attachment.FileName), err)
	}
	return nil
}
