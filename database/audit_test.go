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
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/auditsync/internal/apierror"
	"github.com/blnkfinance/auditsync/model"
)

func TestGetAuditLink(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit.control_issue_to_ticket\n\t\tWHERE id_issue = $1")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id_issue", "id_ticket", "status_id", "sync"}).AddRow(9, 55, 2, false))

	link, err := ds.GetAuditLink(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, model.AuditLink{ExternalID: 9, TicketID: 55, Status: model.AuditStatusClosed, Sync: false}, *link)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAuditLink_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	mock.ExpectQuery("FROM audit.control_issue_to_ticket").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err = ds.GetAuditLink(context.Background(), 404)
	assert.Equal(t, apierror.ErrNotFound, apierror.CodeOf(err))
}

func TestAuditLinkExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit.control_issue_to_ticket WHERE id_issue = $1")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit.control_issue_to_ticket WHERE id_issue = $1")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := ds.AuditLinkExists(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = ds.AuditLinkExists(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAuditLink(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit.control_issue_to_ticket (id_issue, id_ticket, status_id, sync)")).
		WithArgs(int64(9), int64(55), 1, false).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = ds.CreateAuditLink(context.Background(), model.AuditLink{ExternalID: 9, TicketID: 55, Status: model.AuditStatusOpen})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReopenAuditLink(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	mock.ExpectExec(regexp.QuoteMeta("SET status_id = 1, sync = false")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, ds.ReopenAuditLink(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkAuditLinkSynced(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	mock.ExpectExec(regexp.QuoteMeta("SET sync = true")).
		WithArgs(int64(9)).
		WillReturnError(errors.New("connection lost"))

	err = ds.MarkAuditLinkSynced(context.Background(), 9)
	assert.Equal(t, apierror.ErrPersistence, apierror.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPendingSourceComments(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	mock.ExpectQuery(regexp.QuoteMeta("JOIN audit.control_issue_to_ticket AS cit")).
		WithArgs("twproject").
		WillReturnRows(sqlmock.NewRows([]string{"id", "id_prosit", "action_user", "action_description", "is_from", "id_issue"}).
			AddRow(1, 55, "Mario", "done", "twproject", 777).
			AddRow(2, 56, "", "", "twproject", 778))

	comments, err := ds.GetPendingSourceComments(context.Background())
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "Mario: done", comments[0].RelayText())
	assert.Equal(t, int64(777), comments[0].ExternalIssueID)
	assert.Equal(t, ": ", comments[1].RelayText())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSourceComment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM segn.reporting_ticket WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, ds.DeleteSourceComment(context.Background(), 1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTicket(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	ticket := model.Ticket{
		Category:    "Attività preventive",
		Subject:     "Broken bench",
		Description: "Park entrance",
		Operator:    "alice",
		Office:      "Ufficio Manutenzioni e Viabilità",
		Alias:       "#TODO901",
		ContactType: "TwProject",
		IsFrom:      "twproject",
	}
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO segn.segn_id")).
		WithArgs(ticket.Category, ticket.Subject, ticket.Description, ticket.Operator, ticket.Office, ticket.Alias, ticket.ContactType, ticket.IsFrom).
		WillReturnRows(sqlmock.NewRows([]string{"seg_id"}).AddRow(1201))

	id, err := ds.CreateTicket(context.Background(), ticket)
	require.NoError(t, err)
	assert.Equal(t, int64(1201), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAttachment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO segn.issue_docs_attachment (id_ticket, url, file_name)")).
		WithArgs(int64(1201), "https://files.example.com/photo_1.jpg", "photo_1.jpg").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = ds.CreateAttachment(context.Background(), model.Attachment{TicketID: 1201, URL: "https://files.example.com/photo_1.jpg", FileName: "photo_1.jpg"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetIntegrationStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	mock.ExpectQuery(regexp.QuoteMeta("AS insert_comment_todo")).
		WillReturnRows(sqlmock.NewRows([]string{"insert_comment_todo", "open_todo", "todo_sended"}).AddRow(false, true, false))

	status, err := ds.GetIntegrationStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.IntegrationStatus{QueuePending: true, Always: true}, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetIntegrationStatus_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ds := Datasource{Conn: db}
	mock.ExpectQuery("insert_comment_todo").WillReturnError(errors.New("relation does not exist"))

	_, err = ds.GetIntegrationStatus(context.Background())
	assert.Equal(t, apierror.ErrPersistence, apierror.CodeOf(err))
}
