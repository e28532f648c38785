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
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/blnkfinance/auditsync/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Queue methods

func (m *MockDataSource) GetPendingQueueItems(ctx context.Context) ([]model.QueueItem, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.QueueItem)
	return items, args.Error(1)
}

func (m *MockDataSource) GetQueueItem(ctx context.Context, id int64) (*model.QueueItem, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*model.QueueItem)
	return item, args.Error(1)
}

func (m *MockDataSource) MarkQueueItemSent(ctx context.Context, update model.SentUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

func (m *MockDataSource) MarkQueueItemFailed(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDataSource) GetOpenSentIssueIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

func (m *MockDataSource) UpdateQueueItemSync(ctx context.Context, update model.SyncUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

// Comment methods

func (m *MockDataSource) GetPendingSourceComments(ctx context.Context) ([]model.SourceComment, error) {
	args := m.Called(ctx)
	comments, _ := args.Get(0).([]model.SourceComment)
	return comments, args.Error(1)
}

func (m *MockDataSource) DeleteSourceComment(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Audit link methods

func (m *MockDataSource) GetAuditLink(ctx context.Context, externalID int64) (*model.AuditLink, error) {
	args := m.Called(ctx, externalID)
	link, _ := args.Get(0).(*model.AuditLink)
	return link, args.Error(1)
}

func (m *MockDataSource) AuditLinkExists(ctx context.Context, externalID int64) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataSource) CreateAuditLink(ctx context.Context, link model.AuditLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockDataSource) ReopenAuditLink(ctx context.Context, externalID int64) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}

func (m *MockDataSource) MarkAuditLinkSynced(ctx context.Context, externalID int64) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}

// Ticket methods

func (m *MockDataSource) CreateTicket(ctx context.Context, ticket model.Ticket) (int64, error) {
	args := m.Called(ctx, ticket)
	id, _ := args.Get(0).(int64)
	return id, args.Error(1)
}

func (m *MockDataSource) CreateAttachment(ctx context.Context, attachment model.Attachment) error {
	args := m.Called(ctx, attachment)
	return args.Error(0)
}

// Integration methods

func (m *MockDataSource) GetIntegrationStatus(ctx context.Context) (model.IntegrationStatus, error) {
	args := m.Called(ctx)
	status, _ := args.Get(0).(model.IntegrationStatus)
	return status, args.Error(1)
}
