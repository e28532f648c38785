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

	"github.com/blnkfinance/auditsync/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	queue       // Outbound work queue and inbound status snapshots
	comments    // Locally authored comments waiting for relay
	auditLinks  // Issue to ticket links and their ownership flag
	tickets     // Local tickets and attachments created by intake
	integration // Aggregate gates read by the orchestrator
}

type queue interface {
	GetPendingQueueItems(ctx context.Context) ([]model.QueueItem, error)    // pending or failed, oldest first
	GetQueueItem(ctx context.Context, id int64) (*model.QueueItem, error)   // NOT_FOUND when absent
	MarkQueueItemSent(ctx context.Context, update model.SentUpdate) error   // sended + external id
	MarkQueueItemFailed(ctx context.Context, id int64) error                // failed + attempt time
	GetOpenSentIssueIDs(ctx context.Context) ([]int64, error)               // sended items still observed open
	UpdateQueueItemSync(ctx context.Context, update model.SyncUpdate) error // terminal status + comments snapshot
}

type comments interface {
	GetPendingSourceComments(ctx context.Context) ([]model.SourceComment, error)
	DeleteSourceComment(ctx context.Context, id int64) error
}

type auditLinks interface {
	GetAuditLink(ctx context.Context, externalID int64) (*model.AuditLink, error) // NOT_FOUND when absent
	AuditLinkExists(ctx context.Context, externalID int64) (bool, error)
	CreateAuditLink(ctx context.Context, link model.AuditLink) error
	ReopenAuditLink(ctx context.Context, externalID int64) error     // status open, flag cleared
	MarkAuditLinkSynced(ctx context.Context, externalID int64) error // flag set
}

type tickets interface {
	CreateTicket(ctx context.Context, ticket model.Ticket) (int64, error)
	CreateAttachment(ctx context.Context, attachment model.Attachment) error
}

type integration interface {
	GetIntegrationStatus(ctx context.Context) (model.IntegrationStatus, error)
}
