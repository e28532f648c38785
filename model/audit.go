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

package model

import (
	"strings"
	"time"
)

// AuthoritativeStatus is the local open/closed decision kept on an audit link.
type AuthoritativeStatus int

const (
	AuditStatusOpen   AuthoritativeStatus = 1
	AuditStatusClosed AuthoritativeStatus = 2
)

// AuditLink ties one tracker issue to one local ticket.
// Sync is the ownership flag: true once the tracker's close has been confirmed locally.
type AuditLink struct {
	ExternalID int64               `json:"id_issue"`
	TicketID   int64               `json:"id_ticket"`
	Status     AuthoritativeStatus `json:"status_id"`
	Sync       bool                `json:"sync"`
}

// ProvenanceTracker marks local rows that originate from, or are destined to, the tracker.
const ProvenanceTracker = "twproject"

// SourceComment is a locally authored comment waiting to be relayed to the tracker.
type SourceComment struct {
	ID              int64  `json:"id"`
	TicketID        int64  `json:"id_prosit"`
	Author          string `json:"action_user"`
	Text            string `json:"action_description"`
	IsFrom          string `json:"is_from"`
	ExternalIssueID int64  `json:"id_issue"`
}

// RelayText is the comment body sent to the tracker.
func (c SourceComment) RelayText() string {
	return c.Author + ": " + c.Text
}

// ExternalComment is a tracker comment normalized for storage in todo_comments_twprj.
type ExternalComment struct {
	Date    string `json:"date"`
	Creator string `json:"creator"`
	Comment string `json:"comment"`
}

// CommentDateLayout is the layout of ExternalComment.Date.
const CommentDateLayout = "2006-01-02 15:04:05"

// NormalizeComment converts an epoch-millis creation date to a local timestamp
// and trims the comment text.
func NormalizeComment(creationMillis int64, creator, text string) ExternalComment {
	secs := (creationMillis + 500) / 1000
	return ExternalComment{
		Date:    time.Unix(secs, 0).Local().Format(CommentDateLayout),
		Creator: creator,
		Comment: strings.TrimSpace(text),
	}
}

// Ticket is the local ticket created when a tracker issue is first observed.
type Ticket struct {
	ID          int64     `json:"seg_id"`
	Category    string    `json:"seg_t_mat"`
	Subject     string    `json:"seg_o_ogg"`
	Description string    `json:"seg_o_desc"`
	Operator    string    `json:"seg_s_ac_op"`
	Office      string    `json:"office_manager"`
	Alias       string    `json:"seg_i_rek_alias"`
	ContactType string    `json:"seg_i_ty_cont"`
	IsFrom      string    `json:"is_from"`
	CreatedAt   time.Time `json:"created_at"`
}

// Attachment is a downloaded tracker document exposed under a public URL.
type Attachment struct {
	TicketID int64  `json:"id_ticket"`
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// IntegrationStatus is the set of gates read by the orchestrator in a single query.
type IntegrationStatus struct {
	CommentsPending bool `json:"insert_comment_todo"`
	QueuePending    bool `json:"open_todo"`
	SyncPending     bool `json:"todo_sended"`
	Always          bool `json:"always"`
}
