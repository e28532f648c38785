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
	"math"
	"time"
)

// QueueStatus is the lifecycle status of a row in audit.todo_queue.
type QueueStatus string

const (
	QueueStatusPending QueueStatus = "pending"
	QueueStatusFailed  QueueStatus = "failed"
	QueueStatusSended  QueueStatus = "sended"
)

// External issue status codes as reported by the tracker.
const (
	ExternalStatusOpen      = 1
	ExternalStatusClosed    = 2
	ExternalStatusCompleted = 3
)

// IsTerminalExternalStatus reports whether a tracker status code means the issue is done.
func IsTerminalExternalStatus(statusID int) bool {
	return statusID == ExternalStatusClosed || statusID == ExternalStatusCompleted
}

// QueueItem is one unit of outbound work awaiting creation on the tracker.
// ExternalID is set if and only if Status is QueueStatusSended.
type QueueItem struct {
	ID               int64             `json:"id"`
	Subject          string            `json:"subject"`
	Body             string            `json:"body"`
	TaskID           int64             `json:"task_id"`
	Gravity          *int              `json:"gravity,omitempty"`
	AssignedBy       *int64            `json:"assigned_by,omitempty"`
	AssigneeID       *int64            `json:"assignee_id,omitempty"`
	Lat              *float64          `json:"lat,omitempty"`
	Lon              *float64          `json:"lon,omitempty"`
	Status           QueueStatus       `json:"status"`
	ExternalID       *int64            `json:"id_todo_twprj,omitempty"`
	ExternalStatus   *int              `json:"todo_status_twprj,omitempty"`
	ExternalComments []ExternalComment `json:"todo_comments_twprj,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	SentAt           *time.Time        `json:"sent_at,omitempty"`
	SyncedAt         *time.Time        `json:"sinc_status,omitempty"`
}

// Severity returns the tracker gravity code for the item, falling back to the lowest one.
func (q *QueueItem) Severity() Severity {
	return ParseSeverity(q.Gravity)
}

// HasCoordinates reports whether both coordinates are present and finite.
func (q *QueueItem) HasCoordinates() bool {
	if q.Lat == nil || q.Lon == nil {
		return false
	}
	return IsFiniteCoordinate(*q.Lat) && IsFiniteCoordinate(*q.Lon)
}

// IsFiniteCoordinate rejects NaN and infinities.
func IsFiniteCoordinate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SentUpdate carries the columns written when the tracker accepted an item.
type SentUpdate struct {
	ID         int64
	ExternalID int64
}

// SyncUpdate carries the columns written when the poller observed a terminal status.
type SyncUpdate struct {
	ExternalID int64
	StatusID   int
	Comments   []ExternalComment
}
