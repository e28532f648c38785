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

package auditsync

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/auditsync/internal/apierror"
	"github.com/blnkfinance/auditsync/internal/gateway"
	"github.com/blnkfinance/auditsync/model"
)

func draftFromQueueItem(item model.QueueItem) gateway.IssueDraft {
	return gateway.IssueDraft{
		Subject:     item.Subject,
		Description: item.Body,
		TaskID:      item.TaskID,
		Gravity:     string(item.Severity()),
		AssignedBy:  item.AssignedBy,
		AssigneeID:  item.AssigneeID,
	}
}

// DispatchQueue sends every pending or failed queue item to the tracker, oldest first.
// A failing item is marked failed and the batch moves on; only a failure to read
// the queue itself is returned.
func (a *AuditSync) DispatchQueue(ctx context.Context) (*model.JobOutcome, error) {
	ctx, log := a.logger(ctx, TaskRecordToTodo)
	outcome := model.NewJobOutcome(TaskRecordToTodo)

	items, err := a.datasource.GetPendingQueueItems(ctx)
	if err != nil {
		log.WithError(err).Error("failed to read the outbound queue")
		return outcome.Finish(), err
	}
	if len(items) == 0 {
		log.Info("no pending queue items")
		return outcome.Finish(), nil
	}

	for _, item := range items {
		outcome.Processed++
		if a.dispatchItem(ctx, log, item) {
			outcome.Succeeded++
		} else {
			outcome.Failed++
		}
	}

	log.WithFields(logrus.Fields{
		"processed": outcome.Processed,
		"sent":      outcome.Succeeded,
		"failed":    outcome.Failed,
	}).Info("outbound queue drained")
	return outcome.Finish(), nil
}

func (a *AuditSync) dispatchItem(ctx context.Context, log *logrus.Entry, item model.QueueItem) bool {
	itemLog := log.WithField("queue_id", item.ID)

	externalID, err := a.tracker.CreateIssue(ctx, draftFromQueueItem(item))
	if err != nil {
		itemLog.WithError(err).Error("tracker rejected queue item")
		if markErr := a.datasource.MarkQueueItemFailed(ctx, item.ID); markErr != nil {
			itemLog.WithError(markErr).Error("failed to mark queue item failed")
		}
		return false
	}

	// The issue exists on the tracker from here on. If the row cannot be marked
	// sent it is marked failed, and the next run creates a second issue.
	if err := a.datasource.MarkQueueItemSent(ctx, model.SentUpdate{ID: item.ID, ExternalID: externalID}); err != nil {
		itemLog.WithError(err).WithField("id_todo_twprj", externalID).Error("issue created but queue item not updated")
		if markErr := a.datasource.MarkQueueItemFailed(ctx, item.ID); markErr != nil {
			itemLog.WithError(markErr).Error("failed to mark queue item failed")
		}
		return false
	}
	itemLog.WithField("id_todo_twprj", externalID).Info("queue item sent")

	if item.HasCoordinates() {
		a.pushCoordinates(ctx, itemLog, externalID, *item.Lat, *item.Lon)
	}
	return true
}

// pushCoordinates is best effort: the issue stays sent whatever the outcome.
func (a *AuditSync) pushCoordinates(ctx context.Context, log *logrus.Entry, externalID int64, lat, lon float64) {
	if err := a.tracker.SetCoordinates(ctx, externalID, lat, lon); err != nil {
		log.WithError(err).WithField("id_todo_twprj", externalID).Error("failed to set issue coordinates")
		return
	}
	log.WithField("id_todo_twprj", externalID).Info("issue coordinates set")
}

// SendIssue creates a single issue outside the queue. Nothing is written to the store.
func (a *AuditSync) SendIssue(ctx context.Context, req model.IssueRequest) (int64, error) {
	ctx, log := a.logger(ctx, TaskRecordToTodo)
	if err := req.ValidateIssueRequest(); err != nil {
		return 0, apierror.NewAPIError(apierror.ErrData, "invalid issue request", err)
	}

	gravity := model.ParseSeverityCode(string(req.Gravity))
	externalID, err := a.tracker.CreateIssue(ctx, gateway.IssueDraft{
		Subject:     req.Subject,
		Description: req.Description,
		TaskID:      req.TaskID,
		Gravity:     string(gravity),
		AssignedBy:  req.AssignedBy,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		log.WithError(err).Error("failed to create issue")
		return 0, err
	}
	log.WithField("id_todo_twprj", externalID).Info("issue created")

	if req.HasCoordinates() {
		a.pushCoordinates(ctx, log, externalID, *req.Lat, *req.Lon)
	}
	return externalID, nil
}

// SetCoordinatesFromRecord pushes the coordinates stored on a sent queue item.
func (a *AuditSync) SetCoordinatesFromRecord(ctx context.Context, queueID int64) error {
	item, err := a.datasource.GetQueueItem(ctx, queueID)
	if err != nil {
		return err
	}
	if item.ExternalID == nil {
		return apierror.NewAPIError(apierror.ErrData, fmt.Sprintf("queue item %d has not been sent", queueID), nil)
	}
	if !item.HasCoordinates() {
		return apierror.NewAPIError(apierror.ErrData, fmt.Sprintf("queue item %d has no valid coordinates", queueID), nil)
	}
	return a.SetCoordinates(ctx, model.CoordinatesRequest{ExternalID: *item.ExternalID, Lat: *item.Lat, Lon: *item.Lon})
}

// SetCoordinates pushes an explicit position. Non finite values are rejected before any call.
func (a *AuditSync) SetCoordinates(ctx context.Context, req model.CoordinatesRequest) error {
	ctx, log := a.logger(ctx, TaskSetIssueCoord)
	log = log.WithField("id_todo_twprj", req.ExternalID)
	if err := req.ValidateCoordinatesRequest(); err != nil {
		return apierror.NewAPIError(apierror.ErrData, "invalid coordinates", err)
	}
	if err := a.tracker.SetCoordinates(ctx, req.ExternalID, req.Lat, req.Lon); err != nil {
		log.WithError(err).Error("failed to set issue coordinates")
		return err
	}
	log.Info("issue coordinates set")
	return nil
}
