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
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/auditsync/internal/gateway"
	"github.com/blnkfinance/auditsync/model"
)

// NormalizeComments orders comments by creation time, keeping tracker order for
// equal timestamps, and converts them to their stored form.
func NormalizeComments(raw []gateway.RawComment) []model.ExternalComment {
	sorted := make([]gateway.RawComment, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreationDate.Int64() < sorted[j].CreationDate.Int64()
	})

	normalized := make([]model.ExternalComment, 0, len(sorted))
	for _, c := range sorted {
		normalized = append(normalized, model.NormalizeComment(c.CreationDate.Int64(), c.Creator, c.Comment))
	}
	return normalized
}

// SyncInboundStatus polls every sent issue still observed open. Issues the tracker
// reports closed or completed get their status and full comment history stored.
// Open issues are left untouched, so repeated runs are idempotent.
func (a *AuditSync) SyncInboundStatus(ctx context.Context) (*model.JobOutcome, error) {
	ctx, log := a.logger(ctx, TaskSyncStatusTwToSIT)
	outcome := model.NewJobOutcome(TaskSyncStatusTwToSIT)

	ids, err := a.datasource.GetOpenSentIssueIDs(ctx)
	if err != nil {
		log.WithError(err).Error("failed to read sent issues")
		return outcome.Finish(), err
	}
	if len(ids) == 0 {
		log.Info("no open sent issues to poll")
		return outcome.Finish(), nil
	}

	for _, id := range ids {
		outcome.Processed++
		switch a.pollIssue(ctx, log.WithField("id_todo_twprj", id), id) {
		case pollUpdated:
			outcome.Succeeded++
		case pollUnchanged:
			outcome.Skipped++
		default:
			outcome.Failed++
		}
	}

	log.WithFields(logrus.Fields{
		"processed": outcome.Processed,
		"updated":   outcome.Succeeded,
		"unchanged": outcome.Skipped,
		"failed":    outcome.Failed,
	}).Info("inbound status poll finished")
	return outcome.Finish(), nil
}

type pollResult int

const (
	pollFailed pollResult = iota
	pollUnchanged
	pollUpdated
)

func (a *AuditSync) pollIssue(ctx context.Context, log *logrus.Entry, id int64) pollResult {
	issue, err := a.tracker.GetIssue(ctx, id)
	if err != nil {
		log.WithError(err).Error("no status returned for issue, skipping")
		return pollFailed
	}

	statusID := int(issue.StatusID.Int64())
	if !model.IsTerminalExternalStatus(statusID) {
		log.WithField("status_id", statusID).Debug("issue still open")
		return pollUnchanged
	}

	raw, err := a.tracker.GetComments(ctx, id)
	if err != nil {
		log.WithError(err).Error("failed to fetch comments, status left for next run")
		return pollFailed
	}

	update := model.SyncUpdate{ExternalID: id, StatusID: statusID, Comments: NormalizeComments(raw)}
	if err := a.datasource.UpdateQueueItemSync(ctx, update); err != nil {
		log.WithError(err).Error("failed to store issue status")
		return pollFailed
	}
	log.WithFields(logrus.Fields{"status_id": statusID, "comments": len(update.Comments)}).Info("issue status synced")
	return pollUpdated
}
