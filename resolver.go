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

	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/auditsync/internal/apierror"
	"github.com/blnkfinance/auditsync/internal/gateway"
	"github.com/blnkfinance/auditsync/model"
)

const resolverOrderBy = "taskName"

type resolution string

const (
	resolutionDivergent  resolution = "divergent"
	resolutionConsistent resolution = "consistent"
	resolutionReopened   resolution = "reopened"
	resolutionClosed     resolution = "closed"
	resolutionFailed     resolution = "failed"
)

// ResolveConflicts walks every issue the tracker lists as open in the intake task
// and reconciles it with the local audit link.
//
// The sync flag names the side that last asserted the close. A closed link with
// the flag set was closed by the tracker, so an open issue means the tracker
// reopened it and the link is reopened locally. A closed link without the flag
// was closed locally and the close is pushed to the tracker; the flag is set only
// once the tracker echoes the closed status back.
func (a *AuditSync) ResolveConflicts(ctx context.Context) (*model.JobOutcome, error) {
	ctx, log := a.logger(ctx, TaskSyncStatusPgToTwprj)
	outcome := model.NewJobOutcome(TaskSyncStatusPgToTwprj)

	issues, listErr := a.tracker.ListAllIssues(ctx, gateway.ListQuery{
		TaskID:   a.cnf.TaskIssueToTicket,
		Status:   model.ExternalStatusOpen,
		PageSize: a.cnf.ListPageSize,
		OrderBy:  resolverOrderBy,
	})
	if listErr != nil {
		log.WithError(listErr).WithField("collected", len(issues)).Error("failed to list open issues")
	}
	if len(issues) == 0 {
		log.Info("no open issues on the tracker")
		return outcome.Finish(), listErr
	}

	for _, issue := range issues {
		outcome.Processed++
		switch a.resolveIssue(ctx, log.WithField("id_issue", issue.ID.Int64()), issue.ID.Int64()) {
		case resolutionReopened, resolutionClosed:
			outcome.Succeeded++
		case resolutionFailed:
			outcome.Failed++
		default:
			outcome.Skipped++
		}
	}

	log.WithFields(logrus.Fields{
		"processed": outcome.Processed,
		"resolved":  outcome.Succeeded,
		"unchanged": outcome.Skipped,
		"failed":    outcome.Failed,
	}).Info("conflict resolution finished")
	return outcome.Finish(), listErr
}

func (a *AuditSync) resolveIssue(ctx context.Context, log *logrus.Entry, externalID int64) resolution {
	link, err := a.datasource.GetAuditLink(ctx, externalID)
	if err != nil {
		if apierror.CodeOf(err) == apierror.ErrNotFound {
			log.Info("open issue has no audit link, divergence left as is")
			return resolutionDivergent
		}
		log.WithError(err).Error("failed to read audit link")
		return resolutionFailed
	}

	switch {
	case link.Status == model.AuditStatusOpen:
		return resolutionConsistent

	case link.Status == model.AuditStatusClosed && link.Sync:
		if err := a.datasource.ReopenAuditLink(ctx, externalID); err != nil {
			log.WithError(err).Error("failed to reopen audit link")
			return resolutionFailed
		}
		log.Info("issue reopened on the tracker, audit link reopened")
		return resolutionReopened

	case link.Status == model.AuditStatusClosed:
		echoed, err := a.tracker.UpdateIssueStatus(ctx, externalID, model.ExternalStatusClosed)
		if err != nil {
			log.WithError(err).Error("failed to close issue on the tracker")
			return resolutionFailed
		}
		if echoed.StatusID == nil || int(echoed.StatusID.Int64()) != model.ExternalStatusClosed {
			log.WithField("echoed", echoed.StatusID).Error("tracker did not confirm the close")
			return resolutionFailed
		}
		if err := a.datasource.MarkAuditLinkSynced(ctx, externalID); err != nil {
			log.WithError(err).Error("issue closed but audit link not marked synced")
			return resolutionFailed
		}
		log.Info("issue closed on the tracker")
		return resolutionClosed
	}

	log.WithField("status_id", link.Status).Debug("audit link status not handled")
	return resolutionConsistent
}
