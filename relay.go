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
	"github.com/blnkfinance/auditsync/model"
)

// RelayComments forwards locally authored comments to their tracker issue.
// A comment row is deleted only after the tracker confirmed it; anything else
// leaves the row for the next run.
func (a *AuditSync) RelayComments(ctx context.Context) (*model.JobOutcome, error) {
	ctx, log := a.logger(ctx, TaskInsertCommentToTodo)
	outcome := model.NewJobOutcome(TaskInsertCommentToTodo)

	pending, err := a.datasource.GetPendingSourceComments(ctx)
	if err != nil {
		log.WithError(err).Error("failed to read pending comments")
		return outcome.Finish(), err
	}
	if len(pending) == 0 {
		log.Info("no comments to relay")
		return outcome.Finish(), nil
	}

	for _, comment := range pending {
		outcome.Processed++
		if a.relayComment(ctx, log, comment) {
			outcome.Succeeded++
		} else {
			outcome.Failed++
		}
	}

	log.WithFields(logrus.Fields{
		"processed": outcome.Processed,
		"relayed":   outcome.Succeeded,
		"failed":    outcome.Failed,
	}).Info("comment relay finished")
	return outcome.Finish(), nil
}

func (a *AuditSync) relayComment(ctx context.Context, log *logrus.Entry, comment model.SourceComment) bool {
	commentLog := log.WithFields(logrus.Fields{"comment_id": comment.ID, "id_issue": comment.ExternalIssueID})

	ok, err := a.tracker.AddComment(ctx, comment.ExternalIssueID, comment.RelayText())
	if err != nil {
		commentLog.WithError(err).Error("failed to relay comment")
		return false
	}
	if !ok {
		commentLog.Error("tracker did not confirm comment")
		return false
	}

	// Delivered. If the delete fails the comment is sent again next run.
	if err := a.datasource.DeleteSourceComment(ctx, comment.ID); err != nil {
		commentLog.WithError(err).Error("comment relayed but not deleted")
		return false
	}
	commentLog.Info("comment relayed")
	return true
}

// RelayComment sends one comment typed on the command line. No local row is touched.
func (a *AuditSync) RelayComment(ctx context.Context, req model.CommentRequest) error {
	ctx, log := a.logger(ctx, TaskInsertCommentToTodo)
	log = log.WithField("id_issue", req.ExternalID)
	if err := req.ValidateCommentRequest(); err != nil {
		return apierror.NewAPIError(apierror.ErrData, "invalid comment request", err)
	}

	ok, err := a.tracker.AddComment(ctx, req.ExternalID, req.Text)
	if err != nil {
		log.WithError(err).Error("failed to relay comment")
		return err
	}
	if !ok {
		log.Error("tracker did not confirm comment")
		return apierror.NewAPIError(apierror.ErrData, fmt.Sprintf("comment on issue %d not confirmed", req.ExternalID), nil)
	}
	log.Info("comment relayed")
	return nil
}
