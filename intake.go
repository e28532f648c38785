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

	"github.com/blnkfinance/auditsync/internal/files"
	"github.com/blnkfinance/auditsync/internal/gateway"
	"github.com/blnkfinance/auditsync/model"
)

const (
	intakeOrderBy     = "lastStatusChangeDate"
	intakeCategory    = "Attività preventive"
	intakeOffice      = "Ufficio Manutenzioni e Viabilità"
	intakeContactType = "TwProject"
)

func ticketFromIssue(issue gateway.Issue) model.Ticket {
	return model.Ticket{
		Category:    intakeCategory,
		Subject:     issue.Subject,
		Description: issue.Description,
		Operator:    issue.Creator,
		Office:      intakeOffice,
		Alias:       fmt.Sprintf("#TODO%d", issue.ID.Int64()),
		ContactType: intakeContactType,
		IsFrom:      model.ProvenanceTracker,
	}
}

// IntakeIssues registers open tracker issues not seen before: a local ticket,
// its attachments and the audit link. Already linked issues are skipped.
func (a *AuditSync) IntakeIssues(ctx context.Context) (*model.JobOutcome, error) {
	ctx, log := a.logger(ctx, TaskIssueToTicket)
	outcome := model.NewJobOutcome(TaskIssueToTicket)

	issues, err := a.tracker.ListIssues(ctx, gateway.ListQuery{
		TaskID:   a.cnf.TaskIssueToTicket,
		Status:   model.ExternalStatusOpen,
		Page:     1,
		PageSize: a.cnf.IntakePageSize,
		OrderBy:  intakeOrderBy,
	})
	if err != nil {
		log.WithError(err).Error("failed to list open issues")
		return outcome.Finish(), err
	}
	if len(issues) == 0 {
		log.WithField("task_id", a.cnf.TaskIssueToTicket).Info("no open issues found")
		return outcome.Finish(), nil
	}

	for _, issue := range issues {
		outcome.Processed++
		created, err := a.intakeIssue(ctx, log.WithField("id_issue", issue.ID.Int64()), issue)
		switch {
		case err != nil:
			outcome.Failed++
		case created:
			outcome.Succeeded++
		default:
			outcome.Skipped++
		}
	}

	log.WithFields(logrus.Fields{
		"processed": outcome.Processed,
		"created":   outcome.Succeeded,
		"skipped":   outcome.Skipped,
		"failed":    outcome.Failed,
	}).Info("intake finished")
	return outcome.Finish(), nil
}

func (a *AuditSync) intakeIssue(ctx context.Context, log *logrus.Entry, issue gateway.Issue) (bool, error) {
	externalID := issue.ID.Int64()

	exists, err := a.datasource.AuditLinkExists(ctx, externalID)
	if err != nil {
		log.WithError(err).Error("failed to check audit link")
		return false, err
	}
	if exists {
		log.Debug("issue already linked")
		return false, nil
	}

	ticketID, err := a.datasource.CreateTicket(ctx, ticketFromIssue(issue))
	if err != nil {
		log.WithError(err).Error("failed to create ticket")
		return false, err
	}
	log = log.WithField("id_ticket", ticketID)
	log.Info("ticket created")

	a.storeAttachments(ctx, log, ticketID, issue.Documents)

	link := model.AuditLink{ExternalID: externalID, TicketID: ticketID, Status: model.AuditStatusOpen}
	if err := a.datasource.CreateAuditLink(ctx, link); err != nil {
		log.WithError(err).Error("ticket created but audit link missing")
		return false, err
	}
	return true, nil
}

// storeAttachments never fails the intake of its issue.
func (a *AuditSync) storeAttachments(ctx context.Context, log *logrus.Entry, ticketID int64, docs []gateway.Document) {
	if len(docs) == 0 {
		log.Debug("no documents attached")
		return
	}
	if a.downloader == nil {
		log.Warn("resource_local_path not configured, attachments skipped")
		return
	}

	for _, doc := range docs {
		if doc.URL == "" || doc.Name == "" {
			continue
		}
		saved, err := a.downloader.Download(ctx, doc.URL, doc.Name)
		if err != nil {
			log.WithError(err).WithField("file", doc.Name).Error("failed to download attachment")
			continue
		}
		attachment := model.Attachment{
			TicketID: ticketID,
			URL:      files.PublicURL(a.cnf.PublicURLAttachments, saved.Name),
			FileName: saved.Name,
		}
		if err := a.datasource.CreateAttachment(ctx, attachment); err != nil {
			log.WithError(err).WithField("file", saved.Name).Error("failed to store attachment")
			continue
		}
		log.WithFields(logrus.Fields{"file": saved.Name, "url": attachment.URL}).Info("attachment stored")
	}
}
