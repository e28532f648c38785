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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/auditsync/database"
	"github.com/blnkfinance/auditsync/internal/lock"
	"github.com/blnkfinance/auditsync/internal/logging"
	"github.com/blnkfinance/auditsync/model"
)

// Job is one sync step the orchestrator may run in a cycle.
// Code is the historical command code the step was scheduled under.
type Job struct {
	Name string
	Code string
	Gate func(status model.IntegrationStatus) bool
	Run  func(ctx context.Context) (*model.JobOutcome, error)
}

// Jobs returns the registry in execution order: conditional jobs first, then the
// two jobs gated on the always-true condition.
func (a *AuditSync) Jobs() []Job {
	return []Job{
		{
			Name: TaskInsertCommentToTodo,
			Code: "IC",
			Gate: func(s model.IntegrationStatus) bool { return s.CommentsPending },
			Run:  a.RelayComments,
		},
		{
			Name: TaskRecordToTodo,
			Code: "OT",
			Gate: func(s model.IntegrationStatus) bool { return s.QueuePending },
			Run:  a.DispatchQueue,
		},
		{
			Name: TaskSyncStatusTwToSIT,
			Code: "SSSit",
			Gate: func(s model.IntegrationStatus) bool { return s.SyncPending },
			Run:  a.SyncInboundStatus,
		},
		{
			Name: TaskSyncStatusPgToTwprj,
			Code: "SSTw",
			Gate: func(s model.IntegrationStatus) bool { return s.Always },
			Run:  a.ResolveConflicts,
		},
		{
			Name: TaskIssueToTicket,
			Code: "IT",
			Gate: func(s model.IntegrationStatus) bool { return s.Always },
			Run:  a.IntakeIssues,
		},
	}
}

// RunReport describes one orchestrator invocation.
type RunReport struct {
	RunID    string                  `json:"run_id"`
	Acquired bool                    `json:"acquired"`
	Status   model.IntegrationStatus `json:"status"`
	Outcomes []model.JobOutcome      `json:"outcomes"`
	Skipped  []string                `json:"skipped"`
	Errors   map[string]string       `json:"errors,omitempty"`
}

// Orchestrator runs the job registry under the run lock.
type Orchestrator struct {
	datasource database.IDataSource
	runLock    lock.RunLock
	logs       *logging.Factory
	jobs       []Job
}

func NewOrchestrator(a *AuditSync, runLock lock.RunLock) *Orchestrator {
	return NewOrchestratorWithJobs(a.datasource, runLock, a.logs, a.Jobs())
}

func NewOrchestratorWithJobs(ds database.IDataSource, runLock lock.RunLock, logs *logging.Factory, jobs []Job) *Orchestrator {
	if logs == nil {
		logs = logging.Discard()
	}
	return &Orchestrator{datasource: ds, runLock: runLock, logs: logs, jobs: jobs}
}

// Run performs one cycle. A lock held by another invocation is not an error: the
// report comes back with Acquired false and nothing is touched. The lock is
// released on every path out of Run, panics included.
func (o *Orchestrator) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{RunID: uuid.NewString(), Errors: map[string]string{}}
	ctx = WithRunID(ctx, report.RunID)
	log := o.logs.ForTask(TaskCheckIntegration).WithField("run_id", report.RunID)

	acquired, err := o.runLock.TryAcquire(ctx)
	if err != nil {
		log.WithError(err).Error("failed to create run lock")
		return nil, err
	}
	if !acquired {
		log.WithField("lock", o.runLock.String()).Info("already running, skip")
		return report, nil
	}
	report.Acquired = true
	defer func() {
		if err := o.runLock.Release(context.Background()); err != nil {
			log.WithError(err).Error("failed to release run lock")
		}
	}()

	status, err := o.datasource.GetIntegrationStatus(ctx)
	if err != nil {
		log.WithError(err).Error("failed to read integration status")
		return report, err
	}
	report.Status = status
	log.WithFields(logrus.Fields{
		"insert_comment_todo": status.CommentsPending,
		"open_todo":           status.QueuePending,
		"todo_sended":         status.SyncPending,
	}).Info("integration status")

	for _, job := range o.jobs {
		jobLog := log.WithFields(logrus.Fields{"job": job.Name, "code": job.Code})
		if !job.Gate(status) {
			jobLog.Info("skipped, condition false")
			report.Skipped = append(report.Skipped, job.Name)
			continue
		}

		jobLog.Info("running")
		outcome, err := runJob(ctx, job)
		if outcome != nil {
			report.Outcomes = append(report.Outcomes, *outcome)
		}
		if err != nil {
			jobLog.WithError(err).Error("job failed")
			report.Errors[job.Name] = err.Error()
			continue
		}
		jobLog.Info("done")
	}
	return report, nil
}

// runJob isolates a job so its panic does not reach the other jobs.
func runJob(ctx context.Context, job Job) (outcome *model.JobOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = model.NewJobOutcome(job.Name).Finish()
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}
