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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/wacul/ptr"

	"github.com/blnkfinance/auditsync"
	"github.com/blnkfinance/auditsync/model"
)

type jobFunc func(s *auditsync.AuditSync) func(ctx context.Context) (*model.JobOutcome, error)

// runBatch executes one job outside the orchestrator. Record level failures are
// in the logs and do not change the exit status.
func runBatch(app *auditsyncInstance, cmd *cobra.Command, job jobFunc) error {
	s, err := app.service(cmd.Context())
	if err != nil {
		return err
	}
	outcome, err := job(s)(cmd.Context())
	if err != nil {
		logrus.WithError(err).Error("job aborted")
	}
	if outcome != nil {
		printJSON(cmd, outcome)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		logrus.Errorf("error printing result: %v", err)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
}

func checkCommand(app *auditsyncInstance) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run every due sync job under the run lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.service(cmd.Context())
			if err != nil {
				return err
			}
			runLock, err := app.runLock()
			if err != nil {
				return err
			}
			report, err := auditsync.NewOrchestrator(s, runLock).Run(cmd.Context())
			if err != nil {
				return err
			}
			printJSON(cmd, report)
			return nil
		},
	}
}

func sendQueueCommand(app *auditsyncInstance) *cobra.Command {
	var (
		req        model.IssueRequest
		gravity    string
		assignedBy int64
		assignee   int64
		lat, lon   float64
	)

	cmd := &cobra.Command{
		Use:     "send-queue",
		Aliases: []string{"OT"},
		Short:   "Send pending queue items, or a single issue when --task-id is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("task-id") {
				return runBatch(app, cmd, func(s *auditsync.AuditSync) func(context.Context) (*model.JobOutcome, error) {
					return s.DispatchQueue
				})
			}

			req.Gravity = parseGravity(gravity)
			if cmd.Flags().Changed("assigned-by") {
				req.AssignedBy = ptr.Int64(assignedBy)
			}
			if cmd.Flags().Changed("assignee") {
				req.AssigneeID = ptr.Int64(assignee)
			}
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
				req.Lat = ptr.Float64(lat)
				req.Lon = ptr.Float64(lon)
			}

			s, err := app.service(cmd.Context())
			if err != nil {
				return err
			}
			id, err := s.SendIssue(cmd.Context(), req)
			if err != nil {
				return err
			}
			printJSON(cmd, map[string]int64{"id_todo_twprj": id})
			return nil
		},
	}

	cmd.Flags().Int64Var(&req.TaskID, "task-id", 0, "Tracker task the issue is created in")
	cmd.Flags().StringVar(&req.Subject, "subject", "", "Issue subject")
	cmd.Flags().StringVar(&req.Description, "description", "", "Issue description")
	cmd.Flags().StringVar(&gravity, "gravity", "", "Gravity as a level 1-5 or a tracker code such as 03_GRAVITY_HIGH")
	cmd.Flags().Int64Var(&assignedBy, "assigned-by", 0, "Resource id of the assignor")
	cmd.Flags().Int64Var(&assignee, "assignee", 0, "Resource id of the assignee")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")
	return cmd
}

// parseGravity accepts a numeric level or a tracker code. Anything else is low.
func parseGravity(raw string) model.Severity {
	if level, err := strconv.Atoi(raw); err == nil {
		return model.ParseSeverity(&level)
	}
	return model.ParseSeverityCode(raw)
}

func relayCommentsCommand(app *auditsyncInstance) *cobra.Command {
	var req model.CommentRequest

	cmd := &cobra.Command{
		Use:     "relay-comments",
		Aliases: []string{"IC"},
		Short:   "Relay pending local comments, or a single comment when --issue-id is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("issue-id") {
				return runBatch(app, cmd, func(s *auditsync.AuditSync) func(context.Context) (*model.JobOutcome, error) {
					return s.RelayComments
				})
			}
			s, err := app.service(cmd.Context())
			if err != nil {
				return err
			}
			return s.RelayComment(cmd.Context(), req)
		},
	}

	cmd.Flags().Int64Var(&req.ExternalID, "issue-id", 0, "Tracker issue id")
	cmd.Flags().StringVar(&req.Text, "comment", "", "Comment text")
	return cmd
}

func syncStatusInCommand(app *auditsyncInstance) *cobra.Command {
	return &cobra.Command{
		Use:     "sync-status-in",
		Aliases: []string{"SSSit"},
		Short:   "Pull closed statuses and comments of sent issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(app, cmd, func(s *auditsync.AuditSync) func(context.Context) (*model.JobOutcome, error) {
				return s.SyncInboundStatus
			})
		},
	}
}

func syncStatusOutCommand(app *auditsyncInstance) *cobra.Command {
	return &cobra.Command{
		Use:     "sync-status-out",
		Aliases: []string{"SSTw"},
		Short:   "Reconcile open tracker issues with their audit links",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(app, cmd, func(s *auditsync.AuditSync) func(context.Context) (*model.JobOutcome, error) {
				return s.ResolveConflicts
			})
		},
	}
}

func intakeCommand(app *auditsyncInstance) *cobra.Command {
	return &cobra.Command{
		Use:     "intake",
		Aliases: []string{"IT"},
		Short:   "Register new open tracker issues as local tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(app, cmd, func(s *auditsync.AuditSync) func(context.Context) (*model.JobOutcome, error) {
				return s.IntakeIssues
			})
		},
	}
}

func setCoordsCommand(app *auditsyncInstance) *cobra.Command {
	var (
		recordID int64
		req      model.CoordinatesRequest
	)

	cmd := &cobra.Command{
		Use:   "set-coords",
		Short: "Push coordinates of a queue row (--record-id) or explicit ones (--issue-id --lat --lon)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.service(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("record-id") {
				return s.SetCoordinatesFromRecord(cmd.Context(), recordID)
			}
			if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
				return fmt.Errorf("either --record-id or --issue-id with --lat and --lon is required")
			}
			return s.SetCoordinates(cmd.Context(), req)
		},
	}

	cmd.Flags().Int64Var(&recordID, "record-id", 0, "audit.todo_queue id")
	cmd.Flags().Int64Var(&req.ExternalID, "issue-id", 0, "Tracker issue id")
	cmd.Flags().Float64Var(&req.Lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&req.Lon, "lon", 0, "Longitude")
	return cmd
}
