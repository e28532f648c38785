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

package gateway

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wacul/ptr"

	"github.com/blnkfinance/auditsync/internal/apierror"
)

const (
	signalledOnLayout = "02/01/2006"
	coordsAccuracy    = 100
)

// Tracker is the subset of tracker operations used by the sync jobs.
type Tracker interface {
	CreateIssue(ctx context.Context, draft IssueDraft) (int64, error)
	GetIssue(ctx context.Context, id int64) (*Issue, error)
	GetComments(ctx context.Context, id int64) ([]RawComment, error)
	ListIssues(ctx context.Context, q ListQuery) ([]Issue, error)
	ListAllIssues(ctx context.Context, q ListQuery) ([]Issue, error)
	UpdateIssueStatus(ctx context.Context, id int64, statusID int) (*Issue, error)
	AddComment(ctx context.Context, id int64, text string) (bool, error)
	SetCoordinates(ctx context.Context, id int64, lat, lon float64) error
}

var _ Tracker = (*Client)(nil)

// CreateIssue creates an issue and returns the identifier assigned by the tracker.
func (c *Client) CreateIssue(ctx context.Context, draft IssueDraft) (int64, error) {
	now := c.now()
	data := map[string]interface{}{
		"subject":         draft.Subject,
		"description":     draft.Description,
		"taskId":          draft.TaskID,
		"gravity":         draft.Gravity,
		"signalledOnDate": now.Format(signalledOnLayout),
		"tags":            c.tags,
		"shouldCloseBy":   now.AddDate(0, 0, c.dueInDays).UnixMilli(),
		"assignedById":    draft.AssignedBy,
		"assigneeId":      draft.AssigneeID,
		"typeId":          c.issueTypeID,
	}

	resp, err := c.Call(ctx, Command{Command: CommandCreate, Object: ObjectIssue, Data: data})
	if err != nil {
		return 0, err
	}
	if resp.Object == nil || resp.Object.ID == 0 {
		return 0, apierror.NewAPIError(apierror.ErrData, "tracker create returned no issue id", resp)
	}
	return resp.Object.ID.Int64(), nil
}

// GetIssue fetches one issue. A response without statusId is a data error.
func (c *Client) GetIssue(ctx context.Context, id int64) (*Issue, error) {
	resp, err := c.Call(ctx, Command{Command: CommandGet, Object: ObjectIssue, ID: ptr.Int64(id)})
	if err != nil {
		return nil, err
	}
	if resp.Object == nil || resp.Object.StatusID == nil {
		return nil, apierror.NewAPIError(apierror.ErrData, fmt.Sprintf("tracker issue %d has no status", id), resp)
	}
	return resp.Object, nil
}

// GetComments returns the comments of an issue in tracker order. A missing list is empty.
func (c *Client) GetComments(ctx context.Context, id int64) ([]RawComment, error) {
	resp, err := c.Call(ctx, Command{Command: CommandGetComments, Object: ObjectIssue, ID: ptr.Int64(id)})
	if err != nil {
		return nil, err
	}
	return resp.Comments, nil
}

// ListIssues returns a single page.
func (c *Client) ListIssues(ctx context.Context, q ListQuery) ([]Issue, error) {
	page := q.Page
	if page <= 0 {
		page = 1
	}
	cmd := Command{
		Command: CommandList,
		Object:  ObjectIssue,
		Filters: map[string]string{
			"taskId": strconv.FormatInt(q.TaskID, 10),
			"status": strconv.Itoa(q.Status),
		},
		PageSize: q.PageSize,
		Page:     page,
		OrderBy:  q.OrderBy,
	}
	resp, err := c.Call(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return resp.Objects, nil
}

// ListAllIssues keeps requesting pages while the previous one was full.
// On error it returns the issues collected so far together with the error.
func (c *Client) ListAllIssues(ctx context.Context, q ListQuery) ([]Issue, error) {
	var all []Issue
	q.Page = 1
	for {
		issues, err := c.ListIssues(ctx, q)
		if err != nil {
			return all, err
		}
		all = append(all, issues...)
		if q.PageSize <= 0 || len(issues) < q.PageSize {
			return all, nil
		}
		q.Page++
	}
}

// UpdateIssueStatus asks the tracker to move the issue and returns the echoed issue.
func (c *Client) UpdateIssueStatus(ctx context.Context, id int64, statusID int) (*Issue, error) {
	cmd := Command{
		Command: CommandUpdate,
		Object:  ObjectIssue,
		ID:      ptr.Int64(id),
		Data:    map[string]interface{}{"statusId": statusID},
	}
	resp, err := c.Call(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if resp.Object == nil {
		return nil, apierror.NewAPIError(apierror.ErrData, fmt.Sprintf("tracker update of issue %d echoed no object", id), resp)
	}
	return resp.Object, nil
}

// AddComment reports whether the tracker confirmed the comment with ok=true.
func (c *Client) AddComment(ctx context.Context, id int64, text string) (bool, error) {
	resp, err := c.Call(ctx, Command{Command: CommandAddComment, Object: ObjectIssue, ID: ptr.Int64(id), Comment: text})
	if err != nil {
		return false, err
	}
	return resp.OK != nil && *resp.OK, nil
}

// SetCoordinates attaches a geographic position to an issue.
func (c *Client) SetCoordinates(ctx context.Context, id int64, lat, lon float64) error {
	cmd := Command{
		Command: CommandSetJSONData,
		Object:  ObjectIssue,
		ID:      ptr.Int64(id),
		Data: map[string]interface{}{
			"coords": map[string]interface{}{
				"latitude":  lat,
				"longitude": lon,
				"accuracy":  coordsAccuracy,
			},
		},
	}
	resp, err := c.CallWithTimeout(ctx, cmd, c.coordsTimeout)
	if err != nil {
		return err
	}
	if (resp.OK != nil && *resp.OK) || resp.Object != nil {
		return nil
	}
	return apierror.NewAPIError(apierror.ErrData, fmt.Sprintf("unexpected tracker response setting coordinates of issue %d", id), resp)
}
