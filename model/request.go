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
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// IssueRequest is a single issue sent from the command line without a queue row.
type IssueRequest struct {
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	TaskID      int64    `json:"task_id"`
	Gravity     Severity `json:"gravity"`
	AssignedBy  *int64   `json:"assigned_by,omitempty"`
	AssigneeID  *int64   `json:"assignee_id,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
}

func finiteRule(value interface{}) error {
	v, ok := value.(*float64)
	if !ok || v == nil {
		return nil
	}
	if !IsFiniteCoordinate(*v) {
		return errors.New("must be a finite number")
	}
	return nil
}

// ValidateIssueRequest needs a subject or a description, a task and finite coordinates.
func (r *IssueRequest) ValidateIssueRequest() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Subject, validation.When(r.Description == "", validation.Required.Error("subject or description is required"))),
		validation.Field(&r.TaskID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Lat, validation.By(finiteRule)),
		validation.Field(&r.Lon, validation.By(finiteRule)),
	)
}

// HasCoordinates reports whether both coordinates are present and finite.
func (r *IssueRequest) HasCoordinates() bool {
	if r.Lat == nil || r.Lon == nil {
		return false
	}
	return IsFiniteCoordinate(*r.Lat) && IsFiniteCoordinate(*r.Lon)
}

// CommentRequest is a single comment relayed from the command line.
type CommentRequest struct {
	ExternalID int64  `json:"id_issue"`
	Text       string `json:"comment"`
}

func (r *CommentRequest) ValidateCommentRequest() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ExternalID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Text, validation.Required),
	)
}

// CoordinatesRequest pushes an explicit position onto a tracker issue.
type CoordinatesRequest struct {
	ExternalID int64   `json:"id_issue"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

func (r *CoordinatesRequest) ValidateCoordinatesRequest() error {
	finite := validation.By(func(value interface{}) error {
		v, _ := value.(float64)
		if !IsFiniteCoordinate(v) {
			return errors.New("must be a finite number")
		}
		return nil
	})
	return validation.ValidateStruct(r,
		validation.Field(&r.ExternalID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Lat, finite),
		validation.Field(&r.Lon, finite),
	)
}
