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
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const ObjectIssue = "issue"

const (
	CommandCreate      = "create"
	CommandGet         = "get"
	CommandGetComments = "getComments"
	CommandList        = "list"
	CommandUpdate      = "update"
	CommandAddComment  = "addComment"
	CommandSetJSONData = "setJSONData"
)

// Command is the single request shape accepted by the tracker endpoint.
type Command struct {
	Command  string                 `json:"command"`
	Object   string                 `json:"object"`
	ID       *int64                 `json:"id,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
	Comment  string                 `json:"comment,omitempty"`
	Filters  map[string]string      `json:"filters,omitempty"`
	PageSize int                    `json:"pageSize,omitempty"`
	Page     int                    `json:"page,omitempty"`
	OrderBy  string                 `json:"orderBy,omitempty"`
	APIKey   string                 `json:"APIKey"`
}

// Response holds every field the jobs read. Absent fields stay nil.
type Response struct {
	OK       *bool        `json:"ok,omitempty"`
	Object   *Issue       `json:"object,omitempty"`
	Objects  []Issue      `json:"objects,omitempty"`
	Comments []RawComment `json:"comments,omitempty"`
}

type Document struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type Issue struct {
	ID          Number     `json:"id"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	Creator     string     `json:"creator"`
	StatusID    *Number    `json:"statusId,omitempty"`
	Documents   []Document `json:"documents,omitempty"`
}

// RawComment is a comment as returned by getComments. CreationDate is epoch millis.
type RawComment struct {
	CreationDate Number `json:"creationDate"`
	Creator      string `json:"creator"`
	Comment      string `json:"comment"`
}

// IssueDraft is the content of a new issue.
type IssueDraft struct {
	Subject     string
	Description string
	TaskID      int64
	Gravity     string
	AssignedBy  *int64
	AssigneeID  *int64
}

// ListQuery selects one page of issues.
type ListQuery struct {
	TaskID   int64
	Status   int
	Page     int
	PageSize int
	OrderBy  string
}

// Number decodes integers sent either as JSON numbers or as numeric strings.
type Number int64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(bytes.Trim(b, `"`))
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*n = Number(v)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", string(b))
	}
	*n = Number(int64(f))
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(n))
}

func (n Number) Int64() int64 {
	return int64(n)
}
