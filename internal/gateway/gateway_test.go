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
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/auditsync/config"
	"github.com/blnkfinance/auditsync/internal/apierror"
)

const trackerURL = "https://tracker.example.com/api/"

func newTestClient() *Client {
	c := NewClient(config.TrackerConfig{
		URL:         trackerURL,
		Key:         "secret-key",
		IssueTypeID: config.DEFAULT_ISSUE_TYPE_ID,
		Tags:        config.DEFAULT_TAGS,
		DueInDays:   config.DEFAULT_DUE_IN_DAYS,
	})
	c.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local) }
	return c
}

// recordingResponder captures every decoded request body and answers with the reply for its command.
func recordingResponder(t *testing.T, seen *[]map[string]interface{}, replies map[string]string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		raw, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &body))
		*seen = append(*seen, body)

		reply, ok := replies[body["command"].(string)]
		if !ok {
			return httpmock.NewStringResponse(400, `{"ok":false}`), nil
		}
		return httpmock.NewStringResponse(200, reply), nil
	}
}

func TestCreateIssue(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var seen []map[string]interface{}
	httpmock.RegisterResponder("POST", trackerURL, recordingResponder(t, &seen, map[string]string{
		CommandCreate: `{"ok":true,"object":{"id":777,"statusId":1}}`,
	}))

	c := newTestClient()
	id, err := c.CreateIssue(context.Background(), IssueDraft{
		Subject:     "Pothole",
		Description: "Via Roma 1",
		TaskID:      42,
		Gravity:     "03_GRAVITY_HIGH",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(777), id)

	require.Len(t, seen, 1)
	body := seen[0]
	assert.Equal(t, "create", body["command"])
	assert.Equal(t, "issue", body["object"])
	assert.Equal(t, "secret-key", body["APIKey"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Pothole", data["subject"])
	assert.Equal(t, "Via Roma 1", data["description"])
	assert.Equal(t, float64(42), data["taskId"])
	assert.Equal(t, "03_GRAVITY_HIGH", data["gravity"])
	assert.Equal(t, "14/03/2026", data["signalledOnDate"])
	assert.Equal(t, config.DEFAULT_TAGS, data["tags"])
	assert.Equal(t, float64(51), data["typeId"])
	assert.Nil(t, data["assignedById"])
	assert.Nil(t, data["assigneeId"])

	due := c.now().AddDate(0, 0, 7).UnixMilli()
	assert.Equal(t, float64(due), data["shouldCloseBy"])
}

func TestCreateIssue_NoObject(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", trackerURL, httpmock.NewStringResponder(200, `{"ok":false,"message":"invalid task"}`))

	_, err := newTestClient().CreateIssue(context.Background(), IssueDraft{Subject: "x"})
	require.Error(t, err)
	assert.Equal(t, apierror.ErrData, apierror.CodeOf(err))
}

func TestCall_TransportAndStatusErrors(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", trackerURL, httpmock.NewStringResponder(500, `boom`))
	_, err := newTestClient().GetIssue(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, apierror.ErrTransport, apierror.CodeOf(err))

	httpmock.RegisterResponder("POST", trackerURL, httpmock.NewErrorResponder(io.ErrUnexpectedEOF))
	_, err = newTestClient().GetIssue(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, apierror.ErrTransport, apierror.CodeOf(err))
}

func TestCall_UndecodableBody(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", trackerURL, httpmock.NewStringResponder(200, `<html>maintenance</html>`))

	_, err := newTestClient().Call(context.Background(), Command{Command: CommandGet, Object: ObjectIssue})
	require.Error(t, err)
	assert.Equal(t, apierror.ErrData, apierror.CodeOf(err))
}

func TestGetIssue(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var seen []map[string]interface{}
	httpmock.RegisterResponder("POST", trackerURL, recordingResponder(t, &seen, map[string]string{
		CommandGet: `{"object":{"id":"777","statusId":"2","subject":"Pothole"}}`,
	}))

	issue, err := newTestClient().GetIssue(context.Background(), 777)
	require.NoError(t, err)
	require.NotNil(t, issue.StatusID)
	assert.Equal(t, int64(2), issue.StatusID.Int64())
	assert.Equal(t, int64(777), issue.ID.Int64())
	assert.Equal(t, float64(777), seen[0]["id"])
}

func TestGetIssue_MissingStatus(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", trackerURL, httpmock.NewStringResponder(200, `{"object":{"id":777}}`))

	_, err := newTestClient().GetIssue(context.Background(), 777)
	require.Error(t, err)
	assert.Equal(t, apierror.ErrData, apierror.CodeOf(err))
}

func TestGetComments(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", trackerURL, httpmock.NewStringResponder(200,
		`{"comments":[{"creationDate":1000,"creator":"Bob","comment":"b"},{"creationDate":500.0,"creator":"Alice","comment":" fixed "}]}`))

	comments, err := newTestClient().GetComments(context.Background(), 777)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, int64(1000), comments[0].CreationDate.Int64())
	assert.Equal(t, int64(500), comments[1].CreationDate.Int64())
	assert.Equal(t, " fixed ", comments[1].Comment)
}

func TestGetComments_Missing(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", trackerURL, httpmock.NewStringResponder(200, `{"ok":true}`))

	comments, err := newTestClient().GetComments(context.Background(), 777)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestListAllIssues_Pages(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var seen []map[string]interface{}
	httpmock.RegisterResponder("POST", trackerURL, func(req *http.Request) (*http.Response, error) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		seen = append(seen, body)
		switch body["page"] {
		case float64(1):
			return httpmock.NewStringResponse(200, `{"objects":[{"id":1},{"id":2}]}`), nil
		case float64(2):
			return httpmock.NewStringResponse(200, `{"objects":[{"id":3}]}`), nil
		}
		return httpmock.NewStringResponse(200, `{"objects":[]}`), nil
	})

	issues, err := newTestClient().ListAllIssues(context.Background(), ListQuery{TaskID: 3632, Status: 1, PageSize: 2, OrderBy: "taskName"})
	require.NoError(t, err)
	require.Len(t, issues, 3)
	assert.Equal(t, int64(3), issues[2].ID.Int64())

	require.Len(t, seen, 2)
	filters := seen[0]["filters"].(map[string]interface{})
	assert.Equal(t, "3632", filters["taskId"])
	assert.Equal(t, "1", filters["status"])
	assert.Equal(t, "taskName", seen[0]["orderBy"])
	assert.Equal(t, float64(2), seen[0]["pageSize"])
}

func TestListAllIssues_ErrorKeepsCollected(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", trackerURL, func(req *http.Request) (*http.Response, error) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		if body["page"] == float64(1) {
			return httpmock.NewStringResponse(200, `{"objects":[{"id":1},{"id":2}]}`), nil
		}
		return httpmock.NewStringResponse(503, `unavailable`), nil
	})

	issues, err := newTestClient().ListAllIssues(context.Background(), ListQuery{TaskID: 1, Status: 1, PageSize: 2})
	assert.Error(t, err)
	assert.Len(t, issues, 2)
}

func TestUpdateIssueStatus(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var seen []map[string]interface{}
	httpmock.RegisterResponder("POST", trackerURL, recordingResponder(t, &seen, map[string]string{
		CommandUpdate: `{"ok":true,"object":{"id":9,"statusId":2}}`,
	}))

	issue, err := newTestClient().UpdateIssueStatus(context.Background(), 9, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), issue.StatusID.Int64())

	data := seen[0]["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["statusId"])
}

func TestAddComment(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var seen []map[string]interface{}
	httpmock.RegisterResponder("POST", trackerURL, recordingResponder(t, &seen, map[string]string{
		CommandAddComment: `{"ok":true}`,
	}))

	ok, err := newTestClient().AddComment(context.Background(), 777, "Mario: done")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Mario: done", seen[0]["comment"])

	httpmock.RegisterResponder("POST", trackerURL, httpmock.NewStringResponder(200, `{"ok":false}`))
	ok, err = newTestClient().AddComment(context.Background(), 777, "again")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetCoordinates(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var seen []map[string]interface{}
	httpmock.RegisterResponder("POST", trackerURL, recordingResponder(t, &seen, map[string]string{
		CommandSetJSONData: `{"object":{"id":777}}`,
	}))

	err := newTestClient().SetCoordinates(context.Background(), 777, 45.07, 7.68)
	require.NoError(t, err)

	coords := seen[0]["data"].(map[string]interface{})["coords"].(map[string]interface{})
	assert.Equal(t, 45.07, coords["latitude"])
	assert.Equal(t, 7.68, coords["longitude"])
	assert.Equal(t, float64(100), coords["accuracy"])

	httpmock.RegisterResponder("POST", trackerURL, httpmock.NewStringResponder(200, `{"message":"nope"}`))
	err = newTestClient().SetCoordinates(context.Background(), 777, 45.07, 7.68)
	assert.Equal(t, apierror.ErrData, apierror.CodeOf(err))
}

func TestSetCoordinates_Timeout(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", trackerURL, func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})

	c := newTestClient()
	c.coordsTimeout = 20 * time.Millisecond

	start := time.Now()
	err := c.SetCoordinates(context.Background(), 777, 1, 2)
	assert.Equal(t, apierror.ErrTransport, apierror.CodeOf(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRedact(t *testing.T) {
	cmd := Command{Command: CommandGet, APIKey: "secret-key"}
	redacted := Redact(cmd)

	assert.Equal(t, "***", redacted.APIKey)
	assert.Equal(t, "secret-key", cmd.APIKey)

	raw, err := json.Marshal(redacted)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-key")
}

func TestCall_LogsThroughContextEntry(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var seen []map[string]interface{}
	httpmock.RegisterResponder("POST", trackerURL, recordingResponder(t, &seen, map[string]string{
		CommandGet: `{"object":{"id":"777","statusId":"1"}}`,
	}))

	logger, hook := logrustest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	entry := logger.WithField("task", "IssueToTicket").WithField("run_id", "run-1")

	_, err := newTestClient().GetIssue(WithLogger(context.Background(), entry), 777)
	require.NoError(t, err)

	require.NotNil(t, hook.LastEntry())
	logged := hook.LastEntry()
	assert.Equal(t, logrus.DebugLevel, logged.Level)
	assert.Equal(t, "IssueToTicket", logged.Data["task"])
	assert.Equal(t, "run-1", logged.Data["run_id"])
	assert.Equal(t, CommandGet, logged.Data["command"])
	assert.Contains(t, logged.Message, `"APIKey":"***"`)
	assert.NotContains(t, logged.Message, "secret-key")
}

func TestCall_DebugOffWritesNothing(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	var seen []map[string]interface{}
	httpmock.RegisterResponder("POST", trackerURL, recordingResponder(t, &seen, map[string]string{
		CommandGet: `{"object":{"id":"777","statusId":"1"}}`,
	}))

	logger, hook := logrustest.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	_, err := newTestClient().GetIssue(WithLogger(context.Background(), logrus.NewEntry(logger)), 777)
	require.NoError(t, err)
	assert.Empty(t, hook.AllEntries())
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(config.TrackerConfig{URL: trackerURL})
	assert.Equal(t, 30*time.Second, c.timeout)
	assert.Equal(t, 15*time.Second, c.coordsTimeout)
}
