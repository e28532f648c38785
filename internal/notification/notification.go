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

package notification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/auditsync/config"
	"github.com/blnkfinance/auditsync/internal/request"
)

const notifyTimeout = 10 * time.Second

type textObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type block struct {
	Type   string       `json:"type"`
	Text   *textObject  `json:"text,omitempty"`
	Fields []textObject `json:"fields,omitempty"`
}

type slackMessage struct {
	Blocks []block `json:"blocks"`
}

func buildSlackMessage(project string, err error, at time.Time) slackMessage {
	return slackMessage{Blocks: []block{
		{Type: "header", Text: &textObject{Type: "plain_text", Text: fmt.Sprintf("Error From %s 🐞", project), Emoji: true}},
		{Type: "section", Fields: []textObject{{Type: "mrkdwn", Text: fmt.Sprintf("*Error:*\n%v", err)}}},
		{Type: "section", Fields: []textObject{{Type: "mrkdwn", Text: fmt.Sprintf("*Time:*\n%v", at.Format(time.RFC822))}}},
	}}
}

// SlackNotification posts the error to a Slack incoming webhook.
func SlackNotification(ctx context.Context, webhookURL, project string, systemError error) error {
	payload, err := request.ToJsonReq(buildSlackMessage(project, systemError, time.Now()))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, payload)
	if err != nil {
		return err
	}
	_, err = request.Call(nil, req, nil)
	return err
}

// NotifyError logs the error and forwards it to Slack when a webhook is configured.
// It blocks until the webhook answered so a short-lived process does not exit first.
func NotifyError(systemError error) {
	logrus.Error(systemError)

	conf, err := config.Fetch()
	if err != nil {
		return
	}
	if conf.Notification.Slack.WebhookUrl == "" {
		return
	}
	if err := SlackNotification(context.Background(), conf.Notification.Slack.WebhookUrl, conf.ProjectName, systemError); err != nil {
		logrus.Warnf("failed to send slack notification: %v", err)
	}
}
