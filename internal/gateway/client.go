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

// Package gateway talks to the issue tracker's JSON command endpoint.
// Every call is a single POST attempt with a bounded timeout. Retries belong to the jobs.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/auditsync/config"
	"github.com/blnkfinance/auditsync/internal/apierror"
	"github.com/blnkfinance/auditsync/internal/request"
)

const redactedKey = "***"

type Client struct {
	url           string
	apiKey        string
	timeout       time.Duration
	coordsTimeout time.Duration
	issueTypeID   int
	tags          string
	dueInDays     int
	httpClient    *http.Client
	now           func() time.Time
}

// NewClient builds a client for one tracker section.
func NewClient(cnf config.TrackerConfig) *Client {
	timeout := time.Duration(cnf.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = config.DEFAULT_TIMEOUT_SECONDS * time.Second
	}
	coordsTimeout := time.Duration(cnf.CoordsTimeoutSeconds) * time.Second
	if coordsTimeout <= 0 {
		coordsTimeout = config.DEFAULT_COORDS_TIMEOUT * time.Second
	}
	return &Client{
		url:           cnf.URL,
		apiKey:        cnf.Key,
		timeout:       timeout,
		coordsTimeout: coordsTimeout,
		issueTypeID:   cnf.IssueTypeID,
		tags:          cnf.Tags,
		dueInDays:     cnf.DueInDays,
		httpClient:    &http.Client{},
		now:           time.Now,
	}
}

type loggerKey struct{}

// WithLogger makes calls made under ctx log through entry.
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey{}, entry)
}

func loggerFrom(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok && entry != nil {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// Redact returns a copy of cmd that is safe to log.
func Redact(cmd Command) Command {
	if cmd.APIKey != "" {
		cmd.APIKey = redactedKey
	}
	return cmd
}

// Call sends cmd with the default timeout.
func (c *Client) Call(ctx context.Context, cmd Command) (*Response, error) {
	return c.CallWithTimeout(ctx, cmd, c.timeout)
}

// CallWithTimeout sends cmd once. Any non-nil error means the attempt failed.
func (c *Client) CallWithTimeout(ctx context.Context, cmd Command, timeout time.Duration) (*Response, error) {
	cmd.APIKey = c.apiKey

	log := loggerFrom(ctx)
	if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		if redacted, err := json.Marshal(Redact(cmd)); err == nil {
			log.WithField("command", cmd.Command).Debugf("tracker payload: %s", redacted)
		}
	}

	payload, err := request.ToJsonReq(cmd)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrData, "failed to encode tracker command", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, payload)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrTransport, "failed to create tracker request", err)
	}

	var response Response
	_, err = request.Call(c.httpClient, req, &response)
	if err != nil {
		if errors.Is(err, request.ErrDecode) {
			return nil, apierror.NewAPIError(apierror.ErrData, fmt.Sprintf("tracker %s returned an undecodable body", cmd.Command), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrTransport, fmt.Sprintf("tracker %s failed", cmd.Command), err)
	}
	return &response, nil
}
