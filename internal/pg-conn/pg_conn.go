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

package pgconn

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq" // Import the postgres driver
	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/auditsync/config"
)

// ConnectDB opens a pooled connection and pings it, retrying with exponential
// backoff until the configured connect timeout elapses.
func ConnectDB(ctx context.Context, dsConfig config.DataSourceConfig) (*sql.DB, error) {
	if dsConfig.Dns == "" {
		return nil, errors.New("data source DNS is empty")
	}

	db, err := sql.Open("postgres", dsConfig.Dns)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(dsConfig.MaxOpenConns)
	db.SetMaxIdleConns(dsConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dsConfig.ConnMaxLifetime)
	db.SetConnMaxIdleTime(dsConfig.ConnMaxIdleTime)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = dsConfig.ConnectTimeout

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		pingErr := db.PingContext(ctx)
		if pingErr != nil {
			logrus.WithField("attempt", attempt).Warnf("database ping failed: %v", pingErr)
		}
		return pingErr
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		_ = db.Close()
		logrus.Errorf("database connection error: %v", err)
		return nil, err
	}

	logrus.Debug("database connection established")
	return db, nil
}
