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

package database

import (
	"context"
	"database/sql"

	"github.com/blnkfinance/auditsync/config"
	"github.com/blnkfinance/auditsync/internal/apierror"
	pgconn "github.com/blnkfinance/auditsync/internal/pg-conn"
)

type Datasource struct {
	Conn *sql.DB
}

var _ IDataSource = Datasource{}

// NewDataSource connects to the audit store described by the configuration.
func NewDataSource(ctx context.Context, configuration *config.Configuration) (*Datasource, error) {
	con, err := pgconn.ConnectDB(ctx, configuration.DataSource)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrPersistence, "failed to connect to the audit store", err)
	}
	return &Datasource{Conn: con}, nil
}

func (d Datasource) Close() error {
	if d.Conn == nil {
		return nil
	}
	return d.Conn.Close()
}

func persistenceError(message string, err error) error {
	return apierror.NewAPIError(apierror.ErrPersistence, message, err)
}
