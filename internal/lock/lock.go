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

package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/blnkfinance/auditsync/config"
)

// RunLock guards a whole orchestration run. At most one holder exists at a time.
type RunLock interface {
	// TryAcquire never blocks. It returns false when another holder owns the lock.
	TryAcquire(ctx context.Context) (bool, error)
	// Release is safe to call more than once and on a lock that was never acquired.
	Release(ctx context.Context) error
	String() string
}

// New builds the run lock selected by the lock configuration.
func New(cnf config.LockConfig, client redis.UniversalClient) (RunLock, error) {
	switch cnf.Backend {
	case "", config.LockBackendFile:
		return NewFileLocker(cnf.Path), nil
	case config.LockBackendRedis:
		if client == nil {
			return nil, fmt.Errorf("redis lock backend selected but no redis client is configured")
		}
		return NewRedisLocker(client, cnf.Key, uuid.NewString(), time.Duration(cnf.TTLSeconds)*time.Second), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cnf.Backend)
	}
}
