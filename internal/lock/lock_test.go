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
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/auditsync/config"
)

func TestFileLocker_Exclusive(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checkintegration.lock")

	first := NewFileLocker(path)
	second := NewFileLocker(path)

	ok, err := first.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must not acquire while the first holds the lock")

	require.NoError(t, first.Release(ctx))

	ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Release(ctx))
}

func TestFileLocker_ReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	locker := NewFileLocker(filepath.Join(t.TempDir(), "run.lock"))

	assert.NoError(t, locker.Release(ctx), "release before acquire")

	ok, err := locker.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	assert.NoError(t, locker.Release(ctx))
	assert.NoError(t, locker.Release(ctx))
}

func TestFileLocker_UnwritableDirectory(t *testing.T) {
	locker := NewFileLocker(filepath.Join(t.TempDir(), "missing", "nested", "run.lock"))

	ok, err := locker.TryAcquire(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisLocker_TryAcquire_Success(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewRedisLocker(db, "test-key", "test-value", 5*time.Second)

	mock.ExpectSetNX("test-key", "test-value", 5*time.Second).SetVal(true)

	ok, err := locker.TryAcquire(context.Background())
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_TryAcquire_Held(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewRedisLocker(db, "test-key", "test-value", 5*time.Second)

	mock.ExpectSetNX("test-key", "test-value", 5*time.Second).SetVal(false)

	ok, err := locker.TryAcquire(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)

	// nothing held, nothing to release
	assert.NoError(t, locker.Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_Release(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewRedisLocker(db, "test-key", "test-value", 5*time.Second)

	mock.ExpectSetNX("test-key", "test-value", 5*time.Second).SetVal(true)
	mock.ExpectEval(unlockScript, []string{"test-key"}, "test-value").SetVal(int64(1))

	ok, err := locker.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	assert.NoError(t, locker.Release(context.Background()))
	assert.NoError(t, locker.Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_ReleaseExpired(t *testing.T) {
	db, mock := redismock.NewClientMock()
	locker := NewRedisLocker(db, "test-key", "test-value", 5*time.Second)

	mock.ExpectSetNX("test-key", "test-value", 5*time.Second).SetVal(true)
	mock.ExpectEval(unlockScript, []string{"test-key"}, "test-value").SetVal(int64(0))

	_, err := locker.TryAcquire(context.Background())
	require.NoError(t, err)

	err = locker.Release(context.Background())
	assert.EqualError(t, err, "unlock failed, either lock expired or you're not the lock holder for key test-key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLocker_TwoHolders(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	first := NewRedisLocker(client, "auditsync:checkintegration", "run-a", time.Minute)
	second := NewRedisLocker(client, "auditsync:checkintegration", "run-b", time.Minute)

	ok, err := first.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Release(ctx))

	ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNew(t *testing.T) {
	l, err := New(config.LockConfig{Backend: config.LockBackendFile, Path: filepath.Join(t.TempDir(), "a.lock")}, nil)
	require.NoError(t, err)
	assert.IsType(t, &FileLocker{}, l)

	_, err = New(config.LockConfig{Backend: config.LockBackendRedis}, nil)
	assert.Error(t, err)

	db, _ := redismock.NewClientMock()
	l, err = New(config.LockConfig{Backend: config.LockBackendRedis, Key: "k", TTLSeconds: 10}, db)
	require.NoError(t, err)
	assert.IsType(t, &RedisLocker{}, l)
	assert.Equal(t, "redis:k", l.String())

	_, err = New(config.LockConfig{Backend: "zookeeper"}, nil)
	assert.Error(t, err)
}
