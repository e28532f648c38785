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
	"sync"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
)

// FileLocker is an exclusive advisory lock on a file in the local filesystem.
// The kernel drops it when the process dies, so a crashed run never leaves it held.
type FileLocker struct {
	mu    sync.Mutex
	flock *flock.Flock
	held  bool
}

func NewFileLocker(path string) *FileLocker {
	return &FileLocker{flock: flock.New(path)}
}

func (l *FileLocker) TryAcquire(_ context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return false, nil
	}
	locked, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock %s: %w", l.flock.Path(), err)
	}
	if locked {
		l.held = true
		logrus.Debugf("acquired run lock: %s", l.flock.Path())
	}
	return locked, nil
}

func (l *FileLocker) Release(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release run lock %s: %w", l.flock.Path(), err)
	}
	l.held = false
	logrus.Debugf("released run lock: %s", l.flock.Path())
	return nil
}

func (l *FileLocker) String() string {
	return "file:" + l.flock.Path()
}
