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

// Package logging hands out one logrus entry per sync task.
// When a log directory is configured every task also writes to its own rotating file.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/blnkfinance/auditsync/config"
)

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 5
	defaultMaxAgeDays = 30
)

type Factory struct {
	mu      sync.Mutex
	cnf     config.LogConfig
	level   logrus.Level
	stdout  io.Writer
	loggers map[string]*logrus.Logger
	files   []*lumberjack.Logger
}

// NewFactory validates the level up front so a bad value fails at startup.
func NewFactory(cnf config.LogConfig) (*Factory, error) {
	level := logrus.InfoLevel
	if cnf.Level != "" {
		parsed, err := logrus.ParseLevel(cnf.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(formatter())

	return &Factory{
		cnf:     cnf,
		level:   level,
		stdout:  os.Stdout,
		loggers: make(map[string]*logrus.Logger),
	}, nil
}

func formatter() logrus.Formatter {
	return &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"}
}

// ForTask returns an entry tagged with the task name.
func (f *Factory) ForTask(task string) *logrus.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	logger, ok := f.loggers[task]
	if !ok {
		logger = logrus.New()
		logger.SetLevel(f.level)
		logger.SetFormatter(formatter())
		logger.SetOutput(f.writerFor(task))
		f.loggers[task] = logger
	}
	return logger.WithField("task", task)
}

func (f *Factory) writerFor(task string) io.Writer {
	if f.cnf.Dir == "" {
		return f.stdout
	}
	file := &lumberjack.Logger{
		Filename:   filepath.Join(f.cnf.Dir, task+".log"),
		MaxSize:    orDefault(f.cnf.MaxSizeMB, defaultMaxSizeMB),
		MaxBackups: orDefault(f.cnf.MaxBackups, defaultMaxBackups),
		MaxAge:     orDefault(f.cnf.MaxAgeDays, defaultMaxAgeDays),
		LocalTime:  true,
	}
	f.files = append(f.files, file)
	return io.MultiWriter(f.stdout, file)
}

// Close flushes and closes every task file opened so far.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var firstErr error
	for _, file := range f.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.files = nil
	f.loggers = make(map[string]*logrus.Logger)
	return firstErr
}

// Discard returns a factory that writes nowhere. Used by tests.
func Discard() *Factory {
	return &Factory{
		level:   logrus.DebugLevel,
		stdout:  io.Discard,
		loggers: make(map[string]*logrus.Logger),
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
