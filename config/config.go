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

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/auditsync/internal/apierror"
)

const (
	DEFAULT_ENVIRONMENT       = "test"
	DEFAULT_TIMEOUT_SECONDS   = 30
	DEFAULT_COORDS_TIMEOUT    = 15
	DEFAULT_LIST_PAGE_SIZE    = 200
	DEFAULT_INTAKE_PAGE_SIZE  = 50
	DEFAULT_ISSUE_TYPE_ID     = 51
	DEFAULT_DUE_IN_DAYS       = 7
	DEFAULT_TAGS              = "Manutenzione, Prosit, segnalazioni"
	DEFAULT_LOCK_FILE         = "checkintegration.lock"
	DEFAULT_LOCK_KEY          = "auditsync:checkintegration"
	DEFAULT_LOCK_TTL_SECONDS  = 3600
	DEFAULT_LOG_LEVEL         = "info"
	DEFAULT_MAX_OPEN_CONNS    = 5
	DEFAULT_MAX_IDLE_CONNS    = 2
	DEFAULT_CONN_MAX_LIFETIME = 30 * time.Minute
	DEFAULT_CONN_MAX_IDLE     = 5 * time.Minute
	DEFAULT_CONNECT_TIMEOUT   = 30 * time.Second
	LockBackendFile           = "file"
	LockBackendRedis          = "redis"
	redactedValue             = "***"
)

var ConfigStore atomic.Value

type DataSourceConfig struct {
	Dns             string        `json:"dns" envconfig:"AUDITSYNC_DATA_SOURCE_DNS"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `json:"connect_timeout"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"AUDITSYNC_REDIS_DNS"`
}

// TrackerConfig is one per-environment section of the tracker settings.
type TrackerConfig struct {
	URL                  string `json:"url"`
	Key                  string `json:"key"`
	TaskIssueToTicket    int64  `json:"task_issue_to_ticket"`
	ResourceLocalPath    string `json:"resource_local_path"`
	PublicURLAttachments string `json:"public_url_attachments"`
	TimeoutSeconds       int    `json:"timeout_seconds"`
	CoordsTimeoutSeconds int    `json:"coords_timeout_seconds"`
	ListPageSize         int    `json:"list_page_size"`
	IntakePageSize       int    `json:"intake_page_size"`
	IssueTypeID          int    `json:"issue_type_id"`
	Tags                 string `json:"tags"`
	DueInDays            int    `json:"due_in_days"`
}

// TrackerOverride lets the environment replace the secrets of the active section.
type TrackerOverride struct {
	URL string `json:"-" envconfig:"AUDITSYNC_TRACKER_URL"`
	Key string `json:"-" envconfig:"AUDITSYNC_TRACKER_KEY"`
}

type LockConfig struct {
	Backend    string `json:"backend" envconfig:"AUDITSYNC_LOCK_BACKEND"`
	Path       string `json:"path" envconfig:"AUDITSYNC_LOCK_PATH"`
	Key        string `json:"key" envconfig:"AUDITSYNC_LOCK_KEY"`
	TTLSeconds int    `json:"ttl_seconds" envconfig:"AUDITSYNC_LOCK_TTL_SECONDS"`
}

type LogConfig struct {
	Dir        string `json:"dir" envconfig:"AUDITSYNC_LOG_DIR"`
	Level      string `json:"level" envconfig:"AUDITSYNC_LOG_LEVEL"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url" envconfig:"AUDITSYNC_SLACK_WEBHOOK_URL"`
}

type Notification struct {
	Slack SlackWebhook `json:"slack"`
}

type Configuration struct {
	ProjectName     string                   `json:"project_name" envconfig:"AUDITSYNC_PROJECT_NAME"`
	Environment     string                   `json:"environment" envconfig:"AUDITSYNC_ENVIRONMENT"`
	DataSource      DataSourceConfig         `json:"data_source"`
	Redis           RedisConfig              `json:"redis"`
	Trackers        map[string]TrackerConfig `json:"trackers" ignored:"true"`
	TrackerOverride TrackerOverride          `json:"-"`
	Lock            LockConfig               `json:"lock"`
	Log             LogConfig                `json:"log"`
	Notification    Notification             `json:"notification"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return apierror.NewAPIError(apierror.ErrConfiguration, fmt.Sprintf("invalid config file %s", file), err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("auditsync", &cnf)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrConfiguration, "invalid environment configuration", err)
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return nil
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrConfiguration, "config not loaded. Create a json file called auditsync.json with your config", nil)
	}
	return c, nil
}

// Tracker returns the tracker section selected by Environment.
func (cnf *Configuration) Tracker() (*TrackerConfig, error) {
	section, ok := cnf.Trackers[cnf.Environment]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrConfiguration, fmt.Sprintf("section twprj_%s not present in tracker configuration", cnf.Environment), nil)
	}
	return &section, nil
}

func (t TrackerConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.URL, validation.Required, is.URL),
		validation.Field(&t.Key, validation.Required),
		validation.Field(&t.TaskIssueToTicket, validation.Required, validation.Min(1)),
	)
}

func (l LockConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Backend, validation.In(LockBackendFile, LockBackendRedis)),
	)
}

func (cnf *Configuration) validateAndAddDefaults() error {
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Environment = strings.ToLower(strings.TrimSpace(cnf.Environment))
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.ProjectName == "" {
		cnf.ProjectName = "Audit Sync"
	}
	if cnf.Environment == "" {
		log.Printf("Warning: environment not specified in config. Using: %s", DEFAULT_ENVIRONMENT)
		cnf.Environment = DEFAULT_ENVIRONMENT
	}

	if cnf.DataSource.Dns == "" {
		return apierror.NewAPIError(apierror.ErrConfiguration, "data source DNS is required", nil)
	}

	cnf.addDataSourceDefaults()

	cnf.applyTrackerOverride()
	tracker, err := cnf.Tracker()
	if err != nil {
		return err
	}
	tracker.addDefaults()
	if err := tracker.Validate(); err != nil {
		return apierror.NewAPIError(apierror.ErrConfiguration, fmt.Sprintf("invalid tracker section %s: %v", cnf.Environment, err), err)
	}
	cnf.Trackers[cnf.Environment] = *tracker

	cnf.addLockDefaults()
	if err := cnf.Lock.Validate(); err != nil {
		return apierror.NewAPIError(apierror.ErrConfiguration, fmt.Sprintf("invalid lock configuration: %v", err), err)
	}
	if cnf.Lock.Backend == LockBackendRedis && cnf.Redis.Dns == "" {
		return apierror.NewAPIError(apierror.ErrConfiguration, "redis DNS is required for the redis lock backend", nil)
	}

	if cnf.Log.Level == "" {
		cnf.Log.Level = DEFAULT_LOG_LEVEL
	}
	if _, err := logrus.ParseLevel(cnf.Log.Level); err != nil {
		return apierror.NewAPIError(apierror.ErrConfiguration, fmt.Sprintf("invalid log level %q", cnf.Log.Level), err)
	}

	return nil
}

func (cnf *Configuration) applyTrackerOverride() {
	if cnf.TrackerOverride.URL == "" && cnf.TrackerOverride.Key == "" {
		return
	}
	if cnf.Trackers == nil {
		cnf.Trackers = map[string]TrackerConfig{}
	}
	section := cnf.Trackers[cnf.Environment]
	if cnf.TrackerOverride.URL != "" {
		section.URL = cnf.TrackerOverride.URL
	}
	if cnf.TrackerOverride.Key != "" {
		section.Key = cnf.TrackerOverride.Key
	}
	cnf.Trackers[cnf.Environment] = section
}

func (t *TrackerConfig) addDefaults() {
	t.URL = strings.TrimSpace(t.URL)
	if t.URL != "" && !strings.HasSuffix(t.URL, "/") {
		t.URL += "/"
	}
	t.ResourceLocalPath = strings.TrimRight(t.ResourceLocalPath, "/")
	if t.PublicURLAttachments != "" && !strings.HasSuffix(t.PublicURLAttachments, "/") {
		t.PublicURLAttachments += "/"
	}
	if t.TimeoutSeconds <= 0 {
		t.TimeoutSeconds = DEFAULT_TIMEOUT_SECONDS
	}
	if t.CoordsTimeoutSeconds <= 0 {
		t.CoordsTimeoutSeconds = DEFAULT_COORDS_TIMEOUT
	}
	if t.ListPageSize <= 0 {
		t.ListPageSize = DEFAULT_LIST_PAGE_SIZE
	}
	if t.IntakePageSize <= 0 {
		t.IntakePageSize = DEFAULT_INTAKE_PAGE_SIZE
	}
	if t.IssueTypeID <= 0 {
		t.IssueTypeID = DEFAULT_ISSUE_TYPE_ID
	}
	if t.DueInDays <= 0 {
		t.DueInDays = DEFAULT_DUE_IN_DAYS
	}
	if strings.TrimSpace(t.Tags) == "" {
		t.Tags = DEFAULT_TAGS
	}
}

func (cnf *Configuration) addDataSourceDefaults() {
	if cnf.DataSource.MaxOpenConns <= 0 {
		cnf.DataSource.MaxOpenConns = DEFAULT_MAX_OPEN_CONNS
	}
	if cnf.DataSource.MaxIdleConns <= 0 {
		cnf.DataSource.MaxIdleConns = DEFAULT_MAX_IDLE_CONNS
	}
	if cnf.DataSource.ConnMaxLifetime <= 0 {
		cnf.DataSource.ConnMaxLifetime = DEFAULT_CONN_MAX_LIFETIME
	}
	if cnf.DataSource.ConnMaxIdleTime <= 0 {
		cnf.DataSource.ConnMaxIdleTime = DEFAULT_CONN_MAX_IDLE
	}
	if cnf.DataSource.ConnectTimeout <= 0 {
		cnf.DataSource.ConnectTimeout = DEFAULT_CONNECT_TIMEOUT
	}
}

func (cnf *Configuration) addLockDefaults() {
	if cnf.Lock.Backend == "" {
		cnf.Lock.Backend = LockBackendFile
	}
	if cnf.Lock.Path == "" {
		cnf.Lock.Path = filepath.Join(os.TempDir(), DEFAULT_LOCK_FILE)
	}
	if cnf.Lock.Key == "" {
		cnf.Lock.Key = DEFAULT_LOCK_KEY
	}
	if cnf.Lock.TTLSeconds <= 0 {
		cnf.Lock.TTLSeconds = DEFAULT_LOCK_TTL_SECONDS
	}
}

// Redacted returns a copy safe to print: tracker keys, webhook and DSN password are masked.
func (cnf *Configuration) Redacted() Configuration {
	out := *cnf
	out.Trackers = make(map[string]TrackerConfig, len(cnf.Trackers))
	for env, section := range cnf.Trackers {
		if section.Key != "" {
			section.Key = redactedValue
		}
		out.Trackers[env] = section
	}
	if out.Notification.Slack.WebhookUrl != "" {
		out.Notification.Slack.WebhookUrl = redactedValue
	}
	if u, err := url.Parse(out.DataSource.Dns); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redactedValue)
			out.DataSource.Dns = u.String()
		}
	}
	return out
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
