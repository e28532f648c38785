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

package redis_db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the client used by the distributed run lock.
type Redis struct {
	address string
	client  redis.UniversalClient
}

// ParseRedisURL parses a Redis URL into client options.
// Docker-style "host:port" addresses are used verbatim.
func ParseRedisURL(rawURL string) (*redis.Options, error) {
	if rawURL == "" {
		return nil, errors.New("redis address cannot be empty")
	}

	if strings.Count(rawURL, ":") == 1 && !strings.Contains(rawURL, "@") && !strings.Contains(rawURL, "/") {
		return &redis.Options{Addr: rawURL}, nil
	}

	if !strings.HasPrefix(rawURL, "redis://") && !strings.HasPrefix(rawURL, "rediss://") {
		rawURL = "redis://" + rawURL
	}

	// A bare password before "@" is treated as the password, not the username.
	if strings.Contains(rawURL, "@") {
		scheme := rawURL[:strings.Index(rawURL, "//")+2]
		parts := strings.SplitN(strings.TrimPrefix(rawURL, scheme), "@", 2)
		if len(parts) == 2 && !strings.Contains(parts[0], ":") {
			rawURL = scheme + ":" + parts[0] + "@" + parts[1]
		}
	}

	return redis.ParseURL(rawURL)
}

// NewRedisClient connects to a single Redis instance and verifies it with a ping.
func NewRedisClient(address string) (*Redis, error) {
	opts, err := ParseRedisURL(address)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Redis{address: address, client: client}, nil
}

// Client returns the Redis universal client.
func (r *Redis) Client() redis.UniversalClient {
	return r.client
}

// Close closes the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
