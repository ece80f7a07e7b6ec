// Copyright 2025 The fawa Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package notify

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/fawa-io/savebridge/pkg/fwlog"
)

const (
	LevelInfo  = "info"
	LevelError = "error"
)

// Notification is a short human-readable message for the user of the app
// shell, such as "File saved to: ...".
type Notification struct {
	RequestID string `json:"requestId"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	FilePath  string `json:"filePath,omitempty"`
}

// Notifier delivers notifications to whatever presents them to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// RedisNotifier publishes notifications as JSON on a pub/sub channel the
// native shell subscribes to.
type RedisNotifier struct {
	client  redis.Cmdable
	channel string
}

// NewRedisNotifier connects to addr and checks the connection.
func NewRedisNotifier(addr, channel string) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password set
		DB:       0,  // use default DB
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisNotifier{client: client, channel: channel}, nil
}

// Notify implements the Notifier interface.
func (r *RedisNotifier) Notify(ctx context.Context, n Notification) error {
	if n.Message == "" {
		return errors.New("notification message cannot be empty")
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

// LogNotifier writes notifications to the log. It is used when no channel
// is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	if n.Level == LevelError {
		fwlog.Errorf("[%s] %s", n.RequestID, n.Message)
	} else {
		fwlog.Infof("[%s] %s", n.RequestID, n.Message)
	}
	return nil
}
