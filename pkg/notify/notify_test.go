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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"

	"github.com/fawa-io/savebridge/pkg/fwlog"
)

func TestRedisNotifier_Notify(t *testing.T) {
	client, mock := redismock.NewClientMock()

	notifier := &RedisNotifier{client: client, channel: "polarjoin:notifications"}

	testCases := []struct {
		name         string
		notification Notification
		mocker       func()
		wantErr      bool
	}{
		{
			name: "success",
			notification: Notification{
				RequestID: "req-1",
				Level:     LevelInfo,
				Message:   "File saved to: /sdcard/Download/PolarJoin/report.csv",
				FilePath:  "/sdcard/Download/PolarJoin/report.csv",
			},
			mocker: func() {
				payload, _ := json.Marshal(Notification{
					RequestID: "req-1",
					Level:     LevelInfo,
					Message:   "File saved to: /sdcard/Download/PolarJoin/report.csv",
					FilePath:  "/sdcard/Download/PolarJoin/report.csv",
				})
				mock.ExpectPublish("polarjoin:notifications", payload).SetVal(1)
			},
			wantErr: false,
		},
		{
			name:         "empty message",
			notification: Notification{RequestID: "req-2", Level: LevelError},
			mocker:       func() {},
			wantErr:      true,
		},
		{
			name:         "redis error",
			notification: Notification{RequestID: "req-3", Level: LevelError, Message: "Error saving file: denied"},
			mocker: func() {
				payload, _ := json.Marshal(Notification{RequestID: "req-3", Level: LevelError, Message: "Error saving file: denied"})
				mock.ExpectPublish("polarjoin:notifications", payload).SetErr(errors.New("redis error"))
			},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.mocker()
			err := notifier.Notify(context.Background(), tc.notification)
			if (err != nil) != tc.wantErr {
				t.Errorf("Notify() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestLogNotifier_Notify(t *testing.T) {
	buf := new(bytes.Buffer)
	fwlog.SetOutput(buf)
	defer fwlog.SetOutput(os.Stderr)

	n := LogNotifier{}
	assert.NoError(t, n.Notify(context.Background(), Notification{RequestID: "r1", Level: LevelInfo, Message: "File saved to: /x"}))
	assert.NoError(t, n.Notify(context.Background(), Notification{RequestID: "r2", Level: LevelError, Message: "Error saving file: boom"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.Contains(t, lines[0], `"level":"INFO"`)
		assert.Contains(t, lines[0], "[r1] File saved to: /x")
		assert.Contains(t, lines[1], `"level":"ERROR"`)
		assert.Contains(t, lines[1], "[r2] Error saving file: boom")
	}
}
