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

package fwlog

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Level   string `json:"level"`
	Message string `json:"msg"`
	Caller  string `json:"caller"`
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []entry {
	t.Helper()
	var out []entry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e entry
		require.NoError(t, json.Unmarshal([]byte(line), &e), line)
		out = append(out, e)
	}
	return out
}

// log emits one message at testLevel through both the plain and the
// format variant of the package-level functions.
func log(t *testing.T, testLevel Level, args ...any) {
	switch testLevel {
	case LevelDebug:
		Debug(args...)
		Debugf("%v", args...)
	case LevelInfo:
		Info(args...)
		Infof("%v", args...)
	case LevelWarn:
		Warn(args...)
		Warnf("%v", args...)
	case LevelError:
		Error(args...)
		Errorf("%v", args...)
	default:
		t.Fatalf("cannot test level %v", testLevel)
	}
}

func TestOutput(t *testing.T) {
	defer SetOutput(os.Stderr)
	defer SetLevel(LevelInfo)

	tests := []struct {
		name        string
		testLevel   Level
		loggerLevel Level
		wantLevel   string
	}{
		{"info at info", LevelInfo, LevelInfo, "INFO"},
		{"info filtered at warn", LevelInfo, LevelWarn, ""},
		{"debug at debug", LevelDebug, LevelDebug, "DEBUG"},
		{"error at info", LevelError, LevelInfo, "ERROR"},
		{"warn at warn", LevelWarn, LevelWarn, "WARN"},
		{"warn filtered at error", LevelWarn, LevelError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			SetOutput(buf)
			SetLevel(tt.loggerLevel)

			log(t, tt.testLevel, "hello")

			lines := decodeLines(t, buf)
			if tt.wantLevel == "" {
				assert.Empty(t, lines)
				return
			}
			require.Len(t, lines, 2)
			for _, e := range lines {
				assert.Equal(t, tt.wantLevel, e.Level)
				assert.Equal(t, "hello", e.Message)
				assert.Contains(t, e.Caller, "default_test.go")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{" warn ", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"fatal", LevelFatal, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			assert.NoError(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}
