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

package storage

import (
	"github.com/spf13/afero"

	"github.com/fawa-io/savebridge/pkg/fwlog"
)

// Materializer makes sure a resolved directory exists before the write.
type Materializer struct {
	Fs afero.Fs
}

// EnsureExists creates t.Dir and any missing parents. A failure is only
// logged; the write that follows reports the authoritative error.
func (m *Materializer) EnsureExists(t Target) bool {
	if t.Dir == "" {
		return false
	}
	if ok, err := afero.DirExists(m.Fs, t.Dir); err == nil && ok {
		return true
	}
	if err := m.Fs.MkdirAll(t.Dir, dirMode); err != nil {
		fwlog.Warnf("Failed to create directory %s: %v", t.Dir, err)
		return false
	}
	return true
}
