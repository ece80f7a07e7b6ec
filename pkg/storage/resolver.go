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
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/fawa-io/savebridge/pkg/fwlog"
)

const (
	// DefaultNamespace is the folder that groups this app's files inside a
	// shared downloads root.
	DefaultNamespace = "PolarJoin"

	// DefaultRestrictedSince is the first platform API level with scoped
	// storage (Android 10).
	DefaultRestrictedSince = 29

	dirMode = 0o755
)

// Target is a resolved save directory. Exists reflects the outcome of the
// creation attempt made during resolution and may be stale by write time.
type Target struct {
	Dir    string
	Exists bool
}

// Resolver picks the directory a save goes to. It keeps no state between
// calls: the same roots, version and filesystem state give the same target.
type Resolver struct {
	Fs              afero.Fs
	Namespace       string
	RestrictedSince int
}

// NewResolver returns a Resolver with the default namespace and threshold.
func NewResolver(fs afero.Fs) *Resolver {
	return &Resolver{
		Fs:              fs,
		Namespace:       DefaultNamespace,
		RestrictedSince: DefaultRestrictedSince,
	}
}

// Resolve never fails. The public candidate is always tried first. On
// restricted platforms a public candidate that is missing and cannot be
// created gives way to the app-scoped candidate; older platforms keep the
// public candidate regardless. When no root is usable the returned Target
// has an empty Dir and the write reports the failure.
func (r *Resolver) Resolve(appScopedDownloadsDir, publicDownloadsDir string, platformVersion int) Target {
	restricted := platformVersion >= r.RestrictedSince
	preferred := r.candidate(publicDownloadsDir)

	if preferred == "" {
		if restricted {
			if fallback := r.candidate(appScopedDownloadsDir); fallback != "" {
				fwlog.Warnf("Public downloads root unavailable, using app-scoped directory %s", fallback)
				return Target{Dir: fallback, Exists: r.exists(fallback)}
			}
		}
		return Target{}
	}

	if r.exists(preferred) {
		return Target{Dir: preferred, Exists: true}
	}
	err := r.Fs.MkdirAll(preferred, dirMode)
	if err == nil {
		return Target{Dir: preferred, Exists: true}
	}
	if !restricted {
		fwlog.Debugf("Could not create %s yet: %v", preferred, err)
		return Target{Dir: preferred}
	}

	fallback := r.candidate(appScopedDownloadsDir)
	if fallback == "" {
		return Target{Dir: preferred}
	}
	fwlog.Warnf("Failed to create public directory %s, falling back to app-scoped directory %s", preferred, fallback)
	return Target{Dir: fallback, Exists: r.exists(fallback)}
}

func (r *Resolver) candidate(root string) string {
	if root == "" {
		return ""
	}
	dir := filepath.Join(root, r.namespace())
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func (r *Resolver) namespace() string {
	if r.Namespace == "" {
		return DefaultNamespace
	}
	return r.Namespace
}

func (r *Resolver) exists(dir string) bool {
	ok, err := afero.DirExists(r.Fs, dir)
	return err == nil && ok
}
