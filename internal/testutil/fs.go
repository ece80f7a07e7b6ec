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

// Package testutil holds filesystem doubles shared by the storage and
// bridge tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// RecordingFs forwards to an underlying afero.Fs and records the name of
// every operation it receives.
type RecordingFs struct {
	afero.Fs

	mu    sync.Mutex
	calls []string
}

func NewRecordingFs(base afero.Fs) *RecordingFs {
	return &RecordingFs{Fs: base}
}

func (r *RecordingFs) record(op, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op+" "+name)
}

// Calls returns the recorded operations in order, as "op path".
func (r *RecordingFs) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Count returns how many recorded operations start with op.
func (r *RecordingFs) Count(op string) int {
	n := 0
	for _, c := range r.Calls() {
		if strings.HasPrefix(c, op+" ") {
			n++
		}
	}
	return n
}

func (r *RecordingFs) Create(name string) (afero.File, error) {
	r.record("Create", name)
	return r.Fs.Create(name)
}

func (r *RecordingFs) Mkdir(name string, perm os.FileMode) error {
	r.record("Mkdir", name)
	return r.Fs.Mkdir(name, perm)
}

func (r *RecordingFs) MkdirAll(path string, perm os.FileMode) error {
	r.record("MkdirAll", path)
	return r.Fs.MkdirAll(path, perm)
}

func (r *RecordingFs) Open(name string) (afero.File, error) {
	r.record("Open", name)
	return r.Fs.Open(name)
}

func (r *RecordingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	r.record("OpenFile", name)
	return r.Fs.OpenFile(name, flag, perm)
}

func (r *RecordingFs) Remove(name string) error {
	r.record("Remove", name)
	return r.Fs.Remove(name)
}

func (r *RecordingFs) RemoveAll(path string) error {
	r.record("RemoveAll", path)
	return r.Fs.RemoveAll(path)
}

func (r *RecordingFs) Rename(oldname, newname string) error {
	r.record("Rename", oldname)
	return r.Fs.Rename(oldname, newname)
}

func (r *RecordingFs) Stat(name string) (os.FileInfo, error) {
	r.record("Stat", name)
	return r.Fs.Stat(name)
}

func (r *RecordingFs) Chmod(name string, mode os.FileMode) error {
	r.record("Chmod", name)
	return r.Fs.Chmod(name, mode)
}

func (r *RecordingFs) Chown(name string, uid, gid int) error {
	r.record("Chown", name)
	return r.Fs.Chown(name, uid, gid)
}

func (r *RecordingFs) Chtimes(name string, atime, mtime time.Time) error {
	r.record("Chtimes", name)
	return r.Fs.Chtimes(name, atime, mtime)
}

// DenyFs behaves like the underlying afero.Fs except that creating
// directories or opening files for writing anywhere under one of the
// denied prefixes fails with os.ErrPermission. Reads are allowed, so a
// directory that already exists stays visible.
type DenyFs struct {
	afero.Fs

	denied []string
}

func NewDenyFs(base afero.Fs, denied ...string) *DenyFs {
	clean := make([]string, 0, len(denied))
	for _, d := range denied {
		clean = append(clean, filepath.Clean(d))
	}
	return &DenyFs{Fs: base, denied: clean}
}

func (d *DenyFs) blocked(name string) bool {
	name = filepath.Clean(name)
	for _, prefix := range d.denied {
		if name == prefix || strings.HasPrefix(name, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func deny(op, name string) error {
	return &os.PathError{Op: op, Path: name, Err: os.ErrPermission}
}

func (d *DenyFs) Create(name string) (afero.File, error) {
	if d.blocked(name) {
		return nil, deny("open", name)
	}
	return d.Fs.Create(name)
}

func (d *DenyFs) Mkdir(name string, perm os.FileMode) error {
	if d.blocked(name) {
		return deny("mkdir", name)
	}
	return d.Fs.Mkdir(name, perm)
}

func (d *DenyFs) MkdirAll(path string, perm os.FileMode) error {
	if d.blocked(path) {
		return deny("mkdir", path)
	}
	return d.Fs.MkdirAll(path, perm)
}

func (d *DenyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 && d.blocked(name) {
		return nil, deny("open", name)
	}
	return d.Fs.OpenFile(name, flag, perm)
}
