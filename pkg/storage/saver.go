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
	"context"
	"path"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/fawa-io/savebridge/pkg/fwlog"
)

// DefaultMimeType is assumed when a request does not name one.
const DefaultMimeType = "text/csv"

// SaveRequest is one logical save. MimeType is advisory; it only reaches
// the archive mirror.
type SaveRequest struct {
	ID       string
	FileName string
	Content  string
	MimeType string
}

type SaveResult struct {
	AbsolutePath string
	Success      bool
}

// Archiver mirrors a saved artifact somewhere off the device.
type Archiver interface {
	Archive(ctx context.Context, objectName string, content []byte, mimeType string) error
}

// Option configures a Saver.
type Option func(*Saver)

// WithNamespace overrides the folder created under each downloads root.
func WithNamespace(ns string) Option {
	return func(s *Saver) {
		if ns != "" {
			s.resolver.Namespace = ns
		}
	}
}

// WithRestrictedSince overrides the first platform version that may fall
// back to the app-scoped root.
func WithRestrictedSince(v int) Option {
	return func(s *Saver) {
		if v > 0 {
			s.resolver.RestrictedSince = v
		}
	}
}

// WithArchiver mirrors every successful save through a.
func WithArchiver(a Archiver) Option {
	return func(s *Saver) {
		s.archiver = a
	}
}

// Saver runs Resolver, Materializer and Writer in sequence. It is shared by
// every call surface and holds no per-call state, so concurrent saves are
// safe; saves to the same file name race at the filesystem.
type Saver struct {
	host         Host
	resolver     *Resolver
	materializer *Materializer
	writer       *Writer
	archiver     Archiver
}

func NewSaver(fs afero.Fs, host Host, opts ...Option) *Saver {
	s := &Saver{
		host:         host,
		resolver:     NewResolver(fs),
		materializer: &Materializer{Fs: fs},
		writer:       &Writer{Fs: fs},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes req.Content to the resolved directory and returns the
// absolute path. The work runs to completion on the calling goroutine;
// ctx only bounds the archive mirror.
func (s *Saver) Save(ctx context.Context, req SaveRequest) (SaveResult, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.MimeType == "" {
		req.MimeType = DefaultMimeType
	}
	if err := ValidateFileName(req.FileName); err != nil {
		fwlog.Warnf("[%s] rejected save: %v", req.ID, err)
		return SaveResult{}, err
	}

	target := s.resolver.Resolve(s.host.FallbackRoot(), s.host.PreferredRoot(), s.host.PlatformVersion())
	fwlog.Debugf("[%s] resolved target %q (exists=%t)", req.ID, target.Dir, target.Exists)

	s.materializer.EnsureExists(target)

	absPath, err := s.writer.Write(target, req.FileName, req.Content)
	if err != nil {
		fwlog.Errorf("[%s] error saving file %s: %v", req.ID, req.FileName, err)
		return SaveResult{}, err
	}
	fwlog.Infof("[%s] saved %d bytes to %s", req.ID, len(req.Content), absPath)

	if s.archiver != nil {
		object := path.Join(s.resolver.namespace(), req.FileName)
		if err := s.archiver.Archive(ctx, object, []byte(req.Content), req.MimeType); err != nil {
			fwlog.Warnf("[%s] failed to archive %s: %v", req.ID, object, err)
		}
	}

	return SaveResult{AbsolutePath: absPath, Success: true}, nil
}
