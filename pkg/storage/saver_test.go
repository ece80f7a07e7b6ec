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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fawa-io/savebridge/internal/testutil"
)

type archived struct {
	object   string
	content  string
	mimeType string
}

type fakeArchiver struct {
	mu    sync.Mutex
	calls []archived
	err   error
}

func (f *fakeArchiver) Archive(_ context.Context, objectName string, content []byte, mimeType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, archived{objectName, string(content), mimeType})
	return f.err
}

func modernHost() StaticHost {
	return StaticHost{Public: publicRoot, App: appRoot, Version: 34}
}

func TestSaver_Save(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewSaver(fs, modernHost())

	res, err := s.Save(context.Background(), SaveRequest{FileName: "report.csv", Content: "a,b\n1,2\n"})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.True(t, strings.HasSuffix(res.AbsolutePath, "PolarJoin/report.csv"), res.AbsolutePath)
	got, err := afero.ReadFile(fs, res.AbsolutePath)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(got))
}

func TestSaver_OverwriteKeepsLastContent(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := NewSaver(fs, modernHost())
	ctx := context.Background()

	first, err := s.Save(ctx, SaveRequest{FileName: "points.csv", Content: "first version, longer\n"})
	require.NoError(t, err)
	second, err := s.Save(ctx, SaveRequest{FileName: "points.csv", Content: "second\n"})
	require.NoError(t, err)

	assert.Equal(t, first.AbsolutePath, second.AbsolutePath)
	got, err := afero.ReadFile(fs, second.AbsolutePath)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(got))
}

func TestSaver_RestrictedPlatformFallsBack(t *testing.T) {
	base := afero.NewMemMapFs()
	s := NewSaver(testutil.NewDenyFs(base, publicRoot), modernHost())

	res, err := s.Save(context.Background(), SaveRequest{FileName: "report.csv", Content: "x"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(appDir, "report.csv"), res.AbsolutePath)
	got, err := afero.ReadFile(base, res.AbsolutePath)
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestSaver_OlderPlatformRetriesPreferred(t *testing.T) {
	// The public root rejects the first directory creation only, as if
	// permission was granted between resolution and materialization.
	base := afero.NewMemMapFs()
	fs := &flakyMkdirFs{Fs: base, failures: 1}
	s := NewSaver(fs, StaticHost{Public: publicRoot, App: appRoot, Version: 28})

	res, err := s.Save(context.Background(), SaveRequest{FileName: "report.csv", Content: "x"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(publicDir, "report.csv"), res.AbsolutePath)
	assert.Equal(t, 2, fs.mkdirs)
}

func TestSaver_OlderPlatformWriteFailsAuthoritatively(t *testing.T) {
	s := NewSaver(testutil.NewDenyFs(afero.NewMemMapFs(), publicRoot), StaticHost{Public: publicRoot, App: appRoot, Version: 28})

	res, err := s.Save(context.Background(), SaveRequest{FileName: "report.csv", Content: "x"})

	var fsErr *FileSystemError
	require.True(t, errors.As(err, &fsErr))
	assert.True(t, errors.Is(err, os.ErrPermission))
	assert.Equal(t, filepath.Join(publicDir, "report.csv"), fsErr.Path)
	assert.Equal(t, SaveResult{}, res)
}

func TestSaver_InvalidNameTouchesNothing(t *testing.T) {
	fs := testutil.NewRecordingFs(afero.NewMemMapFs())
	archiver := &fakeArchiver{}
	s := NewSaver(fs, modernHost(), WithArchiver(archiver))

	_, err := s.Save(context.Background(), SaveRequest{FileName: "../secrets.csv", Content: "x"})
	assert.True(t, IsValidation(err))
	assert.Empty(t, fs.Calls())
	assert.Empty(t, archiver.calls)
}

func TestSaver_HostIsConsultedOnEveryCall(t *testing.T) {
	base := afero.NewMemMapFs()
	fs := testutil.NewDenyFs(base, publicRoot)

	version := 28
	host := HostFunc(func() StaticHost {
		return StaticHost{Public: publicRoot, App: appRoot, Version: version}
	})
	s := NewSaver(fs, host)
	ctx := context.Background()

	_, err := s.Save(ctx, SaveRequest{FileName: "a.csv", Content: "x"})
	require.Error(t, err)

	version = 29
	res, err := s.Save(ctx, SaveRequest{FileName: "a.csv", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(appDir, "a.csv"), res.AbsolutePath)
}

func TestSaver_Archive(t *testing.T) {
	t.Run("mirrors with default mime type", func(t *testing.T) {
		archiver := &fakeArchiver{}
		s := NewSaver(afero.NewMemMapFs(), modernHost(), WithArchiver(archiver), WithNamespace("Surveys"))

		res, err := s.Save(context.Background(), SaveRequest{FileName: "report.csv", Content: "a,b\n"})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(publicRoot, "Surveys", "report.csv"), res.AbsolutePath)

		require.Len(t, archiver.calls, 1)
		assert.Equal(t, archived{"Surveys/report.csv", "a,b\n", DefaultMimeType}, archiver.calls[0])
	})

	t.Run("failure does not fail the save", func(t *testing.T) {
		archiver := &fakeArchiver{err: errors.New("bucket unreachable")}
		fs := afero.NewMemMapFs()
		s := NewSaver(fs, modernHost(), WithArchiver(archiver))

		res, err := s.Save(context.Background(), SaveRequest{FileName: "n.txt", Content: "x", MimeType: "text/plain"})
		require.NoError(t, err)
		assert.True(t, res.Success)
		require.Len(t, archiver.calls, 1)
		assert.Equal(t, "text/plain", archiver.calls[0].mimeType)
	})

	t.Run("failed save is not mirrored", func(t *testing.T) {
		archiver := &fakeArchiver{}
		s := NewSaver(testutil.NewDenyFs(afero.NewMemMapFs(), publicRoot), StaticHost{Public: publicRoot, Version: 34}, WithArchiver(archiver))

		_, err := s.Save(context.Background(), SaveRequest{FileName: "n.txt", Content: "x"})
		require.Error(t, err)
		assert.Empty(t, archiver.calls)
	})
}

func TestSaver_OsFs(t *testing.T) {
	root := t.TempDir()
	public := filepath.Join(root, "Download")
	s := NewSaver(afero.NewOsFs(), StaticHost{Public: public, App: filepath.Join(root, "app"), Version: 34})

	res, err := s.Save(context.Background(), SaveRequest{FileName: "report.csv", Content: "a,b\n1,2\n"})
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(res.AbsolutePath))
	got, err := os.ReadFile(res.AbsolutePath)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(got))
}

// flakyMkdirFs fails the first n MkdirAll calls.
type flakyMkdirFs struct {
	afero.Fs
	failures int
	mkdirs   int
}

func (f *flakyMkdirFs) MkdirAll(path string, perm os.FileMode) error {
	f.mkdirs++
	if f.mkdirs <= f.failures {
		return &os.PathError{Op: "mkdir", Path: path, Err: os.ErrPermission}
	}
	return f.Fs.MkdirAll(path, perm)
}
