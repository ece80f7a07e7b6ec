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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const fileMode = 0o644

// ValidateFileName rejects names that are empty or could leave the target
// directory.
func ValidateFileName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
	case strings.ContainsAny(name, "/\\\x00"):
	default:
		return nil
	}
	return &ValidationError{Field: "fileName", Err: fmt.Errorf("%w: %q", ErrInvalidFileName, name)}
}

// Writer writes the content of a save in one piece.
type Writer struct {
	Fs afero.Fs
}

// Write truncates or creates t.Dir/fileName, writes content as UTF-8 and
// syncs it. It returns the absolute path of the file. I/O failures are
// returned as *FileSystemError and never retried.
func (w *Writer) Write(t Target, fileName, content string) (path string, err error) {
	if err := ValidateFileName(fileName); err != nil {
		return "", err
	}
	if t.Dir == "" {
		return "", &FileSystemError{Op: "write", Path: fileName, Err: ErrNoStorageRoot}
	}

	path = filepath.Join(t.Dir, fileName)
	f, err := w.Fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return "", newFileSystemError("open", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			path = ""
			err = newFileSystemError("close", f.Name(), closeErr)
		}
	}()

	if _, err := io.WriteString(f, content); err != nil {
		return "", newFileSystemError("write", path, err)
	}
	if err := f.Sync(); err != nil {
		return "", newFileSystemError("sync", path, err)
	}
	return path, nil
}

// newFileSystemError drops an *os.PathError wrapper so op and path appear
// once in the message.
func newFileSystemError(op, path string, err error) *FileSystemError {
	var pe *os.PathError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return &FileSystemError{Op: op, Path: path, Err: err}
}
