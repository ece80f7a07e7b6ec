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

// Host is the capability the native container exposes to the bridge. It is
// consulted on every save because storage permission state, and with it the
// usable roots, can change between calls.
type Host interface {
	// PreferredRoot returns the shared, user-visible downloads root.
	// An empty string means it is not available.
	PreferredRoot() string
	// FallbackRoot returns the app-scoped downloads root.
	// An empty string means it is not available.
	FallbackRoot() string
	// PlatformVersion returns the host platform API level.
	PlatformVersion() int
}

// StaticHost is a Host with fixed answers.
type StaticHost struct {
	Public  string
	App     string
	Version int
}

func (h StaticHost) PreferredRoot() string { return h.Public }
func (h StaticHost) FallbackRoot() string  { return h.App }
func (h StaticHost) PlatformVersion() int  { return h.Version }

// HostFunc adapts a function returning a fresh StaticHost, such as a read of
// the live configuration, into a Host.
type HostFunc func() StaticHost

func (f HostFunc) PreferredRoot() string { return f().Public }
func (f HostFunc) FallbackRoot() string  { return f().App }
func (f HostFunc) PlatformVersion() int  { return f().Version }
