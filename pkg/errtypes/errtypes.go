// Copyright 2023-2026 the webfiler authors
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

// Package errtypes contains definitions for common errors.
// It would have been nice to call this package errors, err or error
// but errors clashes with github.com/pkg/errors, err is used for any error
// variable and error is a reserved word :)
package errtypes

// NotFound is the error to use when a resource is not found.
type NotFound string

func (e NotFound) Error() string { return "error: not found: " + string(e) }

// IsNotFound implements the IsNotFound interface.
func (e NotFound) IsNotFound() {}

// BadRequest is the error to use when the request is malformed: a missing
// field, a bad integer, an invalid upload fingerprint or an out of range
// chunk index.
type BadRequest string

func (e BadRequest) Error() string { return "error: bad request: " + string(e) }

// IsBadRequest implements the IsBadRequest interface.
func (e BadRequest) IsBadRequest() {}

// PathEscaped is the error to use when a caller supplied path resolves
// outside of the storage root.
type PathEscaped string

func (e PathEscaped) Error() string { return "error: path escapes storage root: " + string(e) }

// IsPathEscaped implements the IsPathEscaped interface.
func (e PathEscaped) IsPathEscaped() {}

// AlreadyExists is the error to use when a resource already exists at the
// target location.
type AlreadyExists string

func (e AlreadyExists) Error() string { return "error: already exists: " + string(e) }

// IsAlreadyExists implements the IsAlreadyExists interface.
func (e AlreadyExists) IsAlreadyExists() {}

// Conflict is the error to use when a path exists but is of the wrong kind,
// for example a file sitting where a directory was requested.
type Conflict string

func (e Conflict) Error() string { return "error: conflict: " + string(e) }

// IsConflict implements the IsConflict interface.
func (e Conflict) IsConflict() {}

// IsADirectory is the error to use when a directory is read as if it were
// a regular file.
type IsADirectory string

func (e IsADirectory) Error() string { return "error: is a directory: " + string(e) }

// IsIsADirectory implements the IsIsADirectory interface.
func (e IsADirectory) IsIsADirectory() {}

// PermissionDenied is the error to use when the filesystem denies an
// operation.
type PermissionDenied string

func (e PermissionDenied) Error() string { return "error: permission denied: " + string(e) }

// IsPermissionDenied implements the IsPermissionDenied interface.
func (e PermissionDenied) IsPermissionDenied() {}

// InvalidCredentials is the error to use when a share password does not
// match.
type InvalidCredentials string

func (e InvalidCredentials) Error() string { return "error: invalid credentials: " + string(e) }

// IsInvalidCredentials implements the IsInvalidCredentials interface.
func (e InvalidCredentials) IsInvalidCredentials() {}

// Gone is the error to use when a share has expired and has been removed.
type Gone string

func (e Gone) Error() string { return "error: gone: " + string(e) }

// IsGone implements the IsGone interface.
func (e Gone) IsGone() {}

// AssemblyFailed is the error to use when chunk assembly fails with an I/O
// error. Chunks already uploaded are preserved so the client can retry.
type AssemblyFailed string

func (e AssemblyFailed) Error() string { return "error: assembly failed: " + string(e) }

// IsAssemblyFailed implements the IsAssemblyFailed interface.
func (e AssemblyFailed) IsAssemblyFailed() {}

// InternalError is the error to use when we really don't know what happened.
// Use with care.
type InternalError string

func (e InternalError) Error() string { return "internal error: " + string(e) }

// IsInternalError implements the IsInternalError interface.
func (e InternalError) IsInternalError() {}

// IsNotFound is the interface to implement
// to specify that a resource is not found.
type IsNotFound interface {
	IsNotFound()
}

// IsBadRequest is the interface to implement
// to specify that the request is malformed.
type IsBadRequest interface {
	IsBadRequest()
}

// IsPathEscaped is the interface to implement
// to specify that a path escapes the storage root.
type IsPathEscaped interface {
	IsPathEscaped()
}

// IsAlreadyExists is the interface to implement
// to specify that a resource already exists.
type IsAlreadyExists interface {
	IsAlreadyExists()
}

// IsConflict is the interface to implement
// to specify that a path exists with the wrong kind.
type IsConflict interface {
	IsConflict()
}

// IsIsADirectory is the interface to implement
// to specify that the resource is a directory.
type IsIsADirectory interface {
	IsIsADirectory()
}

// IsPermissionDenied is the interface to implement
// to specify that an operation was denied.
type IsPermissionDenied interface {
	IsPermissionDenied()
}

// IsInvalidCredentials is the interface to implement
// to specify that credentials were wrong.
type IsInvalidCredentials interface {
	IsInvalidCredentials()
}

// IsGone is the interface to implement
// to specify that a resource is permanently gone.
type IsGone interface {
	IsGone()
}

// IsAssemblyFailed is the interface to implement
// to specify that chunk assembly failed.
type IsAssemblyFailed interface {
	IsAssemblyFailed()
}

// IsInternalError is the interface to implement
// to specify that there was some internal error.
type IsInternalError interface {
	IsInternalError()
}
