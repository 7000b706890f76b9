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

// Package share defines time-bounded, optionally password-gated handles
// that expose one file or directory to anonymous clients, and the Manager
// interface drivers implement.
package share

import (
	"context"
	"time"
)

// Kind discriminates file shares from directory shares.
type Kind string

const (
	// KindFile is a share targeting a single file.
	KindFile Kind = "file"
	// KindDir is a share targeting a directory.
	KindDir Kind = "dir"
)

// Share is the internal descriptor of one share. The password is kept only
// as a hash; the public view never carries it.
type Share struct {
	ID            string
	Path          string // logical path below the storage root
	Kind          Kind
	CreatedAt     time.Time
	ExpiresAt     time.Time // zero means the share never expires
	PasswordHash  string
	AllowUploads  bool
	DisableViewer bool
	QuickDownload bool
	MaxBandwidth  int64
	Title         string
	Description   string
	Theme         string
	ViewMode      string
}

// Expired reports whether the share's lifetime ended at the given instant.
func (s *Share) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// PublicView is the client-facing projection of a share.
type PublicView struct {
	ID            string `json:"id"`
	Path          string `json:"path"`
	Kind          Kind   `json:"kind"`
	CreatedAt     int64  `json:"createdAt"`
	ExpiresAt     *int64 `json:"expiresAt,omitempty"`
	HasPassword   bool   `json:"hasPassword"`
	AllowUploads  bool   `json:"allowUploads"`
	DisableViewer bool   `json:"disableViewer"`
	QuickDownload bool   `json:"quickDownload"`
	MaxBandwidth  int64  `json:"maxBandwidth,omitempty"`
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	Theme         string `json:"theme,omitempty"`
	ViewMode      string `json:"viewMode,omitempty"`
}

// Public returns the view of the share safe to hand to clients.
func (s *Share) Public() *PublicView {
	v := &PublicView{
		ID:            s.ID,
		Path:          s.Path,
		Kind:          s.Kind,
		CreatedAt:     s.CreatedAt.UnixMilli(),
		HasPassword:   s.PasswordHash != "",
		AllowUploads:  s.AllowUploads,
		DisableViewer: s.DisableViewer,
		QuickDownload: s.QuickDownload,
		MaxBandwidth:  s.MaxBandwidth,
		Title:         s.Title,
		Description:   s.Description,
		Theme:         s.Theme,
		ViewMode:      s.ViewMode,
	}
	if !s.ExpiresAt.IsZero() {
		ms := s.ExpiresAt.UnixMilli()
		v.ExpiresAt = &ms
	}
	return v
}

// CreateRequest carries the fields of a new share. The caller validates
// that Path exists and fills Kind from the stat result.
type CreateRequest struct {
	Path          string
	Kind          Kind
	ExpiresIn     int64 // seconds; 0 means the share never expires
	Password      string
	AllowUploads  bool
	DisableViewer bool
	QuickDownload bool
	MaxBandwidth  int64
	Title         string
	Description   string
	Theme         string
	ViewMode      string
}

// UpdateRequest selectively overwrites mutable share fields. Nil pointers
// leave the field untouched, with one exception: expiry is always taken
// from the patch, where nil or 0 clears it.
type UpdateRequest struct {
	ExpiresIn     *int64
	Password      *string // empty string removes the password
	AllowUploads  *bool
	DisableViewer *bool
	QuickDownload *bool
	MaxBandwidth  *int64
	Title         *string
	Description   *string
	Theme         *string
	ViewMode      *string
}

// Manager is the share registry contract. Lookups apply lazy expiry: an
// expired share is removed on first access and reported as missing from
// then on.
type Manager interface {
	// Create stores a new share and returns it.
	Create(ctx context.Context, req *CreateRequest) (*Share, error)
	// Get returns a share by id, or errtypes.NotFound if missing or expired.
	Get(ctx context.Context, id string) (*Share, error)
	// List sweeps expired shares and returns the rest.
	List(ctx context.Context) ([]*Share, error)
	// Update patches mutable fields and returns the updated share.
	Update(ctx context.Context, id string, patch *UpdateRequest) (*Share, error)
	// Delete removes a share, errtypes.NotFound if absent.
	Delete(ctx context.Context, id string) error
	// Authenticate checks access to a share: errtypes.Gone if missing or
	// expired, errtypes.InvalidCredentials on password mismatch.
	Authenticate(ctx context.Context, id, password string) (*Share, error)
}
