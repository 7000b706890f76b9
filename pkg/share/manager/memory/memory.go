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

// Package memory implements the share manager on a process-local map.
// Shares are declared non-durable: a restart invalidates all of them. A
// persistent driver can replace this one behind the same interface.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/webfiler/webfiler/pkg/errtypes"
	"github.com/webfiler/webfiler/pkg/metrics"
	"github.com/webfiler/webfiler/pkg/share"
	"github.com/webfiler/webfiler/pkg/share/manager/registry"
)

func init() {
	registry.Register("memory", New)
}

// New returns an in-memory share manager.
func New(_ map[string]interface{}) (share.Manager, error) {
	return &manager{shares: map[string]*share.Share{}}, nil
}

type manager struct {
	mu     sync.Mutex
	shares map[string]*share.Share
}

func (m *manager) Create(ctx context.Context, req *share.CreateRequest) (*share.Share, error) {
	s := &share.Share{
		ID:            uuid.NewString(),
		Path:          req.Path,
		Kind:          req.Kind,
		CreatedAt:     time.Now(),
		AllowUploads:  req.AllowUploads,
		DisableViewer: req.DisableViewer,
		QuickDownload: req.QuickDownload,
		MaxBandwidth:  req.MaxBandwidth,
		Title:         req.Title,
		Description:   req.Description,
		Theme:         req.Theme,
		ViewMode:      req.ViewMode,
	}
	if req.ExpiresIn > 0 {
		s.ExpiresAt = s.CreatedAt.Add(time.Duration(req.ExpiresIn) * time.Second)
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errtypes.InternalError("error hashing share password: " + err.Error())
		}
		s.PasswordHash = string(hash)
	}

	m.mu.Lock()
	m.shares[s.ID] = s
	m.mu.Unlock()

	metrics.SharesCreated.Inc()
	return copyShare(s), nil
}

func (m *manager) Get(ctx context.Context, id string) (*share.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shares[id]
	if !ok {
		return nil, errtypes.NotFound(id)
	}
	if s.Expired(time.Now()) {
		delete(m.shares, id)
		return nil, errtypes.NotFound(id)
	}
	return copyShare(s), nil
}

func (m *manager) List(ctx context.Context) ([]*share.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	out := make([]*share.Share, 0, len(m.shares))
	for id, s := range m.shares {
		if s.Expired(now) {
			delete(m.shares, id)
			continue
		}
		out = append(out, copyShare(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *manager) Update(ctx context.Context, id string, patch *share.UpdateRequest) (*share.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shares[id]
	if !ok || s.Expired(time.Now()) {
		delete(m.shares, id)
		return nil, errtypes.NotFound(id)
	}

	// expiry always comes from the patch: absent or zero clears it
	if patch.ExpiresIn != nil && *patch.ExpiresIn > 0 {
		s.ExpiresAt = time.Now().Add(time.Duration(*patch.ExpiresIn) * time.Second)
	} else {
		s.ExpiresAt = time.Time{}
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			s.PasswordHash = ""
		} else {
			hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, errtypes.InternalError("error hashing share password: " + err.Error())
			}
			s.PasswordHash = string(hash)
		}
	}
	if patch.AllowUploads != nil {
		s.AllowUploads = *patch.AllowUploads
	}
	if patch.DisableViewer != nil {
		s.DisableViewer = *patch.DisableViewer
	}
	if patch.QuickDownload != nil {
		s.QuickDownload = *patch.QuickDownload
	}
	if patch.MaxBandwidth != nil {
		s.MaxBandwidth = *patch.MaxBandwidth
	}
	if patch.Title != nil {
		s.Title = *patch.Title
	}
	if patch.Description != nil {
		s.Description = *patch.Description
	}
	if patch.Theme != nil {
		s.Theme = *patch.Theme
	}
	if patch.ViewMode != nil {
		s.ViewMode = *patch.ViewMode
	}

	return copyShare(s), nil
}

func (m *manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shares[id]; !ok {
		return errtypes.NotFound(id)
	}
	delete(m.shares, id)
	return nil
}

func (m *manager) Authenticate(ctx context.Context, id, password string) (*share.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shares[id]
	if !ok {
		return nil, errtypes.Gone(id)
	}
	if s.Expired(time.Now()) {
		delete(m.shares, id)
		return nil, errtypes.Gone(id)
	}
	if s.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)); err != nil {
			return nil, errtypes.InvalidCredentials(id)
		}
	}
	return copyShare(s), nil
}

func copyShare(s *share.Share) *share.Share {
	c := *s
	return &c
}
