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

package chunking

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/webfiler/webfiler/pkg/appctx"
)

// RunJanitor periodically removes scratch files older than maxAge from the
// scratch directories this process has written to. Abandoned uploads from
// crashed clients would otherwise hold disk space forever. It returns when
// the context is cancelled.
func (c *Coordinator) RunJanitor(ctx context.Context, interval, maxAge time.Duration) {
	log := appctx.GetLogger(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for _, dir := range c.trackedScratch() {
			scratch := filepath.Join(dir, ScratchDir)
			dirents, err := os.ReadDir(scratch)
			if err != nil {
				if os.IsNotExist(err) {
					c.untrackScratch(dir)
				}
				continue
			}
			removed := 0
			for _, d := range dirents {
				info, err := d.Info()
				if err != nil {
					continue
				}
				if time.Since(info.ModTime()) > maxAge {
					if err := os.Remove(filepath.Join(scratch, d.Name())); err == nil {
						removed++
					}
				}
			}
			if removed > 0 {
				log.Info().Str("dir", scratch).Int("removed", removed).
					Msg("janitor removed stale upload chunks")
			}
			// drop the scratch dir once it drains
			if err := os.Remove(scratch); err == nil {
				c.untrackScratch(dir)
			}
		}
	}
}

func (c *Coordinator) trackedScratch() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	dirs := make([]string, 0, len(c.scratch))
	for d := range c.scratch {
		dirs = append(dirs, d)
	}
	return dirs
}

func (c *Coordinator) untrackScratch(dir string) {
	c.mu.Lock()
	delete(c.scratch, dir)
	c.mu.Unlock()
}
