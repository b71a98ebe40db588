// Copyright 2025 walteh LLC
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

// Package backup captures pre-images of files before destructive writes.
// Every run owns one session directory under the backup root, keyed by the
// run's start time; repeated backups of the same path within a session get
// a numeric suffix, and a manifest.json maps each original path to its
// backup history.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const manifestName = "manifest.json"

// 💾 Service is the collaborator interface the engine sees: capture a
// pre-image, or report that nothing needed capturing.
type Service interface {
	// Backup copies path into the session directory. It returns the backup
	// location, or "" when the source does not exist or backups are
	// disabled.
	Backup(ctx context.Context, path string) (string, error)
}

// 🚫 Disabled is the Service used under --no-backup.
type Disabled struct{}

func (Disabled) Backup(ctx context.Context, path string) (string, error) {
	return "", nil
}

// 🗂️ manifestEntry records one capture of one original path.
type manifestEntry struct {
	Backup    string `json:"backup"`
	Timestamp string `json:"timestamp"`
	Session   string `json:"session"`
}

// 📦 Session is a Service writing into one session directory. The directory
// is created lazily on the first capture so dry runs leave no trace.
type Session struct {
	root      string // backup root, e.g. .kif_backups
	dir       string // session directory under root
	timestamp string
}

// NewSession returns a Session under root keyed by start.
func NewSession(root string, start time.Time) *Session {
	ts := start.Format("20060102_150405")
	return &Session{
		root:      root,
		dir:       filepath.Join(root, "session_"+ts),
		timestamp: ts,
	}
}

// Dir returns the session directory path.
func (s *Session) Dir() string {
	return s.dir
}

// Backup implements Service. The backup mirrors the original path's
// directory structure under the session directory.
func (s *Session) Backup(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil
	} else if err != nil {
		return "", errors.Errorf("checking source: %w", err)
	}

	rel := path
	if filepath.IsAbs(rel) {
		rel = strings.TrimLeft(rel, string(os.PathSeparator))
	}
	target := filepath.Join(s.dir, rel)

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", errors.Errorf("creating backup directory: %w", err)
	}

	// A second capture of the same path in one session gets a counter
	// suffix instead of clobbering the first pre-image.
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(target)
		base := strings.TrimSuffix(target, ext)
		for counter := 1; ; counter++ {
			candidate := fmt.Sprintf("%s.%d%s", base, counter, ext)
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				target = candidate
				break
			}
		}
	}

	if err := copyFile(path, target); err != nil {
		return "", errors.Errorf("copying pre-image: %w", err)
	}

	if err := s.appendManifest(path, target); err != nil {
		return "", errors.Errorf("updating manifest: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Str("backup", target).Msg("backup created")
	return target, nil
}

// appendManifest records the capture in the session's path→history index.
func (s *Session) appendManifest(original, target string) error {
	manifest := map[string][]manifestEntry{}
	path := filepath.Join(s.dir, manifestName)

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &manifest); err != nil {
			return errors.Errorf("decoding manifest: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return errors.Errorf("reading manifest: %w", err)
	}

	manifest[original] = append(manifest[original], manifestEntry{
		Backup:    target,
		Timestamp: s.timestamp,
		Session:   s.dir,
	})

	out, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return errors.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return errors.Errorf("writing manifest: %w", err)
	}
	return nil
}

// 📇 SessionInfo summarizes one recorded session under the backup root.
type SessionInfo struct {
	Name  string
	Path  string
	Files int
}

// ListSessions returns recorded sessions, newest first.
func ListSessions(root string) ([]SessionInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Errorf("reading backup root: %w", err)
	}

	var sessions []SessionInfo
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "session_") {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		manifest, err := readManifest(dir)
		if err != nil {
			continue
		}
		sessions = append(sessions, SessionInfo{
			Name:  entry.Name(),
			Path:  dir,
			Files: len(manifest),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Name > sessions[j].Name
	})
	return sessions, nil
}

func readManifest(dir string) (map[string][]manifestEntry, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, errors.Errorf("reading manifest: %w", err)
	}
	manifest := map[string][]manifestEntry{}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Errorf("decoding manifest: %w", err)
	}
	return manifest, nil
}

// 🔁 RollbackResult reports how a restore went.
type RollbackResult struct {
	Session  string
	Restored int
	Failed   int
}

// Rollback restores every file recorded in the named session (or the most
// recent session when name is empty) from its latest pre-image.
func Rollback(ctx context.Context, root, name string) (*RollbackResult, error) {
	logger := zerolog.Ctx(ctx)

	dir := filepath.Join(root, name)
	if name == "" {
		sessions, err := ListSessions(root)
		if err != nil {
			return nil, err
		}
		if len(sessions) == 0 {
			return nil, errors.New("no backup sessions found")
		}
		dir = sessions[0].Path
	} else if _, err := os.Stat(dir); err != nil {
		return nil, errors.Errorf("session not found: %s", name)
	}

	manifest, err := readManifest(dir)
	if err != nil {
		return nil, err
	}

	result := &RollbackResult{Session: filepath.Base(dir)}
	// Stable order so repeated rollbacks behave identically.
	originals := make([]string, 0, len(manifest))
	for original := range manifest {
		originals = append(originals, original)
	}
	sort.Strings(originals)

	for _, original := range originals {
		history := manifest[original]
		if len(history) == 0 {
			continue
		}
		latest := history[len(history)-1].Backup
		if err := restoreFile(latest, original); err != nil {
			logger.Error().Err(err).Str("path", original).Msg("restore failed")
			result.Failed++
			continue
		}
		logger.Info().Str("path", original).Msg("restored")
		result.Restored++
	}
	return result, nil
}

func restoreFile(backup, original string) error {
	if _, err := os.Stat(backup); err != nil {
		return errors.Errorf("backup missing: %w", err)
	}
	if dir := filepath.Dir(original); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Errorf("creating parent directories: %w", err)
		}
	}
	if err := copyFile(backup, original); err != nil {
		return errors.Errorf("restoring file: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return errors.Errorf("copying file: %w", err)
	}
	return nil
}
