package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ArtifactWriter writes screenshots/HTML dumps under
// {baseDir}/{sessionId}/{epochMs}-{action}[-{label}].{ext}, rejecting
// session IDs that don't match the safe-path pattern, and enforces a
// retention policy keeping only the maxSessions most-recently-modified
// session directories.
type ArtifactWriter struct {
	BaseDir     string
	MaxSessions int
}

func NewArtifactWriter(baseDir string, maxSessions int) *ArtifactWriter {
	if maxSessions <= 0 {
		maxSessions = 100
	}
	return &ArtifactWriter{BaseDir: baseDir, MaxSessions: maxSessions}
}

// Write stores data under the session's artifact directory and returns the
// path written. label may be empty.
func (w *ArtifactWriter) Write(sessionID string, epochMs int64, action, label, ext string, data []byte) (string, error) {
	if !sessionIDPattern.MatchString(sessionID) {
		return "", fmt.Errorf("invalid session id for artifact path: %q", sessionID)
	}

	dir := filepath.Join(w.BaseDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	name := fmt.Sprintf("%d-%s", epochMs, action)
	if label != "" {
		name += "-" + label
	}
	name += "." + ext

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

// EnforceRetention removes the oldest session directories (by mtime) beyond
// MaxSessions. Called on startup, on shutdown, and after every screenshot.
func (w *ArtifactWriter) EnforceRetention() error {
	entries, err := os.ReadDir(w.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read artifact base dir: %w", err)
	}

	type dirInfo struct {
		name  string
		mtime int64
	}
	var dirs []dirInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, dirInfo{name: e.Name(), mtime: info.ModTime().UnixNano()})
	}

	if len(dirs) <= w.MaxSessions {
		return nil
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].mtime > dirs[j].mtime })

	for _, d := range dirs[w.MaxSessions:] {
		if err := os.RemoveAll(filepath.Join(w.BaseDir, d.name)); err != nil {
			return fmt.Errorf("evict stale artifact dir %s: %w", d.name, err)
		}
	}
	return nil
}
