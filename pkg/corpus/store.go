// Package corpus persists raw ingested documents as immutable per-entity
// snapshot files with bounded retention.
package corpus

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultMaxRawFiles caps how many snapshot files one entity keeps.
const DefaultMaxRawFiles = 120

// timestampLayout names snapshot files down to the second.
const timestampLayout = "20060102150405"

// DocHash returns the hex digest identifying a document's trimmed content.
// Identical trimmed text always hashes the same, which keeps chunk IDs and
// snapshot names deterministic.
func DocHash(content string) string {
	sum := md5.Sum([]byte(strings.TrimSpace(content)))
	return hex.EncodeToString(sum[:])
}

// Snapshot is the JSON object persisted per ingested document.
type Snapshot struct {
	EntityName string            `json:"entity_name"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata"`
	StoredAt   string            `json:"stored_at"`
}

// Store is an append-only archive of raw documents, one subtree per slug.
type Store struct {
	dir         string
	maxRawFiles int
	logger      *zap.Logger
	now         func() time.Time
}

// NewStore creates a snapshot store rooted at dir. A maxRawFiles of zero or
// less falls back to DefaultMaxRawFiles.
func NewStore(dir string, maxRawFiles int, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("corpus directory is required")
	}
	if maxRawFiles <= 0 {
		maxRawFiles = DefaultMaxRawFiles
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating corpus directory: %w", err)
	}

	return &Store{
		dir:         dir,
		maxRawFiles: maxRawFiles,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Write persists one document snapshot for the entity and returns its path.
// Snapshot files are never overwritten: if the derived name already exists the
// existing file is left untouched and its path returned.
func (s *Store) Write(slug, entityName, content string, metadata map[string]string, index int) (string, error) {
	entityDir := filepath.Join(s.dir, slug)
	if err := os.MkdirAll(entityDir, 0o755); err != nil {
		return "", fmt.Errorf("creating entity directory: %w", err)
	}

	hash := DocHash(content)
	name := fmt.Sprintf("%s_%d_%s.json", s.now().UTC().Format(timestampLayout), index, hash[:8])
	path := filepath.Join(entityDir, name)

	if _, err := os.Stat(path); err == nil {
		s.logger.Debug("snapshot already exists, keeping original", zap.String("path", path))
		return path, nil
	}

	snap := Snapshot{
		EntityName: entityName,
		Content:    content,
		Metadata:   metadata,
		StoredAt:   s.now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}

	s.logger.Debug("wrote raw snapshot",
		zap.String("slug", slug),
		zap.String("path", path),
		zap.Int("bytes", len(data)),
	)

	return path, nil
}

// Read loads a snapshot back from disk.
func (s *Store) Read(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// List returns an entity's snapshot paths, most recently modified first.
func (s *Store) List(slug string) ([]string, error) {
	entityDir := filepath.Join(s.dir, slug)
	entries, err := os.ReadDir(entityDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}

	files := make([]fileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{
			path:    filepath.Join(entityDir, entry.Name()),
			modTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// Count reports how many snapshots an entity holds.
func (s *Store) Count(slug string) (int, error) {
	paths, err := s.List(slug)
	if err != nil {
		return 0, err
	}
	return len(paths), nil
}

// Entities returns every slug with at least one snapshot.
func (s *Store) Entities() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}

	var slugs []string
	for _, entry := range entries {
		if entry.IsDir() {
			slugs = append(slugs, entry.Name())
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

// Prune deletes an entity's oldest snapshots beyond the retention cap.
// Deletion failures are swallowed; pruning is best-effort by design of the
// retention contract. Returns how many files were removed.
func (s *Store) Prune(slug string) int {
	paths, err := s.List(slug)
	if err != nil {
		s.logger.Warn("listing snapshots for pruning failed", zap.String("slug", slug), zap.Error(err))
		return 0
	}
	if len(paths) <= s.maxRawFiles {
		return 0
	}

	deleted := 0
	for _, path := range paths[s.maxRawFiles:] {
		if err := os.Remove(path); err != nil {
			s.logger.Warn("pruning snapshot failed", zap.String("path", path), zap.Error(err))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Debug("pruned raw snapshots",
			zap.String("slug", slug),
			zap.Int("deleted", deleted),
			zap.Int("kept", s.maxRawFiles),
		)
	}

	return deleted
}
