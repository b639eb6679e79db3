// Package playbook maintains one live curated document per entity plus an
// immutable archive of every prior version.
package playbook

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// archiveLayout names archived versions down to the second.
const archiveLayout = "20060102150405"

// Info describes one live playbook for listings.
type Info struct {
	Slug      string
	Size      int64
	UpdatedAt time.Time
}

// Store keeps live playbooks as <dir>/<slug>.md and archived versions under
// <dir>/archive/<slug>/<timestamp>.md.
type Store struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a playbook store rooted at dir.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("playbook directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating playbook directory: %w", err)
	}

	return &Store{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) livePath(slug string) string {
	return filepath.Join(s.dir, slug+".md")
}

func (s *Store) archiveDir(slug string) string {
	return filepath.Join(s.dir, "archive", slug)
}

// Get returns the entity's live playbook, or "" when none exists yet.
func (s *Store) Get(slug string) (string, error) {
	data, err := os.ReadFile(s.livePath(slug))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading playbook: %w", err)
	}
	return string(data), nil
}

// Put replaces the entity's live playbook, archiving the current non-empty
// value first so history only grows.
func (s *Store) Put(slug, content string) error {
	current, err := s.Get(slug)
	if err != nil {
		return err
	}

	if strings.TrimSpace(current) != "" {
		if err := s.archive(slug, current); err != nil {
			return err
		}
	}

	if err := os.WriteFile(s.livePath(slug), []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing playbook: %w", err)
	}

	s.logger.Debug("wrote playbook",
		zap.String("slug", slug),
		zap.Int("chars", len(content)),
	)

	return nil
}

// archive writes one immutable copy of the current playbook. Same-second
// writes get a zero-padded numeric suffix instead of clobbering the earlier
// copy; the padding keeps lexical order chronological for Versions.
func (s *Store) archive(slug, content string) error {
	dir := s.archiveDir(slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}

	stamp := s.now().UTC().Format(archiveLayout)
	path := filepath.Join(dir, stamp+".md")
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%03d.md", stamp, n))
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("archiving playbook: %w", err)
	}

	s.logger.Debug("archived playbook version",
		zap.String("slug", slug),
		zap.String("path", path),
	)

	return nil
}

// List returns every live playbook, sorted by slug.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing playbooks: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			Slug:      strings.TrimSuffix(entry.Name(), ".md"),
			Size:      fi.Size(),
			UpdatedAt: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Slug < infos[j].Slug })
	return infos, nil
}

// Versions returns an entity's archived version names, newest first.
func (s *Store) Versions(slug string) ([]string, error) {
	entries, err := os.ReadDir(s.archiveDir(slug))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing archive: %w", err)
	}

	var versions []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(entry.Name(), ".md"))
	}

	// Timestamped names sort lexically; newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	return versions, nil
}

// Show returns the live playbook when version is empty, otherwise the named
// archived version.
func (s *Store) Show(slug, version string) (string, error) {
	if version == "" {
		content, err := s.Get(slug)
		if err != nil {
			return "", err
		}
		if content == "" {
			return "", fmt.Errorf("no playbook for %q", slug)
		}
		return content, nil
	}

	data, err := os.ReadFile(filepath.Join(s.archiveDir(slug), version+".md"))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("no archived version %q for %q", version, slug)
	}
	if err != nil {
		return "", fmt.Errorf("reading archived playbook: %w", err)
	}
	return string(data), nil
}

// PruneArchives deletes an entity's oldest archived versions beyond keep.
// Returns how many files were removed.
func (s *Store) PruneArchives(slug string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	versions, err := s.Versions(slug)
	if err != nil {
		return 0, err
	}
	if len(versions) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, version := range versions[keep:] {
		path := filepath.Join(s.archiveDir(slug), version+".md")
		if err := os.Remove(path); err != nil {
			s.logger.Warn("pruning archive failed", zap.String("path", path), zap.Error(err))
			continue
		}
		deleted++
	}

	s.logger.Info("pruned playbook archive",
		zap.String("slug", slug),
		zap.Int("deleted", deleted),
		zap.Int("kept", keep),
	)

	return deleted, nil
}

// PruneAll prunes every entity's archive to keep the N most recent versions.
// Returns deleted counts per slug.
func (s *Store) PruneAll(keep int) (map[string]int, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, "archive"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing archives: %w", err)
	}

	deleted := make(map[string]int)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		n, err := s.PruneArchives(entry.Name(), keep)
		if err != nil {
			return deleted, err
		}
		if n > 0 {
			deleted[entry.Name()] = n
		}
	}
	return deleted, nil
}
