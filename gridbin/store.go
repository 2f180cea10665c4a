package gridbin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mholt/archives"
	"github.com/pkg/errors"
)

// Store manages the on-disk artifacts for generated bins: meshes,
// previews and the content hash used for memoization. All artifacts
// for one bin share the bin id as filename prefix.
type Store struct {
	Dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates the output directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create output dir")
	}
	return &Store{Dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// Lock serializes generation per bin id. Concurrent requests for the
// same bin wait instead of racing on the same files.
func (s *Store) Lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *Store) STLPath(id string) string     { return filepath.Join(s.Dir, id+".stl") }
func (s *Store) ThreeMFPath(id string) string { return filepath.Join(s.Dir, id+".3mf") }
func (s *Store) PartPath(id string, n int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s_part%d.stl", id, n))
}
func (s *Store) PartsZipPath(id string) string { return filepath.Join(s.Dir, id+"_parts.zip") }
func (s *Store) PreviewPath(id string) string  { return filepath.Join(s.Dir, id+"_preview.png") }
func (s *Store) hashPath(id string) string     { return filepath.Join(s.Dir, id+".hash") }

// StoredHash returns the recorded content hash for id, or "" when no
// artifact exists yet.
func (s *Store) StoredHash(id string) string {
	b, err := os.ReadFile(s.hashPath(id))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// WriteHash records the content hash atomically. The hash is written
// last, after all meshes, so a crash mid-generation leaves no hash and
// the next request rebuilds from scratch.
func (s *Store) WriteHash(id, hash string) error {
	tmp := s.hashPath(id) + ".tmp"
	if err := os.WriteFile(tmp, []byte(hash), 0o644); err != nil {
		return errors.Wrap(err, "write hash")
	}
	if err := os.Rename(tmp, s.hashPath(id)); err != nil {
		return errors.Wrap(err, "rename hash")
	}
	return nil
}

// Clean removes every artifact for id, including stale split parts
// from a previous generation that produced more pieces than the next
// one will. Only the exact per-id paths are touched: ids may be
// prefixes of other ids and must never shadow their siblings.
func (s *Store) Clean(id string) error {
	targets := []string{
		s.STLPath(id),
		s.ThreeMFPath(id),
		s.PartsZipPath(id),
		s.PreviewPath(id),
		s.hashPath(id),
		s.hashPath(id) + ".tmp",
	}
	for n := 1; ; n++ {
		p := s.PartPath(id, n)
		if _, err := os.Stat(p); err != nil {
			break
		}
		targets = append(targets, p)
	}
	for _, p := range targets {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "remove %s", filepath.Base(p))
		}
	}
	return nil
}

// ZipParts bundles the split part STLs into a single archive.
func (s *Store) ZipParts(ctx context.Context, id string, parts []string) (string, error) {
	names := make(map[string]string, len(parts))
	for _, p := range parts {
		names[p] = filepath.Base(p)
	}
	files, err := archives.FilesFromDisk(ctx, nil, names)
	if err != nil {
		return "", errors.Wrap(err, "collect part files")
	}
	out := s.PartsZipPath(id)
	f, err := os.Create(out)
	if err != nil {
		return "", errors.Wrap(err, "create parts zip")
	}
	defer f.Close()
	if err := (archives.Zip{}).Archive(ctx, f, files); err != nil {
		return "", errors.Wrap(err, "write parts zip")
	}
	return out, nil
}
