package dataflow

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// File is a node-produced artifact: an absolute path the owning node writes
// to, plus a reference relative to the artifact root for downstream widgets.
type File struct {
	Path    string
	RelPath string
}

// artifactStore allocates write-once artifact locations under a root
// directory, one subdirectory per node. Each (node, name) pair is handed out
// at most once; the owning node is the single writer.
type artifactStore struct {
	root string
	mu   sync.Mutex
	seen map[string]struct{}
}

func newArtifactStore(root string) *artifactStore {
	return &artifactStore{
		root: root,
		seen: make(map[string]struct{}),
	}
}

func (s *artifactStore) MakeFile(node, name string) (File, error) {
	if s == nil {
		return File{}, ErrNoArtifactDir
	}

	rel := filepath.Join(pathSegment(node), name)

	s.mu.Lock()
	if _, ok := s.seen[rel]; ok {
		s.mu.Unlock()

		return File{}, errors.Wrap(ErrArtifactExists, rel)
	}
	s.seen[rel] = struct{}{}
	s.mu.Unlock()

	path := filepath.Join(s.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return File{}, errors.Wrapf(err, "unable to create artifact directory for %s", rel)
	}

	return File{Path: path, RelPath: rel}, nil
}

// pathSegment turns a node name into a single path element. Foreach instance
// names carry topic names with separators in them.
func pathSegment(node string) string {
	return strings.ReplaceAll(node, "/", ":")
}
