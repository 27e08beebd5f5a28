// Package store persists small user choices, such as the selected soundscape
// and the last focus durations, in a YAML file keyed by name.
//
// The store never fails a caller because of what is on disk: a missing file
// is an empty store, and a malformed file or entry is logged and ignored so
// callers fall back to their defaults.
package store

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// FileName is the store's file name inside the data directory.
const FileName = "state.yml"

// Store is a YAML-backed key-value store. It is safe for concurrent use.
type Store struct {
	path string

	mu      sync.Mutex
	entries map[string]*yaml.Node
}

// Open loads the store at path. It never fails on content; only an
// unexpandable path is an error.
func Open(path string) (*Store, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "expand store path %q", path)
	}

	s := &Store{
		path:    expanded,
		entries: make(map[string]*yaml.Node),
	}
	s.load()
	return s, nil
}

// Memory returns a store that is never written to disk.
func Memory() *Store {
	return &Store{entries: make(map[string]*yaml.Node)}
}

// Path returns the backing file, or an empty string for memory stores.
func (s *Store) Path() string { return s.path }

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		log.Warn("Could not read settings, using defaults", "path", s.path, "error", err)
		return
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		log.Warn("Settings file is malformed, using defaults", "path", s.path, "error", err)
		return
	}
	if len(doc.Content) == 0 {
		return
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		log.Warn("Settings file is not a mapping, using defaults", "path", s.path)
		return
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		s.entries[root.Content[i].Value] = root.Content[i+1]
	}
	log.Debug("Settings loaded", "path", s.path, "keys", len(s.entries))
}

// Load decodes the value stored under key into v. It returns false when the
// key is absent or its value does not decode into v; v is left untouched in
// that case.
func (s *Store) Load(key string, v any) bool {
	s.mu.Lock()
	node, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return false
	}

	if err := decodeInto(node, v); err != nil {
		log.Warn("Ignoring malformed setting", "key", key, "error", err)
		return false
	}
	return true
}

// decodeInto decodes into a copy of *v and only assigns it back on success,
// so a value that fails half way leaves v untouched.
func decodeInto(node *yaml.Node, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.Newf("decode target must be a non-nil pointer, got %T", v)
	}

	scratch := reflect.New(rv.Elem().Type())
	scratch.Elem().Set(rv.Elem())
	if err := node.Decode(scratch.Interface()); err != nil {
		return err
	}
	rv.Elem().Set(scratch.Elem())
	return nil
}

// Save stores v under key and writes the file.
func (s *Store) Save(key string, v any) error {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return errors.Wrapf(err, "encode %q", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &node
	return s.flushLocked()
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	return s.flushLocked()
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedKeysLocked()
}

// flushLocked writes all entries through a temp file and rename, so readers
// never see a half-written file.
func (s *Store) flushLocked() error {
	if s.path == "" {
		return nil
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range s.sortedKeysLocked() {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			s.entries[k],
		)
	}
	data, err := yaml.Marshal(root)
	if err != nil {
		return errors.Wrap(err, "marshal settings")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create settings directory")
	}

	tmp, err := os.CreateTemp(dir, ".state-*.yml")
	if err != nil {
		return errors.Wrap(err, "create temp settings file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write settings")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close settings")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.Wrap(err, "replace settings")
	}
	return nil
}

func (s *Store) sortedKeysLocked() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
