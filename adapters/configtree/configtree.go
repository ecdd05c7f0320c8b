// Package configtree loads configuration namespaces from a directory.
// Every *.yaml, *.yml, *.json or *.toml file is one namespace named after
// its file stem. ${VAR} references are expanded from the environment
// before parsing.
package configtree

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Tree holds the loaded namespaces.
type Tree struct {
	dir string

	mu         sync.RWMutex
	namespaces map[string]map[string]any
}

// Load reads every namespace file in dir. A missing dir yields an empty
// tree.
func Load(dir string) (*Tree, error) {
	t := &Tree{dir: dir}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// FromMap builds a tree from in-memory namespaces.
func FromMap(namespaces map[string]map[string]any) *Tree {
	return &Tree{namespaces: namespaces}
}

// Reload rereads the directory and swaps the namespaces.
func (t *Tree) Reload() error {
	namespaces := make(map[string]map[string]any)

	if t.dir != "" {
		entries, err := os.ReadDir(t.dir)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read config dir: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			ext := filepath.Ext(e.Name())
			if !isTreeFile(ext) {
				continue
			}

			path := filepath.Join(t.dir, e.Name())
			tree, err := readFile(path, ext)
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(e.Name(), ext)
			if _, dup := namespaces[name]; dup {
				return fmt.Errorf("config namespace %q defined twice", name)
			}
			namespaces[name] = tree
		}
	}

	t.mu.Lock()
	t.namespaces = namespaces
	t.mu.Unlock()

	return nil
}

// Names returns the loaded namespace names.
func (t *Tree) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.namespaces))
	for n := range t.namespaces {
		names = append(names, n)
	}
	return names
}

// Namespace implements ports.ConfigSource. A dotted name walks into nested
// maps ("services.mail"); a non-map value is not a namespace.
func (t *Tree) Namespace(name string) (map[string]any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	head, rest, _ := strings.Cut(name, ".")
	tree, ok := t.namespaces[head]
	if !ok {
		return nil, false
	}
	if rest == "" {
		return tree, true
	}
	v, ok := lookupPath(tree, rest)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Value implements ports.ConfigSource.
func (t *Tree) Value(tree map[string]any, key string) (any, bool) {
	return lookupPath(tree, key)
}

// lookupPath resolves a dotted key, trying the literal key first.
func lookupPath(tree map[string]any, key string) (any, bool) {
	if v, ok := tree[key]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(key, ".")
	if !found {
		return nil, false
	}
	sub, ok := tree[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookupPath(sub, rest)
}

func readFile(path, ext string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	tree := map[string]any{}
	switch ext {
	case ".json":
		err = json.Unmarshal(data, &tree)
	case ".toml":
		err = toml.Unmarshal(data, &tree)
	default:
		err = yaml.Unmarshal(data, &tree)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if tree == nil {
		tree = map[string]any{}
	}
	return tree, nil
}

func isTreeFile(ext string) bool {
	switch ext {
	case ".yaml", ".yml", ".json", ".toml":
		return true
	}
	return false
}
