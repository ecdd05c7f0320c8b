package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/artpar/lookup/core/convention"
	"github.com/artpar/lookup/core/schema"
	"github.com/artpar/lookup/domain/enum"
)

// LoadEntities registers every entity definition found in dir and in
// modulesDir/<module>/entities. Module entities without a namespace take
// the module directory name. Missing directories are skipped.
func LoadEntities(r *Entities, dir, modulesDir string) (int, error) {
	n := 0
	load := func(path, module string) error {
		entities, err := schema.ParseEntityDir(path)
		if err != nil {
			return err
		}
		for _, ent := range entities {
			if ent.Namespace == "" {
				ent.Namespace = module
			}
			if _, err := r.Register(ent); err != nil {
				return err
			}
			n++
		}
		return nil
	}

	if err := forEachSource(dir, modulesDir, "entities", load); err != nil {
		return n, err
	}
	return n, nil
}

// LoadEnums registers every enum definition found in dir and in
// modulesDir/<module>/enums. Keys come from the path relative to the scan
// root unless the file sets one. Missing directories are skipped.
func LoadEnums(r *Enums, dir, modulesDir string) (int, error) {
	n := 0
	load := func(path, module string) error {
		enums, err := schema.ParseEnumDir(path, convention.EnumKeyFromPath)
		if err != nil {
			return err
		}
		for _, e := range enums {
			if e.Namespace == "" {
				e.Namespace = module
			}
			if err := r.Register(e.Namespace, e.Key, enum.FromSchema(e)); err != nil {
				return err
			}
			n++
		}
		return nil
	}

	if err := forEachSource(dir, modulesDir, "enums", load); err != nil {
		return n, err
	}
	return n, nil
}

// forEachSource calls load for dir (default namespace) and for every
// modulesDir/<module>/<sub> directory.
func forEachSource(dir, modulesDir, sub string, load func(path, module string) error) error {
	if isDir(dir) {
		if err := load(dir, ""); err != nil {
			return err
		}
	}

	if modulesDir == "" {
		return nil
	}
	entries, err := os.ReadDir(modulesDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read modules dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		path := filepath.Join(modulesDir, e.Name(), sub)
		if !isDir(path) {
			continue
		}
		if err := load(path, convention.Snake(e.Name())); err != nil {
			return fmt.Errorf("module %s: %w", e.Name(), err)
		}
	}
	return nil
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
