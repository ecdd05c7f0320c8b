// Package translation loads per-locale message files and resolves dotted
// translation keys.
//
// Files live in a directory as <locale>.yaml (keys are the flattened
// paths of the document) or <locale>/<group>.yaml (keys are prefixed with
// the group, so lang/en/enums.yaml holds "enums.*"). JSON files are read
// the same way.
package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

type ctxKey struct{}

// WithLocale returns a context carrying the request locale.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext returns the locale stored by WithLocale.
func LocaleFromContext(ctx context.Context) (string, bool) {
	l, ok := ctx.Value(ctxKey{}).(string)
	return l, ok && l != ""
}

// Translator resolves translation keys from files loaded at startup.
type Translator struct {
	dir      string
	fallback string
	logger   zerolog.Logger

	mu       sync.RWMutex
	locales  []string
	messages map[string]map[string]string
	matcher  language.Matcher
}

// New creates a translator for dir and loads it. An empty locales list
// means every locale found in dir.
func New(dir string, locales []string, fallback string, logger zerolog.Logger) (*Translator, error) {
	t := &Translator{
		dir:      dir,
		fallback: fallback,
		logger:   logger,
		locales:  append([]string(nil), locales...),
	}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload rereads every message file.
func (t *Translator) Reload() error {
	messages, err := loadDir(t.dir)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = messages
	locales := t.locales
	if len(locales) == 0 {
		for loc := range messages {
			locales = append(locales, loc)
		}
		sort.Strings(locales)
		if len(locales) == 0 && t.fallback != "" {
			locales = []string{t.fallback}
		}
		t.locales = locales
	}
	t.matcher = newMatcher(locales)

	t.logger.Debug().
		Str("dir", t.dir).
		Strs("locales", locales).
		Msg("translations loaded")

	return nil
}

func newMatcher(locales []string) language.Matcher {
	tags := make([]language.Tag, 0, len(locales))
	for _, l := range locales {
		tags = append(tags, language.Make(l))
	}
	return language.NewMatcher(tags)
}

// Translate implements ports.Translator.
func (t *Translator) Translate(ctx context.Context, key string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, loc := range []string{t.locale(ctx), t.fallback} {
		if s, ok := t.messages[loc][key]; ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// Locale implements ports.Translator.
func (t *Translator) Locale(ctx context.Context) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.locale(ctx)
}

func (t *Translator) locale(ctx context.Context) string {
	if l, ok := LocaleFromContext(ctx); ok {
		return l
	}
	return t.fallback
}

// FallbackLocale implements ports.Translator.
func (t *Translator) FallbackLocale() string {
	return t.fallback
}

// Locales implements ports.Translator.
func (t *Translator) Locales() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.locales...)
}

// Match picks the configured locale that best serves an Accept-Language
// header (or a bare locale). It returns the fallback when nothing matches.
func (t *Translator) Match(accept string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.locales) == 0 || strings.TrimSpace(accept) == "" {
		return t.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return t.fallback
	}
	_, index, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return t.fallback
	}
	return t.locales[index]
}

// loadDir reads <dir>/<locale>.{yaml,yml,json} and
// <dir>/<locale>/<group>.{yaml,yml,json}. A missing dir yields no messages.
func loadDir(dir string) (map[string]map[string]string, error) {
	messages := make(map[string]map[string]string)
	if dir == "" {
		return messages, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return messages, nil
		}
		return nil, fmt.Errorf("read translations dir: %w", err)
	}

	add := func(locale, prefix, path string) error {
		tree, err := readTree(path)
		if err != nil {
			return err
		}
		if messages[locale] == nil {
			messages[locale] = make(map[string]string)
		}
		flatten(prefix, tree, messages[locale])
		return nil
	}

	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		if !e.IsDir() {
			if isMessageFile(name) {
				if err := add(stem(name), "", path); err != nil {
					return nil, err
				}
			}
			continue
		}

		groups, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read translations dir: %w", err)
		}
		for _, g := range groups {
			if g.IsDir() || !isMessageFile(g.Name()) {
				continue
			}
			if err := add(name, stem(g.Name()), filepath.Join(path, g.Name())); err != nil {
				return nil, err
			}
		}
	}

	return messages, nil
}

func readTree(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var tree map[string]any
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &tree)
	} else {
		err = yaml.Unmarshal(data, &tree)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return tree, nil
}

// flatten writes the leaves of tree into out under dotted keys.
func flatten(prefix string, tree map[string]any, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch t := v.(type) {
		case map[string]any:
			flatten(key, t, out)
		case nil:
		default:
			out[key] = fmt.Sprint(t)
		}
	}
}

func isMessageFile(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
