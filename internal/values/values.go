// Package values derives the per-store deployment configuration tree from a
// global per-environment defaults file and store-specific overrides.
package values

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yourorg/storeplane/pkg/cache"
)

// DefaultHostSuffix is appended to a store namespace to form its external
// hostname when the environment values file does not configure one.
const DefaultHostSuffix = ".127.0.0.1.nip.io"

// Merge deep-merges override into base and returns base. For each override
// key: if both sides are nested trees they merge recursively, otherwise the
// override value replaces the base value, including type changes. Keys only
// present in base survive. Override always wins; the function never mutates
// override, but base is modified in place, so callers pass a private copy
// when the original matters.
func Merge(base, override map[string]any) map[string]any {
	if base == nil {
		base = map[string]any{}
	}
	for key, value := range override {
		overrideTree, overrideIsTree := value.(map[string]any)
		baseTree, baseIsTree := base[key].(map[string]any)
		if overrideIsTree && baseIsTree {
			base[key] = Merge(baseTree, overrideTree)
			continue
		}
		base[key] = value
	}
	return base
}

// Copy returns a deep copy of a configuration tree. Only trees and scalars
// are duplicated; list elements are shared, which is fine because Merge never
// descends into lists.
func Copy(tree map[string]any) map[string]any {
	out := make(map[string]any, len(tree))
	for key, value := range tree {
		if nested, ok := value.(map[string]any); ok {
			out[key] = Copy(nested)
			continue
		}
		out[key] = value
	}
	return out
}

// HostSuffix extracts ingress.hostSuffix from a global tree, falling back to
// DefaultHostSuffix.
func HostSuffix(global map[string]any) string {
	if ingress, ok := global["ingress"].(map[string]any); ok {
		if suffix, ok := ingress["hostSuffix"].(string); ok && suffix != "" {
			return suffix
		}
	}
	return DefaultHostSuffix
}

// Loader reads per-environment default values files. Parsed trees are cached
// briefly so every provisioning attempt does not re-read the file.
type Loader struct {
	dir    string
	cache  *cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewLoader creates a loader rooted at dir (e.g. "config").
func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		dir:    dir,
		cache:  cache.New(),
		ttl:    30 * time.Second,
		logger: logger,
	}
}

// Load returns the global defaults tree for an environment. A missing file is
// not an error: provisioning proceeds with empty defaults.
func (l *Loader) Load(env string) map[string]any {
	key := "values:" + env
	if cached, ok := l.cache.Get(key); ok {
		return Copy(cached.(map[string]any))
	}

	path := filepath.Join(l.dir, fmt.Sprintf("values-%s.yaml", env))
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("failed to read values file", slog.String("path", path), slog.String("error", err.Error()))
		} else {
			l.logger.Warn("values file not found, using empty defaults", slog.String("path", path))
		}
		return map[string]any{}
	}

	tree := map[string]any{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		l.logger.Warn("failed to parse values file, using empty defaults",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return map[string]any{}
	}

	l.cache.Set(key, tree, l.ttl)
	return Copy(tree)
}
