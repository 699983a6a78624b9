// Package cachedir resolves the on-disk root used by the dataset cache,
// following the same deterministic layering precedent as the teacher's
// pkg/config (base default, overridden by environment, overridden again by
// an explicit caller-supplied path) collapsed to a single directory value.
package cachedir

import (
	"errors"
	"os"
	"path/filepath"
)

const appDirName = "atlas"

// Resolve returns the cache root directory in priority order:
// explicit override > BIJUX_CACHE_DIR > XDG_CACHE_HOME/atlas > HOME/.cache/atlas.
// It never creates the directory; callers are responsible for MkdirAll.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Clean(explicit), nil
	}
	if v := os.Getenv("BIJUX_CACHE_DIR"); v != "" {
		return filepath.Clean(v), nil
	}
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return filepath.Join(v, appDirName), nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		return "", errors.New("cachedir: HOME is not set and no override was provided")
	}
	return filepath.Join(home, ".cache", appDirName), nil
}
