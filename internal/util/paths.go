// Package util holds small helpers shared by the config and artifact code.
package util

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a leading "~/" (or "~\") to the current user's home
// directory. "~user/..." is left alone.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		return filepath.Join(home, path[2:])
	}
	return path
}

// ExpandPaths applies ExpandPath to each pointed-to path.
func ExpandPaths(paths ...*string) {
	for _, p := range paths {
		if p != nil {
			*p = ExpandPath(*p)
		}
	}
}
