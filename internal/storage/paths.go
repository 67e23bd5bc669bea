package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ytget/dlcore/internal/command/errs"
)

// restrictedPrefixes are protected macOS system roots no download path may
// resolve inside of.
var restrictedPrefixes = []string{"/System", "/usr", "/bin", "/sbin", "/private", "/Library/System"}

// ValidatePath rejects a caller-supplied path that contains a null byte,
// contains a ".." component (checked on the path as given, before it is
// cleaned), or resolves inside a protected macOS system root. Relative paths
// are normalized to absolute form against defaultRoot.
func ValidatePath(path, defaultRoot string) (string, error) {
	if strings.ContainsRune(path, 0) {
		return "", errs.New(errs.PermissionDenied, "path contains a null byte")
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(defaultRoot, abs)
	}
	cleaned := filepath.Clean(abs)

	if hasDotDotComponent(path) {
		return "", errs.New(errs.PermissionDenied, "path traversal is not allowed")
	}

	if runtime.GOOS == "darwin" {
		for _, prefix := range restrictedPrefixes {
			if cleaned == prefix || strings.HasPrefix(cleaned, prefix+"/") {
				return "", errs.Newf(errs.PermissionDenied, "cannot write to system directory: %s", prefix)
			}
		}
	}

	return cleaned, nil
}

func hasDotDotComponent(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

// CreateDirectoryStructure builds the output directory for an item per the
// spec's layout rule: channel/playlist → <root>/<channel>/<playlist>/,
// bare playlist → <root>/<playlist>/, solo video → <root>/. Each segment is
// independently sanitized. A pre-existing directory is treated as success.
func CreateDirectoryStructure(root, channelName, playlistName string) (string, error) {
	path := root
	if channelName != "" {
		sanitized := SanitizeFilename(channelName)
		path = filepath.Join(path, sanitized)
	}
	if playlistName != "" {
		sanitized := SanitizeFilename(playlistName)
		path = filepath.Join(path, sanitized)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", errs.Newf(errs.PermissionDenied, "failed to create directory: %v", err)
	}
	return path, nil
}
