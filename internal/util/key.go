package util

import (
	"path"
	"strings"
)

// JoinKey joins a remote prefix and a relative path into an object key.
// Keys always use forward slashes regardless of the local OS.
// Prefix: "reports/2026" + rel: "a.csv" -> "reports/2026/a.csv"
func JoinKey(prefix, rel string) string {
	rel = strings.ReplaceAll(rel, "\\", "/")
	joined := path.Join(strings.Trim(prefix, "/"), rel)
	if joined == "." {
		return ""
	}
	return joined
}

// TrimKeyPrefix converts an object key back to a path relative to prefix.
// Key: "reports/2026/a.csv" + prefix: "reports/2026" -> "a.csv"
func TrimKeyPrefix(key, prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return strings.TrimPrefix(key, "/")
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
}
