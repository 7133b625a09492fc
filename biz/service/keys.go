package service

import (
	"path"
	"strconv"
	"strings"
	"time"
)

// joinKey joins non-empty segments with "/".
func joinKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = trimSlashes(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

func trimSlashes(s string) string {
	return strings.Trim(strings.TrimSpace(s), "/")
}

// sanitizeName keeps only the base element of a client supplied file name.
func sanitizeName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

// tokenName is a generated token carrying the original file extension.
func tokenName(token, originalName string) string {
	return token + strings.ToLower(path.Ext(sanitizeName(originalName)))
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
