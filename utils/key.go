package utils

import (
	"fmt"
	"strings"
	"time"
)

// Storage keys above this length are rejected by S3-compatible backends.
const maxKeyLength = 1024

// ResolvePrefixTemplate substitutes {label}, {YYYY}, {MM} and {DD} in an
// upload prefix template. Resolution happens once, when the invite is created
// or updated; every upload under the invite then shares the frozen prefix.
func ResolvePrefixTemplate(template, label string, date time.Time) string {
	resolved := strings.ReplaceAll(template, "{label}", label)
	resolved = strings.ReplaceAll(resolved, "{YYYY}", fmt.Sprintf("%04d", date.Year()))
	resolved = strings.ReplaceAll(resolved, "{MM}", fmt.Sprintf("%02d", int(date.Month())))
	resolved = strings.ReplaceAll(resolved, "{DD}", fmt.Sprintf("%02d", date.Day()))
	return resolved
}

// BuildObjectKey assembles the final storage key: normalized prefix (no
// leading slash, one trailing slash), sanitized filename with the random
// suffix inserted right before the extension. Keys that would exceed the
// storage ceiling get their base name truncated; prefix, suffix and
// extension always survive intact.
func BuildObjectKey(prefix, filename, suffix string) string {
	sanitized := SanitizeFilename(filename)

	normalized := strings.TrimLeft(prefix, "/")
	normalized = strings.TrimRight(normalized, "/")
	if normalized != "" {
		normalized += "/"
	}

	name := sanitized
	ext := ""
	if idx := strings.LastIndex(sanitized, "."); idx > 0 && idx < len(sanitized)-1 {
		name = sanitized[:idx]
		ext = sanitized[idx+1:]
	}

	var key string
	if ext == "" {
		key = normalized + name + "-" + suffix
	} else {
		key = normalized + name + "-" + suffix + "." + ext
	}
	if len(key) <= maxKeyLength {
		return key
	}

	maxBase := maxKeyLength - len(normalized) - len(suffix) - len(ext) - 2
	if maxBase < 1 {
		maxBase = 1
	}
	if len(name) > maxBase {
		name = name[:maxBase]
	}
	if ext == "" {
		return normalized + name + "-" + suffix
	}
	return normalized + name + "-" + suffix + "." + ext
}
