package utils

import (
	"strings"
	"unicode"
)

const fallbackName = "file"

// maps common accented letters to their base letter, the same effect NFD
// decomposition followed by the allow-list has on them
var accentFold = map[rune]string{
	'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'ä': "a", 'å': "a", 'ā': "a", 'ă': "a", 'ą': "a",
	'è': "e", 'é': "e", 'ê': "e", 'ë': "e", 'ē': "e", 'ĕ': "e", 'ė': "e", 'ę': "e", 'ě': "e",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i", 'ĩ': "i", 'ī': "i", 'į': "i",
	'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ö': "o", 'ō': "o", 'ő': "o",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u", 'ũ': "u", 'ū': "u", 'ů': "u", 'ű': "u",
	'ý': "y", 'ÿ': "y", 'ñ': "n", 'ń': "n", 'ç': "c", 'ć': "c", 'č': "c",
	'š': "s", 'ś': "s", 'ž': "z", 'ź': "z", 'ż': "z", 'ř': "r", 'ť': "t", 'ď': "d",
	'À': "A", 'Á': "A", 'Â': "A", 'Ã': "A", 'Ä': "A", 'Å': "A", 'Ā': "A",
	'È': "E", 'É': "E", 'Ê': "E", 'Ë': "E", 'Ē': "E",
	'Ì': "I", 'Í': "I", 'Î': "I", 'Ï': "I", 'Ī': "I",
	'Ò': "O", 'Ó': "O", 'Ô': "O", 'Õ': "O", 'Ö': "O", 'Ō': "O",
	'Ù': "U", 'Ú': "U", 'Û': "U", 'Ü': "U", 'Ū': "U",
	'Ý': "Y", 'Ñ': "N", 'Ç': "C", 'Č': "C", 'Š': "S", 'Ž': "Z",
}

func isAllowedFilenameRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		r == '/' || r == '_' || r == '.' || r == '-'
}

// SanitizeFilename normalizes an untrusted filename into a safe storage name:
// accents fold to their base letters, control characters are dropped,
// whitespace runs become single hyphens, anything outside [A-Za-z0-9/_.-] is
// removed, repeated separators collapse, edge separators are trimmed and the
// base name (extension excluded) is capped at 200 characters. An input that
// sanitizes to nothing yields "file". Idempotent.
func SanitizeFilename(filename string) string {
	var b strings.Builder
	b.Grow(len(filename))
	for _, r := range strings.TrimSpace(filename) {
		if folded, ok := accentFold[r]; ok {
			b.WriteString(folded)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if unicode.IsSpace(r) {
			b.WriteByte('-')
			continue
		}
		if isAllowedFilenameRune(r) {
			b.WriteRune(r)
		}
	}
	sanitized := b.String()

	for _, sep := range []string{"-", ".", "_"} {
		double := sep + sep
		for strings.Contains(sanitized, double) {
			sanitized = strings.ReplaceAll(sanitized, double, sep)
		}
	}
	sanitized = strings.Trim(sanitized, "-.")

	name := sanitized
	ext := ""
	if idx := strings.LastIndex(sanitized, "."); idx > 0 && idx < len(sanitized)-1 {
		name = sanitized[:idx]
		ext = sanitized[idx:]
	}
	if len(name) > 200 {
		name = name[:200]
		name = strings.Trim(name, "-.")
	}
	if name == "" {
		name = fallbackName
	}
	return name + ext
}

// FileExtension returns the lower-cased extension without the leading dot,
// or "" when the filename has none.
func FileExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx > 0 && idx < len(filename)-1 {
		return strings.ToLower(filename[idx+1:])
	}
	return ""
}
