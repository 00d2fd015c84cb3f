package utils

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain name untouched",
			in:   "photo.jpg",
			want: "photo.jpg",
		},
		{
			name: "spaces become hyphens",
			in:   "My Photo (1).jpg",
			want: "My-Photo-1.jpg",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  holiday.png  ",
			want: "holiday.png",
		},
		{
			name: "accents fold to base letters",
			in:   "résumé.pdf",
			want: "resume.pdf",
		},
		{
			name: "control characters dropped",
			in:   "a\x00b\x1f.txt",
			want: "ab.txt",
		},
		{
			name: "tabs collapse like spaces",
			in:   "a\tb.txt",
			want: "a-b.txt",
		},
		{
			name: "repeated separators collapse",
			in:   "photo..final--v2.jpg",
			want: "photo.final-v2.jpg",
		},
		{
			name: "leading dot trimmed",
			in:   ".hidden",
			want: "hidden",
		},
		{
			name: "case preserved",
			in:   "UPPER.JPG",
			want: "UPPER.JPG",
		},
		{
			name: "empty input falls back",
			in:   "",
			want: "file",
		},
		{
			name: "fully stripped input falls back",
			in:   "???()!",
			want: "file",
		},
		{
			name: "long base name capped at 200",
			in:   strings.Repeat("a", 250) + ".jpg",
			want: strings.Repeat("a", 200) + ".jpg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.in)
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := SanitizeFilename(got); again != got {
				t.Errorf("SanitizeFilename not idempotent: %q -> %q -> %q", tt.in, got, again)
			}
		})
	}
}

func TestSanitizeFilenameNeverKeepsDotDot(t *testing.T) {
	inputs := []string{
		"../../etc/passwd",
		"..\\..\\windows",
		"a/../b.txt",
		"....//....//secret",
	}
	for _, in := range inputs {
		got := SanitizeFilename(in)
		if strings.Contains(got, "..") {
			t.Errorf("SanitizeFilename(%q) = %q still contains '..'", in, got)
		}
	}
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.jpg", "jpg"},
		{"archive.tar.gz", "gz"},
		{"UPPER.PNG", "png"},
		{"noext", ""},
		{".hidden", ""},
		{"trailing.", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FileExtension(tt.in); got != tt.want {
			t.Errorf("FileExtension(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
