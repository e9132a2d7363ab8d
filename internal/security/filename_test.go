package security

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3f2a9c1e-7b1d-4d0e-9a55-0c1f2e3d4b5a", "3f2a9c1e-7b1d-4d0e-9a55-0c1f2e3d4b5a"},
		{"../../etc/passwd", "etc_passwd"},
		{"morning session #2", "morning_session_2"},
		{"a__b", "a_b"},
		{"..", "unknown"},
		{"", "unknown"},
		{"naïve", "na_ve"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilenameLength(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("x", 500))
	if len(got) != maxFilenameLen {
		t.Errorf("len = %d, want %d", len(got), maxFilenameLen)
	}
}
