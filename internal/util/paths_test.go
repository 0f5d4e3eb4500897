package util

import (
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"~", home},
		{"~/test-results", filepath.Join(home, "test-results")},
		{"~other/x", "~other/x"},
		{"/abs/path", "/abs/path"},
		{"rel/path", "rel/path"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpandPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	a, b := "~/a", "b"
	ExpandPaths(&a, &b, nil)
	if a != filepath.Join(home, "a") || b != "b" {
		t.Errorf("ExpandPaths = %q, %q", a, b)
	}
}
