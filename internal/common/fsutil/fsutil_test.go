package fsutil

import (
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/var/lib/tutord", "/var/lib/tutord"},
		{"relative/models", "relative/models"},
		{"~", home},
		{"~/models/llm", filepath.Join(home, "models", "llm")},
	}
	for _, c := range cases {
		got, err := ExpandHome(c.in)
		if err != nil {
			t.Fatalf("ExpandHome(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ExpandHome(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	if !PathExists(dir) {
		t.Fatal("existing dir reported missing")
	}
	if PathExists(filepath.Join(dir, "nope")) {
		t.Fatal("missing path reported present")
	}
}
