package main

import (
	"path/filepath"
	"testing"
)

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,c", []string{"a", "c"}},
		{"", nil},
	}
	for _, c := range cases {
		got := splitCSV(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := loadConfig(serveFlags{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":8080" || cfg.ModelsDir != filepath.Join(home, "models", "llm") {
		t.Fatalf("defaults: %+v", cfg)
	}

	cfg, err = loadConfig(serveFlags{
		addr:        ":9090",
		chatModel:   "phi-3.5",
		corsOrigins: "http://a.example, http://b.example",
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9090" || cfg.ChatModel != "phi-3.5" {
		t.Fatalf("overrides: %+v", cfg)
	}
	if !cfg.CORSEnable || len(cfg.CORSOrigins) != 2 {
		t.Fatalf("cors: %+v", cfg)
	}
}

func TestLoadConfigExpandsHomePaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := loadConfig(serveFlags{
		modelsDir: "~/gguf",
		serverBin: "~/bin/llama-server",
	})
	if err != nil {
		t.Fatal(err)
	}
	// The manager stats these paths verbatim; a surviving "~" would make
	// every subprocess start fail with a missing-file launch error.
	if cfg.ModelsDir != filepath.Join(home, "gguf") {
		t.Fatalf("models dir = %q", cfg.ModelsDir)
	}
	if cfg.ServerBin != filepath.Join(home, "bin", "llama-server") {
		t.Fatalf("server bin = %q", cfg.ServerBin)
	}

	// Absolute paths pass through untouched.
	cfg, err = loadConfig(serveFlags{modelsDir: "/srv/models"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ModelsDir != "/srv/models" {
		t.Fatalf("models dir = %q", cfg.ModelsDir)
	}
}
