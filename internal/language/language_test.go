package language

import (
	"strings"
	"testing"
)

func TestSupportedTableComplete(t *testing.T) {
	langs := Supported()
	if len(langs) != 13 {
		t.Fatalf("supported languages = %d, want 13", len(langs))
	}
	for _, l := range langs {
		if !IsSupported(l.Code) {
			t.Fatalf("IsSupported(%q) = false", l.Code)
		}
		if _, ok := instructions[l.Code]; !ok {
			t.Fatalf("no instruction for %q", l.Code)
		}
		if _, ok := greetings[l.Code]; !ok {
			t.Fatalf("no greeting for %q", l.Code)
		}
	}
	if IsSupported("xx") {
		t.Fatal("IsSupported(xx) = true")
	}
}

func TestSystemPromptCombinesRulesAndInstruction(t *testing.T) {
	p := SystemPrompt("es")
	if !strings.Contains(p, "NEVER ask a question back") {
		t.Fatal("core rules missing from system prompt")
	}
	if !strings.Contains(p, "DEBES responder SOLO en español") {
		t.Fatal("spanish instruction missing from system prompt")
	}
}

func TestSystemPromptUnknownFallsBackToEnglish(t *testing.T) {
	if got, want := SystemPrompt("xx"), SystemPrompt("en"); got != want {
		t.Fatal("unknown language did not fall back to English")
	}
}

func TestGreeting(t *testing.T) {
	if got := Greeting("fr"); !strings.Contains(got, "Bonjour") {
		t.Fatalf("Greeting(fr) = %q", got)
	}
	if got, want := Greeting("xx"), Greeting("en"); got != want {
		t.Fatal("unknown language did not fall back to English greeting")
	}
}

func TestDetect(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"what is 2+2", "en"},
		{"你好，今天学什么？", "zh"},
		{"こんにちは", "ja"},
		{"안녕하세요", "ko"},
		{"مرحبا", "ar"},
		{"नमस्ते", "hi"},
		{"привет", "ru"},
		{"ഹലോ", "ml"},
		{"", "en"},
	}
	for _, tc := range cases {
		if got := Detect(tc.text); got != tc.want {
			t.Fatalf("Detect(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}
