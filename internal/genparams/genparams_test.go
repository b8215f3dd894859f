package genparams

import "testing"

func TestDeriveGreeting(t *testing.T) {
	got := Derive("hello there", Requested{MaxNewTokens: 1024, Temperature: 0.9})
	if got.MaxNewTokens != greetingMaxTokens {
		t.Fatalf("tokens = %d, want %d", got.MaxNewTokens, greetingMaxTokens)
	}
	if got.Temperature != greetingTemp {
		t.Fatalf("temp = %v, want %v", got.Temperature, greetingTemp)
	}
}

func TestDeriveShortQuestion(t *testing.T) {
	got := Derive("what is seven times six", Requested{MaxNewTokens: 1024})
	if got.MaxNewTokens != shortMaxTokens {
		t.Fatalf("tokens = %d, want %d", got.MaxNewTokens, shortMaxTokens)
	}
	if got.Temperature != shortTemp {
		t.Fatalf("temp = %v, want %v", got.Temperature, shortTemp)
	}
}

func TestDeriveShortQuestionKeepsSmallerRequest(t *testing.T) {
	got := Derive("what is seven times six", Requested{MaxNewTokens: 64, Temperature: 0.7})
	if got.MaxNewTokens != 64 {
		t.Fatalf("tokens = %d, want 64", got.MaxNewTokens)
	}
}

func TestDeriveMediumQuestionCapsTemperature(t *testing.T) {
	msg := "can you walk me through the steps for adding two fractions with different denominators please"
	got := Derive(msg, Requested{MaxNewTokens: 4096, Temperature: 0.95})
	if got.MaxNewTokens != mediumMaxTokens {
		t.Fatalf("tokens = %d, want %d", got.MaxNewTokens, mediumMaxTokens)
	}
	if got.Temperature != mediumTempCap {
		t.Fatalf("temp = %v, want %v", got.Temperature, mediumTempCap)
	}
}

func TestDeriveLongMessageClampsToCeiling(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "word "
	}
	got := Derive(long, Requested{MaxNewTokens: 9000, Temperature: 1.5})
	if got.MaxNewTokens != MaxTokensCeiling {
		t.Fatalf("tokens = %d, want %d", got.MaxNewTokens, MaxTokensCeiling)
	}
	if got.Temperature != MaxTemperature {
		t.Fatalf("temp = %v, want %v", got.Temperature, MaxTemperature)
	}
}

func TestDeriveDefaultsOnZeroRequest(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "word "
	}
	got := Derive(long, Requested{})
	if got.MaxNewTokens != 512 {
		t.Fatalf("tokens = %d, want 512", got.MaxNewTokens)
	}
	if got.Temperature != 0.7 {
		t.Fatalf("temp = %v, want 0.7", got.Temperature)
	}
	if got.TopP != 0.9 {
		t.Fatalf("top_p = %v, want 0.9", got.TopP)
	}
}

func TestIncludeHistory(t *testing.T) {
	cases := []struct {
		name       string
		message    string
		hasHistory bool
		want       bool
	}{
		{"greeting no history", "hi", false, false},
		{"greeting with history", "hi", true, true},
		{"bare arithmetic", "7*6", false, false},
		{"arithmetic with question mark", "12 + 5 ?", false, false},
		{"explanation marker", "why is that", false, true},
		{"how marker", "how does photosynthesis work", false, true},
		{"ordinary question", "name the capital of france", false, true},
		{"follow-up keeps context", "what about 9", true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IncludeHistory(tc.message, tc.hasHistory); got != tc.want {
				t.Fatalf("IncludeHistory(%q, %v) = %v, want %v", tc.message, tc.hasHistory, got, tc.want)
			}
		})
	}
}
