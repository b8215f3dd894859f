// Package genparams maps request characteristics to generation
// parameters. Short questions get tight token budgets and low
// temperatures so small talk does not ramble; long questions keep the
// caller's budget within global bounds.
package genparams

import "strings"

// Global bounds.
const (
	MaxTokensCeiling = 2048
	MinTemperature   = 0.1
	MaxTemperature   = 1.0
)

// Tier limits, first match wins.
const (
	greetingMaxTokens = 80
	greetingTemp      = 0.3
	shortMaxTokens    = 200
	shortTemp         = 0.5
	mediumMaxTokens   = 400
	mediumTempCap     = 0.7
)

var greetingTokens = []string{
	"hello", "hi", "hey", "thanks", "thank you", "bye", "goodbye",
}

// explanationMarkers flag a message that needs prior context.
var explanationMarkers = []string{
	"explain", "why", "how", "what about", "elaborate", "again",
}

// EffectiveParams is the derived per-call parameter set.
type EffectiveParams struct {
	MaxNewTokens int
	Temperature  float64
	TopP         float64
}

// Requested carries the caller-supplied overrides before derivation.
type Requested struct {
	MaxNewTokens int
	Temperature  float64
	TopP         float64
}

// Derive applies the ordered sizing rules to the message. Zero-valued
// requested fields fall back to defaults (512 tokens, 0.7 temperature,
// 0.9 top_p) before the rules run.
func Derive(message string, req Requested) EffectiveParams {
	if req.MaxNewTokens <= 0 {
		req.MaxNewTokens = 512
	}
	if req.Temperature <= 0 {
		req.Temperature = 0.7
	}
	if req.TopP <= 0 {
		req.TopP = 0.9
	}

	words := wordCount(message)
	lower := strings.ToLower(strings.TrimSpace(message))
	out := EffectiveParams{TopP: clamp(req.TopP, 0.1, 1.0)}

	switch {
	case words <= 5 && containsAny(lower, greetingTokens):
		out.MaxNewTokens = greetingMaxTokens
		out.Temperature = greetingTemp
	case words <= 10:
		out.MaxNewTokens = minInt(req.MaxNewTokens, shortMaxTokens)
		out.Temperature = shortTemp
	case words <= 25:
		out.MaxNewTokens = minInt(req.MaxNewTokens, mediumMaxTokens)
		out.Temperature = clamp(req.Temperature, MinTemperature, mediumTempCap)
	default:
		out.MaxNewTokens = minInt(req.MaxNewTokens, MaxTokensCeiling)
		out.Temperature = clamp(req.Temperature, MinTemperature, MaxTemperature)
	}
	return out
}

// IncludeHistory decides whether prior turns belong in the prompt.
// History is dropped only for standalone arithmetic/greeting-style
// messages that carry no explanation marker and have no history yet;
// a message that might be a follow-up never loses its context.
func IncludeHistory(message string, hasHistory bool) bool {
	if hasHistory {
		return true
	}
	lower := strings.ToLower(strings.TrimSpace(message))
	if containsAny(lower, explanationMarkers) {
		return true
	}
	words := wordCount(message)
	if words <= 5 && containsAny(lower, greetingTokens) {
		return false
	}
	if isArithmetic(lower) {
		return false
	}
	return true
}

// isArithmetic matches bare calculations like "7*6" or "12 + 5".
func isArithmetic(s string) bool {
	if s == "" {
		return false
	}
	seenOp := false
	seenDigit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '^' || r == '=' ||
			r == '(' || r == ')' || r == '.' || r == ' ' || r == '?':
			if r == '+' || r == '-' || r == '*' || r == '/' || r == '^' {
				seenOp = true
			}
		default:
			return false
		}
	}
	return seenDigit && seenOp
}

func wordCount(s string) int { return len(strings.Fields(s)) }

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
