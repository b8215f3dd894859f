// Package extract pulls the user-facing final answer out of raw
// reasoning-model output. The models are asked to separate their
// deliberation from the answer with channel tags, but the delimiter is
// not always honored verbatim, so this is a heuristic boundary
// detector rather than a parser: lines are classified as "still
// reasoning" while they contain meta-discursive phrases, and the first
// clean line starts the answer. The policy tolerates false positives
// in phrase matching rather than risk truncating a legitimate answer
// to empty.
package extract

import "strings"

// metaPhrases mark a line as reasoning self-talk rather than answer.
var metaPhrases = []string{
	"we need to", "we should", "i need to", "i should",
	"let me", "let's", "so we", "thus we",
	"the student's answer", "the student answer",
	"the correct answer is", "the answer is",
	"the difference", "wait", "actually",
	"spelled", " vs ", "missing the",
	"the hint should", "give a hint", "provide a hint",
}

// literal template tags some models echo back.
var templateTags = []string{
	"<|channel|>analysis<|message|>",
	"<|channel|>final<|message|>",
	"<|end|>",
}

// FinalAnswer returns the answer portion of raw reasoning-model output.
// It never returns an empty string for non-empty input: when every line
// looks like reasoning, the full text is returned unchanged.
func FinalAnswer(raw string) string {
	for _, tag := range templateTags {
		raw = strings.ReplaceAll(raw, tag, "")
	}
	raw = strings.TrimSpace(raw)

	lines := strings.Split(raw, "\n")
	start := 0
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isReasoningLine(line) {
			start = i + 1
			continue
		}
		// First line free of meta-phrases: the answer begins here.
		start = i
		break
	}

	var answer []string
	for _, line := range lines[min(start, len(lines)):] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		answer = append(answer, line)
	}
	if len(answer) == 0 {
		// Every line matched the phrase set; degrade to the full text.
		return raw
	}
	return strings.Join(answer, "\n")
}

func isReasoningLine(line string) bool {
	lower := strings.ToLower(line)
	for _, phrase := range metaPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
