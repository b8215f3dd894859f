package manager

import (
	"strings"

	"tutord/internal/registry"
)

// maxHistoryMessages bounds prompt growth: the last 3 exchanges
// (6 messages), oldest dropped first.
const maxHistoryMessages = 6

const defaultSystemPrompt = "You are a helpful AI tutor. Think through problems " +
	"step-by-step internally, but provide only clear, direct answers to the user " +
	"without showing your reasoning process."

// truncateHistory keeps the most recent maxHistoryMessages turns.
func truncateHistory(turns []Turn) []Turn {
	if len(turns) <= maxHistoryMessages {
		return turns
	}
	return turns[len(turns)-maxHistoryMessages:]
}

// buildPrompt renders the canonical request into the family's native
// markup and returns the prompt plus the stop sequences to pass to the
// backend.
func buildPrompt(format registry.PromptFormat, req GenerationRequest) (string, []string) {
	switch format {
	case registry.PromptChannels:
		return buildChannelPrompt(req)
	case registry.PromptRoleHeaders:
		return buildRoleHeaderPrompt(req)
	default:
		return buildInstructPrompt(req)
	}
}

func systemPromptOf(req GenerationRequest) string {
	if req.SystemPrompt != "" {
		return req.SystemPrompt
	}
	return defaultSystemPrompt
}

// buildChannelPrompt renders gpt-oss channel-tag markup. Assistant
// history is replayed on the final channel so no reasoning leaks back
// into context.
func buildChannelPrompt(req GenerationRequest) (string, []string) {
	var b strings.Builder
	b.WriteString("<|start|>system<|message|>")
	b.WriteString(systemPromptOf(req))
	b.WriteString("<|end|>")
	for _, t := range truncateHistory(req.History) {
		switch t.Role {
		case "user":
			b.WriteString("<|start|>user<|message|>")
			b.WriteString(t.Content)
			b.WriteString("<|end|>")
		case "assistant":
			b.WriteString("<|start|>assistant<|channel|>final<|message|>")
			b.WriteString(t.Content)
			b.WriteString("<|end|>")
		}
	}
	b.WriteString("<|start|>user<|message|>")
	b.WriteString(req.Message)
	b.WriteString("<|end|>")
	// The model appends its own channel tags after this.
	b.WriteString("<|start|>assistant")
	return b.String(), []string{"<|end|>", "<|start|>user"}
}

// buildRoleHeaderPrompt renders llama-3 role-header markup.
func buildRoleHeaderPrompt(req GenerationRequest) (string, []string) {
	var b strings.Builder
	b.WriteString("<|begin_of_text|>")
	b.WriteString("<|start_header_id|>system<|end_header_id|>\n\n")
	b.WriteString(systemPromptOf(req))
	b.WriteString("<|eot_id|>")
	for _, t := range truncateHistory(req.History) {
		if t.Role != "user" && t.Role != "assistant" {
			continue
		}
		b.WriteString("<|start_header_id|>")
		b.WriteString(t.Role)
		b.WriteString("<|end_header_id|>\n\n")
		b.WriteString(t.Content)
		b.WriteString("<|eot_id|>")
	}
	b.WriteString("<|start_header_id|>user<|end_header_id|>\n\n")
	b.WriteString(req.Message)
	b.WriteString("<|eot_id|>")
	b.WriteString("<|start_header_id|>assistant<|end_header_id|>\n\n")
	return b.String(), []string{"<|eot_id|>"}
}

// buildInstructPrompt renders mistral/phi [INST] instruction brackets.
// History is folded into paired INST blocks preceding the current turn.
func buildInstructPrompt(req GenerationRequest) (string, []string) {
	var b strings.Builder
	b.WriteString("<s>")
	history := truncateHistory(req.History)
	var pendingUser string
	wrotePair := false
	for _, t := range history {
		switch t.Role {
		case "user":
			pendingUser = t.Content
		case "assistant":
			b.WriteString("[INST] ")
			if !wrotePair {
				b.WriteString(systemPromptOf(req))
				b.WriteString("\n\n")
				wrotePair = true
			}
			b.WriteString(pendingUser)
			b.WriteString(" [/INST] ")
			b.WriteString(t.Content)
			b.WriteString("</s>")
			pendingUser = ""
		}
	}
	b.WriteString("[INST] ")
	if !wrotePair {
		b.WriteString(systemPromptOf(req))
		b.WriteString("\n\n")
	}
	b.WriteString(req.Message)
	b.WriteString(" [/INST]")
	return b.String(), []string{"</s>", "[INST]"}
}
