package registry

// Builtin returns the descriptor table for the models this deployment
// knows how to run. VRAM figures are estimates for the quantizations
// listed in ModelFile.
func Builtin() []Descriptor {
	return []Descriptor{
		{
			Key:              "gpt-oss-20b",
			DisplayName:      "GPT-OSS 20B (GGUF)",
			VRAMEstimateMB:   14200,
			Backend:          BackendSubprocess,
			Exclusive:        true,
			Roles:            []Role{RoleChat, RoleEvaluation},
			ReasoningCapable: true,
			Prompt:           PromptChannels,
			ModelFile:        "gpt-oss-20b-Q8_0.gguf",
			Port:             8081,
			ContextSize:      2048,
		},
		{
			Key:            "llama-3.1-8b",
			DisplayName:    "Llama 3.1 8B Instruct",
			VRAMEstimateMB: 5400,
			Backend:        BackendSubprocess,
			Roles:          []Role{RoleChat},
			Prompt:         PromptRoleHeaders,
			ModelFile:      "Meta-Llama-3.1-8B-Instruct-Q5_K_S.gguf",
			Port:           8082,
			ContextSize:    4096,
		},
		{
			Key:            "mistral-7b-v0.3",
			DisplayName:    "Mistral 7B v0.3",
			VRAMEstimateMB: 7200,
			Backend:        BackendInProcess,
			Roles:          []Role{RoleEvaluation},
			Prompt:         PromptInstruct,
			ModelFile:      "Mistral-7B-Instruct-v0.3-Q4_K_M.gguf",
			ContextSize:    2048,
			MinRuntime:     "4.45",
		},
		{
			Key:            "phi-3.5",
			DisplayName:    "Phi 3.5 Mini (3.8B)",
			VRAMEstimateMB: 4600,
			Backend:        BackendInProcess,
			Roles:          []Role{RoleChat},
			Prompt:         PromptInstruct,
			ModelFile:      "Phi-3.5-mini-instruct-Q4_K_M.gguf",
			ContextSize:    4096,
			MinRuntime:     "4.45",
		},
	}
}
