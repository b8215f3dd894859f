package types

// ChatRequest is the payload for POST /api/chat.
type ChatRequest struct {
	// Optional session identifier. If empty, a new session is created
	// and its id is echoed back in the response.
	// example: 6e1c7a8e-1f1e-4f86-9b51-33b54f0f17a4
	SessionID string `json:"session_id,omitempty" example:"6e1c7a8e-1f1e-4f86-9b51-33b54f0f17a4"`
	// Required user message.
	// example: Explain why the sky is blue.
	Message string `json:"message" example:"Explain why the sky is blue."`
	// Optional language code for the tutor's reply (default "en").
	// example: es
	Language string `json:"language,omitempty" example:"es"`
	// Requested maximum number of new tokens. The server may lower this
	// for short messages and clamps it to a global maximum.
	// example: 512
	MaxNewTokens int `json:"max_new_tokens,omitempty" example:"512"`
	// Sampling temperature, clamped to [0.1, 1.0].
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty" example:"0.7"`
	// Nucleus sampling probability.
	// example: 0.9
	TopP float64 `json:"top_p,omitempty" example:"0.9"`
	// Optional system prompt override. When empty the server builds one
	// from the tutor rules and the requested language.
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// ChatResponse is returned by POST /api/chat.
type ChatResponse struct {
	// Final answer text (reasoning traces already stripped for
	// reasoning-capable models).
	Response string `json:"response"`
	// Session identifier for follow-up requests.
	SessionID string `json:"session_id"`
	// Number of tokens generated by the backend, when reported.
	// example: 142
	TokensGenerated int `json:"tokens_generated" example:"142"`
	// Wall-clock generation time in seconds.
	// example: 3.52
	DurationSeconds float64 `json:"duration_seconds" example:"3.52"`
}

// ActivateRequest selects a model for a role.
type ActivateRequest struct {
	// Registry key of the model to activate.
	// example: gpt-oss-20b
	Model string `json:"model" example:"gpt-oss-20b"`
	// Role to bind: "chat" or "evaluation".
	// example: chat
	Role string `json:"role" example:"chat"`
}

// ActivateResponse reports a successful activation.
type ActivateResponse struct {
	Model string `json:"model"`
	Role  string `json:"role"`
	// Backend endpoint for subprocess-server models, empty for
	// in-process ones.
	// example: http://127.0.0.1:8081
	Endpoint string `json:"endpoint,omitempty" example:"http://127.0.0.1:8081"`
	// Seconds spent loading until the backend reported healthy.
	// example: 74.8
	LoadSeconds float64 `json:"load_seconds" example:"74.8"`
}

// DeactivateRequest unloads one model.
type DeactivateRequest struct {
	// Registry key of the model to unload.
	// example: gpt-oss-20b
	Model string `json:"model" example:"gpt-oss-20b"`
}

// EvaluateRequest asks the evaluation model to judge a student answer.
type EvaluateRequest struct {
	Question       string   `json:"question"`
	StudentAnswer  string   `json:"student_answer"`
	ExpectedAnswer string   `json:"expected_answer"`
	// Acceptable answer variations checked before involving the model.
	Criteria []string `json:"criteria,omitempty"`
}

// EvaluateResponse is the evaluation verdict.
type EvaluateResponse struct {
	Correct    bool    `json:"correct"`
	Confidence float64 `json:"confidence"`
	Feedback   string  `json:"feedback"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: unknown model: gpt-7b
	Error string `json:"error" example:"unknown model: gpt-7b"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}
