package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"tutord/internal/genparams"
	"tutord/internal/history"
	"tutord/internal/language"
	"tutord/internal/manager"
	"tutord/internal/registry"
	"tutord/pkg/types"
)

// handleChat godoc
// @Summary Send one tutoring message
// @Accept json
// @Produce json
// @Param request body types.ChatRequest true "message"
// @Success 200 {object} types.ChatResponse
// @Failure 503 {object} types.ErrorResponse "no chat model is ready"
// @Router /api/chat [post]
func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSONError(w, http.StatusBadRequest, "message is required")
		return
	}
	lang := req.Language
	if lang == "" {
		lang = "en"
	}
	if !language.IsSupported(lang) {
		writeJSONError(w, http.StatusBadRequest, "unsupported language: "+lang)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = history.NewSessionID()
		chatSessionsTotal.Inc()
	}

	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = language.SystemPrompt(lang)
	}

	params := genparams.Derive(req.Message, genparams.Requested{
		MaxNewTokens: req.MaxNewTokens,
		Temperature:  req.Temperature,
		TopP:         req.TopP,
	})

	var turns []manager.Turn
	if s.hist != nil {
		turns = s.hist.Context(sessionID)
		if !genparams.IncludeHistory(req.Message, len(turns) > 0) {
			turns = nil
		}
	}

	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if chatTimeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, time.Duration(chatTimeout)*time.Second)
		defer tcancel()
	}

	start := time.Now()
	if lvl := requestLogLevel(r); lvl >= LevelInfo && zlog != nil {
		z := zlog.Info().Str("session", sessionID).Str("language", lang)
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		z.Msg("chat start")
	}

	out, err := s.svc.Generate(ctx, registry.RoleChat, manager.GenerationRequest{
		Message:      req.Message,
		MaxNewTokens: params.MaxNewTokens,
		Temperature:  params.Temperature,
		TopP:         params.TopP,
		SystemPrompt: systemPrompt,
		History:      turns,
		Language:     lang,
	})
	if err != nil {
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			return
		}
		writeManagerError(w, err)
		return
	}

	if s.hist != nil {
		s.hist.Record(sessionID, req.Message, out.Text)
	}
	if lvl := requestLogLevel(r); lvl >= LevelInfo && zlog != nil {
		zlog.Info().Str("session", sessionID).Dur("dur", time.Since(start)).
			Int("tokens", out.TokensGenerated).Msg("chat end")
	}

	writeJSON(w, types.ChatResponse{
		Response:        out.Text,
		SessionID:       sessionID,
		TokensGenerated: out.TokensGenerated,
		DurationSeconds: out.Duration.Seconds(),
	})
}

// handleEvaluate grades a free-standing answer outside lesson flow.
func (s *server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if s.eval == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "evaluation is not configured")
		return
	}
	var req types.EvaluateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.StudentAnswer) == "" {
		writeJSONError(w, http.StatusBadRequest, "student_answer is required")
		return
	}

	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	res := s.eval.Evaluate(ctx, req.Question, req.StudentAnswer, req.ExpectedAnswer, req.Criteria)
	writeJSON(w, types.EvaluateResponse{
		Correct:    res.Correct,
		Confidence: res.Confidence,
		Feedback:   res.Feedback,
	})
}

// handleLanguages lists the supported language table with greetings.
func (s *server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	infos := language.Supported()
	out := make([]map[string]string, 0, len(infos))
	for _, l := range infos {
		out = append(out, map[string]string{
			"code":     l.Code,
			"name":     l.Name,
			"native":   l.Native,
			"flag":     l.Flag,
			"greeting": language.Greeting(l.Code),
		})
	}
	writeJSON(w, map[string]any{"languages": out})
}
