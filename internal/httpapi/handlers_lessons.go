package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"tutord/internal/evaluator"
	"tutord/pkg/types"
)

func (s *server) handleGrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"grades": s.les.Grades()})
}

func (s *server) handleSubjects(w http.ResponseWriter, r *http.Request) {
	grade := chi.URLParam(r, "grade")
	writeJSON(w, map[string]any{"grade": grade, "subjects": s.les.Subjects(grade)})
}

func (s *server) handleLessonList(w http.ResponseWriter, r *http.Request) {
	grade := chi.URLParam(r, "grade")
	subject := chi.URLParam(r, "subject")
	writeJSON(w, map[string]any{
		"grade":   grade,
		"subject": subject,
		"lessons": s.les.Lessons(grade, subject),
	})
}

func (s *server) handleLesson(w http.ResponseWriter, r *http.Request) {
	lesson := s.les.Lesson(chi.URLParam(r, "grade"), chi.URLParam(r, "subject"), chi.URLParam(r, "lesson"))
	if lesson == nil {
		writeJSONError(w, http.StatusNotFound, "lesson not found")
		return
	}
	writeJSON(w, lesson)
}

func (s *server) handleSection(w http.ResponseWriter, r *http.Request) {
	section := s.les.Section(
		chi.URLParam(r, "grade"), chi.URLParam(r, "subject"),
		chi.URLParam(r, "lesson"), chi.URLParam(r, "section"))
	if section == nil {
		writeJSONError(w, http.StatusNotFound, "section not found")
		return
	}
	writeJSON(w, section)
}

func (s *server) handleNextLessons(w http.ResponseWriter, r *http.Request) {
	next := s.les.NextLessons(chi.URLParam(r, "grade"), chi.URLParam(r, "subject"), chi.URLParam(r, "lesson"))
	writeJSON(w, map[string]any{"next_lessons": next})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSONError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	writeJSON(w, map[string]any{"results": s.les.Search(q)})
}

// handleAnswer grades a lesson question and records the outcome in the
// student's progress when a user id is supplied.
func (s *server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req types.AnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		writeJSONError(w, http.StatusBadRequest, "answer is required")
		return
	}
	q := s.les.Question(req.Grade, req.Subject, req.Lesson, req.Section, req.Question)
	if q == nil {
		writeJSONError(w, http.StatusNotFound, "question not found")
		return
	}

	criteria := append([]string{q.ExpectedAnswer}, q.EvaluationCriteria...)

	var resp types.AnswerResponse
	if req.UseAI && s.eval != nil {
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		res := s.eval.Evaluate(ctx, q.Question, req.Answer, q.ExpectedAnswer, criteria)
		resp = types.AnswerResponse{
			Correct:        res.Correct,
			Confidence:     res.Confidence,
			Feedback:       res.Feedback,
			ExpectedAnswer: res.ExpectedAnswer,
		}
	} else {
		correct, confidence := evaluator.EvaluateSimple(req.Answer, criteria)
		resp = types.AnswerResponse{Correct: correct, Confidence: confidence}
		if correct {
			resp.Feedback = "Excellent! That's correct!"
		} else {
			resp.Feedback = "Not quite right. Would you like a hint?"
			resp.ExpectedAnswer = q.ExpectedAnswer
		}
	}

	if s.prog != nil && req.UserID != "" {
		if _, err := s.prog.RecordAnswer(req.UserID, req.Grade, req.Subject, req.Lesson, req.Question, resp.Correct, req.HintsUsed); err != nil {
			s.log.Warn().Err(err).Str("user", req.UserID).Msg("failed to record answer")
		}
	}
	writeJSON(w, resp)
}

func (s *server) handleHint(w http.ResponseWriter, r *http.Request) {
	var req types.HintRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	q := s.les.Question(req.Grade, req.Subject, req.Lesson, req.Section, req.Question)
	if q == nil {
		writeJSONError(w, http.StatusNotFound, "question not found")
		return
	}
	if s.eval == nil {
		writeJSON(w, types.HintResponse{Hint: predefined(q.Hints, req.HintLevel)})
		return
	}
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	hint := s.eval.Hint(ctx, q.Question, q.ExpectedAnswer, q.Hints, req.HintLevel, req.StudentAnswer)
	if hint == evaluator.CloseQuiz {
		writeJSON(w, types.HintResponse{CloseQuiz: true})
		return
	}
	writeJSON(w, types.HintResponse{Hint: hint})
}

func predefined(hints []string, level int) string {
	if level >= 0 && level < len(hints) {
		return hints[level]
	}
	return "No more hints available. Try your best!"
}
