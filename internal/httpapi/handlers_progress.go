package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"tutord/pkg/types"
)

func (s *server) handleProgressStart(w http.ResponseWriter, r *http.Request) {
	var req types.ProgressStartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeJSONError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if s.les != nil && !s.lessonExists(req.Grade, req.Subject, req.Lesson) {
		writeJSONError(w, http.StatusNotFound, "lesson not found")
		return
	}
	lp, err := s.prog.StartLesson(req.UserID, req.Grade, req.Subject, req.Lesson)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, lp)
}

func (s *server) lessonExists(grade, subject, lessonID string) bool {
	for _, l := range s.les.Lessons(grade, subject) {
		if l.ID == lessonID {
			return true
		}
	}
	return false
}

func (s *server) handleProgressSection(w http.ResponseWriter, r *http.Request) {
	var req types.SectionUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeJSONError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	status := req.Status
	if status == "" {
		status = "in_progress"
	}
	lp, err := s.prog.UpdateSection(req.UserID, req.Grade, req.Subject, req.Lesson, req.Section, status)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, lp)
}

func (s *server) handleProgressComplete(w http.ResponseWriter, r *http.Request) {
	var req types.ProgressStartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeJSONError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	lp, err := s.prog.CompleteLesson(req.UserID, req.Grade, req.Subject, req.Lesson)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if lp == nil {
		writeJSONError(w, http.StatusNotFound, "lesson was never started")
		return
	}
	writeJSON(w, lp)
}

func (s *server) handleStudyTime(w http.ResponseWriter, r *http.Request) {
	var req types.StudyTimeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeJSONError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Minutes <= 0 {
		writeJSONError(w, http.StatusBadRequest, "minutes must be positive")
		return
	}
	if err := s.prog.AddStudyTime(req.UserID, req.Grade, req.Subject, req.Lesson, req.Minutes); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *server) handleUserProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.prog.UserProgress(chi.URLParam(r, "user"))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, p)
}

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.prog.DashboardStats(chi.URLParam(r, "user"))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, d)
}

func (s *server) handleCompleted(w http.ResponseWriter, r *http.Request) {
	done, err := s.prog.CompletedLessons(chi.URLParam(r, "user"))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"completed": done})
}

func (s *server) handleDeleteProgress(w http.ResponseWriter, r *http.Request) {
	removed, err := s.prog.DeleteUser(chi.URLParam(r, "user"))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		writeJSONError(w, http.StatusNotFound, "no progress for user")
		return
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}
