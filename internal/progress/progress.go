// Package progress persists per-student learning progress as one JSON
// file per user. Files are small and rewritten whole on every update;
// a process-wide mutex keeps concurrent handlers from interleaving the
// read-modify-write cycle.
package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tutord/internal/common/fsutil"
)

// QuestionProgress records every attempt at one question.
type QuestionProgress struct {
	Correct             bool   `json:"correct"`
	Attempts            int    `json:"attempts"`
	HintsUsed           int    `json:"hints_used"`
	FirstAttemptCorrect bool   `json:"first_attempt_correct"`
	AnsweredAt          string `json:"answered_at,omitempty"`
}

// LessonProgress is the state of one lesson for one user.
type LessonProgress struct {
	Grade             string                       `json:"grade"`
	Subject           string                       `json:"subject"`
	LessonID          string                       `json:"lesson_id"`
	Status            string                       `json:"status"`
	StartedAt         string                       `json:"started_at"`
	CompletedAt       string                       `json:"completed_at,omitempty"`
	CurrentSection    string                       `json:"current_section,omitempty"`
	SectionsCompleted []string                     `json:"sections_completed"`
	QuestionsAnswered map[string]*QuestionProgress `json:"questions_answered"`
	TotalScore        float64                      `json:"total_score"`
	TotalQuestions    int                          `json:"total_questions"`
	TimeSpentMinutes  int                          `json:"time_spent_minutes"`
}

// Stats are the running totals across all of a user's lessons.
type Stats struct {
	LessonsStarted    int `json:"total_lessons_started"`
	LessonsCompleted  int `json:"total_lessons_completed"`
	SectionsCompleted int `json:"total_sections_completed"`
	QuestionsAnswered int `json:"total_questions_answered"`
	QuestionsCorrect  int `json:"total_questions_correct"`
	TimeMinutes       int `json:"total_time_minutes"`
}

// UserProgress is the full on-disk record for one user.
type UserProgress struct {
	UserID     string                     `json:"user_id"`
	CreatedAt  string                     `json:"created_at"`
	LastActive string                     `json:"last_active"`
	Lessons    map[string]*LessonProgress `json:"lessons"`
	Stats      Stats                      `json:"stats"`
}

// Dashboard is the derived summary for the student dashboard.
type Dashboard struct {
	UserID            string  `json:"user_id"`
	CreatedAt         string  `json:"created_at"`
	LastActive        string  `json:"last_active"`
	LessonsStarted    int     `json:"lessons_started"`
	LessonsCompleted  int     `json:"lessons_completed"`
	CompletionRate    float64 `json:"completion_rate"`
	SectionsCompleted int     `json:"sections_completed"`
	QuestionsAnswered int     `json:"questions_answered"`
	QuestionsCorrect  int     `json:"questions_correct"`
	Accuracy          float64 `json:"accuracy"`
	TimeSpentMinutes  int     `json:"time_spent_minutes"`
}

// SubjectProgress groups a user's lessons within one grade/subject.
type SubjectProgress struct {
	Grade            string                     `json:"grade"`
	Subject          string                     `json:"subject"`
	Lessons          map[string]*LessonProgress `json:"lessons"`
	TotalLessons     int                        `json:"total_lessons"`
	CompletedLessons int                        `json:"completed_lessons"`
}

// Tracker reads and writes user progress files under a directory.
type Tracker struct {
	dir string
	log zerolog.Logger
	mu  sync.Mutex
	now func() time.Time
}

// New prepares the progress directory, creating it if absent.
func New(dir string, log zerolog.Logger) (*Tracker, error) {
	expanded, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return nil, fmt.Errorf("create progress dir: %w", err)
	}
	return &Tracker{
		dir: expanded,
		log: log.With().Str("component", "progress").Logger(),
		now: time.Now,
	}, nil
}

// userFile maps a user id to its file, replacing anything outside
// [A-Za-z0-9-_] so ids cannot escape the progress directory.
func (t *Tracker) userFile(userID string) string {
	safe := make([]rune, 0, len(userID))
	for _, r := range userID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			safe = append(safe, r)
		default:
			safe = append(safe, '_')
		}
	}
	return filepath.Join(t.dir, string(safe)+".json")
}

func lessonKey(grade, subject, lessonID string) string {
	return grade + "/" + subject + "/" + lessonID
}

func (t *Tracker) load(userID string) (*UserProgress, error) {
	path := t.userFile(userID)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		ts := t.now().Format(time.RFC3339)
		return &UserProgress{
			UserID:     userID,
			CreatedAt:  ts,
			LastActive: ts,
			Lessons:    make(map[string]*LessonProgress),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress: %w", err)
	}
	var p UserProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse progress %s: %w", path, err)
	}
	if p.Lessons == nil {
		p.Lessons = make(map[string]*LessonProgress)
	}
	return &p, nil
}

func (t *Tracker) save(userID string, p *UserProgress) error {
	p.LastActive = t.now().Format(time.RFC3339)
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	path := t.userFile(userID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return os.Rename(tmp, path)
}

// StartLesson marks a lesson as started. Starting an already-started
// lesson is a no-op that returns the existing record.
func (t *Tracker) StartLesson(userID, grade, subject, lessonID string) (*LessonProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.load(userID)
	if err != nil {
		return nil, err
	}
	lp := t.ensureLessonLocked(p, grade, subject, lessonID)
	if err := t.save(userID, p); err != nil {
		return nil, err
	}
	return lp, nil
}

func (t *Tracker) ensureLessonLocked(p *UserProgress, grade, subject, lessonID string) *LessonProgress {
	key := lessonKey(grade, subject, lessonID)
	if lp, ok := p.Lessons[key]; ok {
		return lp
	}
	lp := &LessonProgress{
		Grade:             grade,
		Subject:           subject,
		LessonID:          lessonID,
		Status:            "in_progress",
		StartedAt:         t.now().Format(time.RFC3339),
		SectionsCompleted: []string{},
		QuestionsAnswered: make(map[string]*QuestionProgress),
	}
	p.Lessons[key] = lp
	p.Stats.LessonsStarted++
	return lp
}

// UpdateSection records the user's position within a lesson and counts
// each section completion once.
func (t *Tracker) UpdateSection(userID, grade, subject, lessonID, sectionID, status string) (*LessonProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.load(userID)
	if err != nil {
		return nil, err
	}
	lp := t.ensureLessonLocked(p, grade, subject, lessonID)
	lp.CurrentSection = sectionID
	if status == "completed" && !contains(lp.SectionsCompleted, sectionID) {
		lp.SectionsCompleted = append(lp.SectionsCompleted, sectionID)
		p.Stats.SectionsCompleted++
	}
	if err := t.save(userID, p); err != nil {
		return nil, err
	}
	return lp, nil
}

// RecordAnswer logs one answer attempt. A question counts as correct at
// most once in the running totals no matter how often it is re-answered.
func (t *Tracker) RecordAnswer(userID, grade, subject, lessonID, questionID string, correct bool, hintsUsed int) (*QuestionProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.load(userID)
	if err != nil {
		return nil, err
	}
	lp := t.ensureLessonLocked(p, grade, subject, lessonID)

	qp, ok := lp.QuestionsAnswered[questionID]
	if !ok {
		qp = &QuestionProgress{}
		lp.QuestionsAnswered[questionID] = qp
	}
	qp.Attempts++
	if hintsUsed > qp.HintsUsed {
		qp.HintsUsed = hintsUsed
	}
	if correct && !qp.Correct {
		qp.Correct = true
		qp.AnsweredAt = t.now().Format(time.RFC3339)
		if qp.Attempts == 1 && hintsUsed == 0 {
			qp.FirstAttemptCorrect = true
		}
		p.Stats.QuestionsCorrect++
	}
	p.Stats.QuestionsAnswered++

	if err := t.save(userID, p); err != nil {
		return nil, err
	}
	return qp, nil
}

// CompleteLesson finalizes a lesson, computing its score as percent of
// answered questions that were correct. Completing an unstarted lesson
// returns nil; completing twice does not recount.
func (t *Tracker) CompleteLesson(userID, grade, subject, lessonID string) (*LessonProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.load(userID)
	if err != nil {
		return nil, err
	}
	lp, ok := p.Lessons[lessonKey(grade, subject, lessonID)]
	if !ok {
		return nil, nil
	}
	if lp.Status != "completed" {
		lp.Status = "completed"
		lp.CompletedAt = t.now().Format(time.RFC3339)
		total := len(lp.QuestionsAnswered)
		correct := 0
		for _, qp := range lp.QuestionsAnswered {
			if qp.Correct {
				correct++
			}
		}
		lp.TotalQuestions = total
		if total > 0 {
			lp.TotalScore = round1(float64(correct) / float64(total) * 100)
		}
		p.Stats.LessonsCompleted++
	}
	if err := t.save(userID, p); err != nil {
		return nil, err
	}
	return lp, nil
}

// LessonProgress returns one lesson's record, or nil if never started.
func (t *Tracker) LessonProgress(userID, grade, subject, lessonID string) (*LessonProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.load(userID)
	if err != nil {
		return nil, err
	}
	return p.Lessons[lessonKey(grade, subject, lessonID)], nil
}

// UserProgress returns the full record, materializing a fresh one for
// unknown users without persisting it.
func (t *Tracker) UserProgress(userID string) (*UserProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load(userID)
}

// CompletedLessons lists the ids of every completed lesson.
func (t *Tracker) CompletedLessons(userID string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.load(userID)
	if err != nil {
		return nil, err
	}
	completed := []string{}
	for _, lp := range p.Lessons {
		if lp.Status == "completed" {
			completed = append(completed, lp.LessonID)
		}
	}
	return completed, nil
}

// SubjectProgress summarizes a user's lessons within one subject.
func (t *Tracker) SubjectProgress(userID, grade, subject string) (*SubjectProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.load(userID)
	if err != nil {
		return nil, err
	}
	out := &SubjectProgress{
		Grade:   grade,
		Subject: subject,
		Lessons: make(map[string]*LessonProgress),
	}
	for _, lp := range p.Lessons {
		if lp.Grade == grade && lp.Subject == subject {
			out.Lessons[lp.LessonID] = lp
			if lp.Status == "completed" {
				out.CompletedLessons++
			}
		}
	}
	out.TotalLessons = len(out.Lessons)
	return out, nil
}

// DashboardStats derives accuracy and completion-rate percentages.
func (t *Tracker) DashboardStats(userID string) (*Dashboard, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.load(userID)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{
		UserID:            userID,
		CreatedAt:         p.CreatedAt,
		LastActive:        p.LastActive,
		LessonsStarted:    p.Stats.LessonsStarted,
		LessonsCompleted:  p.Stats.LessonsCompleted,
		SectionsCompleted: p.Stats.SectionsCompleted,
		QuestionsAnswered: p.Stats.QuestionsAnswered,
		QuestionsCorrect:  p.Stats.QuestionsCorrect,
		TimeSpentMinutes:  p.Stats.TimeMinutes,
	}
	if p.Stats.QuestionsAnswered > 0 {
		d.Accuracy = round1(float64(p.Stats.QuestionsCorrect) / float64(p.Stats.QuestionsAnswered) * 100)
	}
	if p.Stats.LessonsStarted > 0 {
		d.CompletionRate = round1(float64(p.Stats.LessonsCompleted) / float64(p.Stats.LessonsStarted) * 100)
	}
	return d, nil
}

// AddStudyTime accumulates minutes against a started lesson.
func (t *Tracker) AddStudyTime(userID, grade, subject, lessonID string, minutes int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.load(userID)
	if err != nil {
		return err
	}
	lp, ok := p.Lessons[lessonKey(grade, subject, lessonID)]
	if !ok {
		return nil
	}
	lp.TimeSpentMinutes += minutes
	p.Stats.TimeMinutes += minutes
	return t.save(userID, p)
}

// ResetLesson removes one lesson's record. Reports whether anything
// was removed.
func (t *Tracker) ResetLesson(userID, grade, subject, lessonID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.load(userID)
	if err != nil {
		return false, err
	}
	key := lessonKey(grade, subject, lessonID)
	if _, ok := p.Lessons[key]; !ok {
		return false, nil
	}
	delete(p.Lessons, key)
	return true, t.save(userID, p)
}

// DeleteUser removes a user's progress file entirely.
func (t *Tracker) DeleteUser(userID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	path := t.userFile(userID)
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	t.log.Info().Str("user", userID).Msg("progress deleted")
	return true, nil
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
