// Package lessons loads curriculum content from disk. A metadata.json
// index maps grades to subjects to lesson summaries; each summary
// points at a standalone lesson file holding the full sections,
// questions, prerequisites, and follow-up recommendations.
package lessons

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"tutord/internal/common/fsutil"
)

// Summary is the per-lesson entry carried in metadata.json.
type Summary struct {
	ID                   string   `json:"id"`
	Title                string   `json:"title"`
	File                 string   `json:"file"`
	Difficulty           string   `json:"difficulty,omitempty"`
	EstimatedTimeMinutes int      `json:"estimated_time_minutes,omitempty"`
	Keywords             []string `json:"keywords,omitempty"`
}

type subjectMeta struct {
	Name    string    `json:"name"`
	Lessons []Summary `json:"lessons"`
}

type gradeMeta struct {
	Name     string                 `json:"name"`
	Subjects map[string]subjectMeta `json:"subjects"`
}

type metadata struct {
	Grades map[string]gradeMeta `json:"grades"`
}

// Question is one exercise inside a lesson section.
type Question struct {
	ID             string   `json:"id"`
	Type           string   `json:"type,omitempty"`
	Question       string   `json:"question"`
	ExpectedAnswer string   `json:"expected_answer,omitempty"`
	// Acceptable answer variations checked during grading. The expected
	// answer always counts even when this list is empty.
	EvaluationCriteria []string `json:"evaluation_criteria,omitempty"`
	Options            []string `json:"options,omitempty"`
	Hints              []string `json:"hints,omitempty"`
	Points             int      `json:"points,omitempty"`
}

// Section groups explanatory content with its questions.
type Section struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content,omitempty"`
	Questions []Question `json:"questions,omitempty"`
}

// Lesson is the full content of one lesson file.
type Lesson struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Grade                string    `json:"grade,omitempty"`
	Subject              string    `json:"subject,omitempty"`
	Difficulty           string    `json:"difficulty,omitempty"`
	EstimatedTimeMinutes int       `json:"estimated_time_minutes,omitempty"`
	Objectives           []string  `json:"objectives,omitempty"`
	Prerequisites        []string  `json:"prerequisites,omitempty"`
	NextLessons          []string  `json:"next_lessons,omitempty"`
	Sections             []Section `json:"sections,omitempty"`
}

// GradeInfo is the listing shape for GET /api/lessons/grades.
type GradeInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Subjects []string `json:"subjects"`
}

// SubjectInfo is the listing shape for one grade's subjects.
type SubjectInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	LessonCount int    `json:"lesson_count"`
}

// SearchResult is a lesson summary annotated with where it lives.
type SearchResult struct {
	Grade       string `json:"grade"`
	GradeName   string `json:"grade_name"`
	Subject     string `json:"subject"`
	SubjectName string `json:"subject_name"`
	Summary
}

// NextLesson is a follow-up recommendation after finishing a lesson.
type NextLesson struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Difficulty           string `json:"difficulty,omitempty"`
	EstimatedTimeMinutes int    `json:"estimated_time_minutes,omitempty"`
}

// Manager serves lesson content from a content directory. The metadata
// index is read once at construction; lesson files are read per call so
// content edits land without a restart.
type Manager struct {
	dir  string
	meta metadata
	log  zerolog.Logger

	mu    sync.Mutex
	cache map[string]*Lesson
}

// New loads the metadata index from dir/metadata.json.
func New(dir string, log zerolog.Logger) (*Manager, error) {
	expanded, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	metaPath := filepath.Join(expanded, "metadata.json")
	if !fsutil.PathExists(metaPath) {
		return nil, fmt.Errorf("lessons metadata not found: %s", metaPath)
	}
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("read lessons metadata: %w", err)
	}
	var meta metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("parse lessons metadata: %w", err)
	}
	m := &Manager{
		dir:   expanded,
		meta:  meta,
		log:   log.With().Str("component", "lessons").Logger(),
		cache: make(map[string]*Lesson),
	}
	m.log.Info().Int("grades", len(meta.Grades)).Str("dir", expanded).Msg("lesson metadata loaded")
	return m, nil
}

// Grades lists every grade in the index.
func (m *Manager) Grades() []GradeInfo {
	out := make([]GradeInfo, 0, len(m.meta.Grades))
	for id, g := range m.meta.Grades {
		subjects := make([]string, 0, len(g.Subjects))
		for sid := range g.Subjects {
			subjects = append(subjects, sid)
		}
		sort.Strings(subjects)
		out = append(out, GradeInfo{ID: id, Name: g.Name, Subjects: subjects})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Subjects lists the subjects of one grade; unknown grades yield an
// empty list rather than an error.
func (m *Manager) Subjects(grade string) []SubjectInfo {
	g, ok := m.meta.Grades[grade]
	if !ok {
		return []SubjectInfo{}
	}
	out := make([]SubjectInfo, 0, len(g.Subjects))
	for id, s := range g.Subjects {
		out = append(out, SubjectInfo{ID: id, Name: s.Name, LessonCount: len(s.Lessons)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lessons lists the lesson summaries for a grade and subject.
func (m *Manager) Lessons(grade, subject string) []Summary {
	g, ok := m.meta.Grades[grade]
	if !ok {
		return []Summary{}
	}
	s, ok := g.Subjects[subject]
	if !ok {
		return []Summary{}
	}
	return s.Lessons
}

// Lesson loads the full content of one lesson, or nil when the lesson
// is not indexed or its file is missing.
func (m *Manager) Lesson(grade, subject, lessonID string) *Lesson {
	summaries := m.Lessons(grade, subject)
	for i := range summaries {
		if summaries[i].ID == lessonID {
			return m.loadFile(summaries[i].File)
		}
	}
	return nil
}

func (m *Manager) loadFile(rel string) *Lesson {
	m.mu.Lock()
	if cached, ok := m.cache[rel]; ok {
		m.mu.Unlock()
		return cached
	}
	m.mu.Unlock()

	path := filepath.Join(m.dir, rel)
	raw, err := os.ReadFile(path)
	if err != nil {
		m.log.Warn().Err(err).Str("file", path).Msg("lesson file unreadable")
		return nil
	}
	var lesson Lesson
	if err := json.Unmarshal(raw, &lesson); err != nil {
		m.log.Warn().Err(err).Str("file", path).Msg("lesson file malformed")
		return nil
	}
	m.mu.Lock()
	m.cache[rel] = &lesson
	m.mu.Unlock()
	return &lesson
}

// Section returns one section of a lesson, or nil.
func (m *Manager) Section(grade, subject, lessonID, sectionID string) *Section {
	lesson := m.Lesson(grade, subject, lessonID)
	if lesson == nil {
		return nil
	}
	for i := range lesson.Sections {
		if lesson.Sections[i].ID == sectionID {
			return &lesson.Sections[i]
		}
	}
	return nil
}

// Question returns one question of a section, or nil.
func (m *Manager) Question(grade, subject, lessonID, sectionID, questionID string) *Question {
	section := m.Section(grade, subject, lessonID, sectionID)
	if section == nil {
		return nil
	}
	for i := range section.Questions {
		if section.Questions[i].ID == questionID {
			return &section.Questions[i]
		}
	}
	return nil
}

// PrerequisitesMet reports whether every prerequisite of lessonID
// appears in completed. Unknown lessons are never unlocked.
func (m *Manager) PrerequisitesMet(grade, subject, lessonID string, completed []string) bool {
	lesson := m.Lesson(grade, subject, lessonID)
	if lesson == nil {
		return false
	}
	done := make(map[string]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}
	for _, prereq := range lesson.Prerequisites {
		if !done[prereq] {
			return false
		}
	}
	return true
}

// NextLessons resolves the follow-up recommendations of a lesson,
// dropping any recommendation whose content cannot be loaded.
func (m *Manager) NextLessons(grade, subject, lessonID string) []NextLesson {
	lesson := m.Lesson(grade, subject, lessonID)
	if lesson == nil {
		return []NextLesson{}
	}
	out := make([]NextLesson, 0, len(lesson.NextLessons))
	for _, nextID := range lesson.NextLessons {
		next := m.Lesson(grade, subject, nextID)
		if next == nil {
			continue
		}
		out = append(out, NextLesson{
			ID:                   next.ID,
			Title:                next.Title,
			Difficulty:           next.Difficulty,
			EstimatedTimeMinutes: next.EstimatedTimeMinutes,
		})
	}
	return out
}

// Search matches query case-insensitively against lesson titles and ids
// across the whole index.
func (m *Manager) Search(query string) []SearchResult {
	q := strings.ToLower(query)
	results := []SearchResult{}
	for gradeID, g := range m.meta.Grades {
		for subjectID, s := range g.Subjects {
			for _, lesson := range s.Lessons {
				if strings.Contains(strings.ToLower(lesson.Title), q) ||
					strings.Contains(strings.ToLower(lesson.ID), q) {
					results = append(results, SearchResult{
						Grade:       gradeID,
						GradeName:   g.Name,
						Subject:     subjectID,
						SubjectName: s.Name,
						Summary:     lesson,
					})
				}
			}
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

