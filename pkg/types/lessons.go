package types

// AnswerRequest submits a student's answer to a lesson question.
type AnswerRequest struct {
	UserID   string `json:"user_id"`
	Grade    string `json:"grade"`
	Subject  string `json:"subject"`
	Lesson   string `json:"lesson"`
	Section  string `json:"section"`
	Question string `json:"question"`
	// The student's answer text.
	// example: stanza
	Answer string `json:"answer" example:"stanza"`
	// Hints already consumed for this question.
	HintsUsed int `json:"hints_used,omitempty"`
	// When true, ambiguous answers are escalated to the evaluation model.
	UseAI bool `json:"use_ai,omitempty"`
}

// AnswerResponse is the grading outcome for one answer.
type AnswerResponse struct {
	Correct    bool    `json:"correct"`
	Confidence float64 `json:"confidence"`
	Feedback   string  `json:"feedback"`
	// Revealed only for incorrect answers.
	ExpectedAnswer string `json:"expected_answer,omitempty"`
}

// HintRequest asks for a hint on a lesson question.
type HintRequest struct {
	Grade    string `json:"grade"`
	Subject  string `json:"subject"`
	Lesson   string `json:"lesson"`
	Section  string `json:"section"`
	Question string `json:"question"`
	// Which hint tier to produce: 0 subtle, 1 direct, 2 strong.
	HintLevel int `json:"hint_level,omitempty"`
	// The student's wrong answer, enabling a contextual hint.
	StudentAnswer string `json:"student_answer,omitempty"`
}

// HintResponse carries one hint. CloseQuiz signals the answer was so
// far off topic the quiz should end.
type HintResponse struct {
	Hint      string `json:"hint"`
	CloseQuiz bool   `json:"close_quiz,omitempty"`
}

// ProgressStartRequest marks a lesson started for a user.
type ProgressStartRequest struct {
	UserID  string `json:"user_id"`
	Grade   string `json:"grade"`
	Subject string `json:"subject"`
	Lesson  string `json:"lesson"`
}

// SectionUpdateRequest records the user's position in a lesson.
type SectionUpdateRequest struct {
	UserID  string `json:"user_id"`
	Grade   string `json:"grade"`
	Subject string `json:"subject"`
	Lesson  string `json:"lesson"`
	Section string `json:"section"`
	// "in_progress" or "completed".
	// example: completed
	Status string `json:"status" example:"completed"`
}

// StudyTimeRequest adds study minutes to a started lesson.
type StudyTimeRequest struct {
	UserID  string `json:"user_id"`
	Grade   string `json:"grade"`
	Subject string `json:"subject"`
	Lesson  string `json:"lesson"`
	Minutes int    `json:"minutes"`
}
