// Package evaluator grades student answers. Cheap criteria matching
// runs first; only ambiguous answers go to the model bound to the
// evaluation role, with the model's verdict parsed out of a fixed
// CORRECT:/INCORRECT: reply format. Every model path degrades to the
// criteria result so grading keeps working when inference does not.
package evaluator

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"tutord/internal/manager"
	"tutord/internal/registry"
)

// Generator is the inference surface the evaluator needs. *manager.Manager
// satisfies it.
type Generator interface {
	Generate(ctx context.Context, role registry.Role, req manager.GenerationRequest) (manager.GeneratedText, error)
}

// Result is one grading outcome.
type Result struct {
	Correct        bool
	Confidence     float64
	Feedback       string
	ExpectedAnswer string
}

// Evaluator grades answers, optionally consulting a model.
type Evaluator struct {
	gen Generator
	log zerolog.Logger
}

func New(gen Generator, log zerolog.Logger) *Evaluator {
	return &Evaluator{gen: gen, log: log.With().Str("component", "evaluator").Logger()}
}

// EvaluateSimple matches the answer against acceptance criteria. Exact
// match scores 1.0; the answer containing a criterion scores 0.9.
func EvaluateSimple(studentAnswer string, criteria []string) (bool, float64) {
	if studentAnswer == "" || len(criteria) == 0 {
		return false, 0.0
	}
	student := strings.ToLower(strings.TrimSpace(studentAnswer))
	for _, criterion := range criteria {
		c := strings.ToLower(strings.TrimSpace(criterion))
		if c == "" {
			continue
		}
		if student == c {
			return true, 1.0
		}
		if strings.Contains(student, c) {
			return true, 0.9
		}
	}
	return false, 0.0
}

// Evaluate grades an answer, escalating to the evaluation model when
// criteria matching is inconclusive and a generator is available.
func (e *Evaluator) Evaluate(ctx context.Context, question, studentAnswer, expectedAnswer string, criteria []string) Result {
	correct, confidence := EvaluateSimple(studentAnswer, criteria)
	if correct {
		return Result{Correct: true, Confidence: confidence, Feedback: "Excellent! That's correct!"}
	}
	if e.gen == nil {
		return e.missed(expectedAnswer, "Not quite right. Would you like a hint?")
	}

	prompt := buildEvaluationPrompt(question, studentAnswer, expectedAnswer, criteria)
	out, err := e.gen.Generate(ctx, registry.RoleEvaluation, manager.GenerationRequest{
		Message:      prompt,
		MaxNewTokens: 100,
		Temperature:  0.3,
		TopP:         0.9,
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("model evaluation failed, using criteria result")
		return e.missed(expectedAnswer, "Not quite right. Try again!")
	}

	verdict, feedback, ok := parseVerdict(out.Text)
	if !ok {
		// Model ignored the reply format.
		return e.missed(expectedAnswer, "Let me check that...")
	}
	if verdict {
		return Result{Correct: true, Confidence: 0.85, Feedback: feedback}
	}
	return e.missed(expectedAnswer, feedback)
}

func (e *Evaluator) missed(expectedAnswer, feedback string) Result {
	return Result{Correct: false, Confidence: 0.0, Feedback: feedback, ExpectedAnswer: expectedAnswer}
}

func buildEvaluationPrompt(question, studentAnswer, expectedAnswer string, criteria []string) string {
	var b strings.Builder
	b.WriteString("You are evaluating a student's answer. Be encouraging but accurate.\n\n")
	b.WriteString("Question: " + question + "\n")
	b.WriteString("Expected Answer: " + expectedAnswer + "\n")
	b.WriteString("Student's Answer: " + studentAnswer + "\n\n")
	b.WriteString("Acceptable variations: " + strings.Join(criteria, ", ") + "\n\n")
	b.WriteString("Evaluate if the student's answer is correct. Consider:\n")
	b.WriteString("1. Does it match the expected answer in meaning?\n")
	b.WriteString("2. Are there any acceptable variations or synonyms?\n")
	b.WriteString("3. Is the core concept understood?\n\n")
	b.WriteString("Respond ONLY with:\n")
	b.WriteString("CORRECT: [brief encouraging feedback]\n")
	b.WriteString("OR\n")
	b.WriteString("INCORRECT: [gentle feedback explaining what's missing]\n\n")
	b.WriteString("Keep feedback to 1-2 sentences.")
	return b.String()
}

// parseVerdict extracts the verdict and feedback from the model reply.
// INCORRECT is checked first because it contains CORRECT as a substring.
func parseVerdict(reply string) (correct bool, feedback string, ok bool) {
	upper := strings.ToUpper(reply)
	if idx := strings.Index(upper, "INCORRECT:"); idx >= 0 {
		return false, strings.TrimSpace(reply[idx+len("INCORRECT:"):]), true
	}
	if idx := strings.Index(upper, "CORRECT:"); idx >= 0 {
		return true, strings.TrimSpace(reply[idx+len("CORRECT:"):]), true
	}
	return false, "", false
}

// CloseQuiz is the hint sentinel meaning the answer was so far off the
// quiz should end and the lesson restart.
const CloseQuiz = "CLOSE_QUIZ"

const hintSystemPrompt = `You are a patient tutor. Analyze the student's answer and categorize it:

CATEGORY 1 - SLIGHTLY WRONG (spelling error, close variation):
- Point to the right part without revealing answer

CATEGORY 2 - WRONG BUT ON TOPIC (related concept, but not what we're looking for):
- Explain what they wrote AND clarify what the question is asking for

CATEGORY 3 - COMPLETELY UNRELATED (off-topic, random answer):
- Return EXACTLY: "UNRELATED"

Keep hints SHORT (1-2 sentences). Never reveal the answer directly.`

var (
	categoryLabelRE = regexp.MustCompile(`(?im)^CATEGORY \d+ - [A-Z\s]+\n?`)
	hintLabelRE     = regexp.MustCompile(`(?i)^(Hint:|HINT:)\s*`)
	leadingDashRE   = regexp.MustCompile(`^\s*-\s*`)
)

// Hint produces guidance for a wrong answer. With a student answer and
// a working evaluation model the hint is contextual; otherwise the
// question's predefined hints are stepped through by level.
func (e *Evaluator) Hint(ctx context.Context, question, expectedAnswer string, predefined []string, hintLevel int, studentAnswer string) string {
	if studentAnswer == "" || e.gen == nil {
		return predefinedHint(predefined, hintLevel)
	}

	userPrompt := "Question: " + question +
		"\nStudent answered: " + studentAnswer +
		"\nHint level: " + strconv.Itoa(hintLevel) +
		"\n\nCategorize and give appropriate hint:"

	out, err := e.gen.Generate(ctx, registry.RoleEvaluation, manager.GenerationRequest{
		Message:      userPrompt,
		SystemPrompt: hintSystemPrompt,
		MaxNewTokens: 100,
		Temperature:  0.3,
		TopP:         0.9,
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("hint generation failed, using predefined hints")
		return predefinedHint(predefined, hintLevel)
	}

	hint := strings.Trim(strings.TrimSpace(out.Text), `"'`)
	if strings.Contains(strings.ToUpper(hint), "UNRELATED") {
		return CloseQuiz
	}
	hint = categoryLabelRE.ReplaceAllString(hint, "")
	hint = hintLabelRE.ReplaceAllString(hint, "")
	hint = leadingDashRE.ReplaceAllString(hint, "")
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return predefinedHint(predefined, hintLevel)
	}
	return hint
}

func predefinedHint(hints []string, level int) string {
	if level >= 0 && level < len(hints) {
		return hints[level]
	}
	return "No more hints available. Try your best!"
}

