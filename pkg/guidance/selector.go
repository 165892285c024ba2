package guidance

import (
	"strings"
	"unicode"

	"ai-tutoring-be/pkg/knowledge"
)

// MaxQuestions bounds every guidance set.
const MaxQuestions = 5

// Set is an ordered list of Socratic questions for one request. An empty set
// means no guidance is injected; callers must tolerate that.
type Set struct {
	Questions []string
}

func (s Set) Empty() bool {
	return len(s.Questions) == 0
}

// messageKind classifies a user message by lexical cues.
type messageKind int

const (
	kindUnknown messageKind = iota
	kindConceptual
	kindComputational
	kindComparison
)

// Cue vocabularies and question banks are policy tables, not a contract: only
// the priority order (entry questions, then cue bank, then empty) is load-bearing.
var (
	conceptualCues = []string{
		"what is", "why", "define", "meaning of",
		"什么是", "是什么", "为什么", "定义",
	}
	computationalCues = []string{
		"solve", "compute", "calculate", "evaluate", "how much",
		"求", "计算", "解方程", "算出",
	}
	comparisonCues = []string{
		"difference between", "compare", "versus", " vs ",
		"区别", "对比", "不同",
	}

	conceptualBank = []string{
		"Can you restate the idea in your own words?",
		"What conditions have to hold for this to apply?",
		"Can you think of a case where it would not apply?",
	}
	computationalBank = []string{
		"What quantities are given, and what are you asked to find?",
		"Which formula or theorem connects them?",
		"After substituting the values, does each step still hold?",
		"Does the magnitude of your answer look plausible?",
	}
	comparisonBank = []string{
		"What do the two concepts have in common?",
		"Where exactly do their definitions diverge?",
		"Can you find an example that fits one but not the other?",
	}
)

// Selector derives guiding questions for a turn. Pure and deterministic,
// no external calls.
type Selector struct{}

func NewSelector() *Selector {
	return &Selector{}
}

// Select returns guidance for a message. When a matched entry carries its own
// Socratic questions those win, in entry order; otherwise the message is
// classified by cue and a static bank answers; otherwise the set is empty.
func (s *Selector) Select(message string, matched *knowledge.Entry) Set {
	if matched != nil && len(matched.SocraticQuestions) > 0 {
		return Set{Questions: capQuestions(matched.SocraticQuestions)}
	}

	switch classify(message) {
	case kindConceptual:
		return Set{Questions: capQuestions(conceptualBank)}
	case kindComputational:
		return Set{Questions: capQuestions(computationalBank)}
	case kindComparison:
		return Set{Questions: capQuestions(comparisonBank)}
	}
	return Set{}
}

func classify(message string) messageKind {
	lower := strings.ToLower(message)

	// Comparison cues first: "difference between X and Y" often also contains
	// definitional words.
	if containsAny(lower, comparisonCues) {
		return kindComparison
	}
	if containsAny(lower, computationalCues) || hasArithmetic(lower) {
		return kindComputational
	}
	if containsAny(lower, conceptualCues) {
		return kindConceptual
	}
	return kindUnknown
}

func containsAny(s string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(s, cue) {
			return true
		}
	}
	return false
}

// hasArithmetic reports digits next to operators, the signature of a
// computation request.
func hasArithmetic(s string) bool {
	hasDigit := false
	hasOperator := false
	for _, r := range s {
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		switch r {
		case '+', '-', '*', '/', '=', '^', '×', '÷':
			hasOperator = true
		}
	}
	return hasDigit && hasOperator
}

func capQuestions(questions []string) []string {
	if len(questions) > MaxQuestions {
		questions = questions[:MaxQuestions]
	}
	out := make([]string, len(questions))
	copy(out, questions)
	return out
}
