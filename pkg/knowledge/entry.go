package knowledge

// Difficulty is an ordered difficulty level for a knowledge entry.
type Difficulty string

const (
	DifficultyBasic        Difficulty = "basic"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Formula holds the plain and render-ready variants of a formula.
type Formula struct {
	Plain string `json:"plain"`
	Latex string `json:"latex,omitempty"`
}

// ProofStep is one ordered step of a theorem proof.
type ProofStep struct {
	Step  int    `json:"step"`
	Title string `json:"title"`
	Body  string `json:"content"`
}

// WorkedExample pairs a problem with its worked solution.
type WorkedExample struct {
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
}

// CommonMistake pairs a typical student mistake with its correction.
type CommonMistake struct {
	Mistake    string `json:"mistake"`
	Correction string `json:"correction"`
}

// Entry is one curated theorem/principle record. Entries are immutable after
// load and owned exclusively by the Store.
type Entry struct {
	ID                string          `json:"id"`
	Category          string          `json:"category"`
	Topic             string          `json:"topic"`
	Theorem           string          `json:"theorem"`
	Difficulty        Difficulty      `json:"difficulty"`
	Description       string          `json:"description"`
	Formula           Formula         `json:"formula"`
	ProofSteps        []ProofStep     `json:"proof_steps,omitempty"`
	Examples          []WorkedExample `json:"examples,omitempty"`
	CommonMistakes    []CommonMistake `json:"common_mistakes,omitempty"`
	SocraticQuestions []string        `json:"socratic_questions,omitempty"`
	Keywords          []string        `json:"keywords,omitempty"`
}
