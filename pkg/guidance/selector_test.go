package guidance

import (
	"reflect"
	"testing"

	"ai-tutoring-be/pkg/knowledge"
)

func TestSelectEntryQuestionsWin(t *testing.T) {
	entry := &knowledge.Entry{
		ID:      "math_pythagorean_001",
		Theorem: "勾股定理",
		SocraticQuestions: []string{
			"直角三角形的哪条边最长?",
			"两条直角边和斜边满足什么关系?",
		},
	}

	// The message alone would classify as computational; entry questions
	// still take priority.
	set := NewSelector().Select("计算斜边长度", entry)
	if !reflect.DeepEqual(set.Questions, entry.SocraticQuestions) {
		t.Errorf("Select() = %v, want entry questions in entry order", set.Questions)
	}
}

func TestSelectCapsEntryQuestions(t *testing.T) {
	entry := &knowledge.Entry{
		ID:      "e1",
		Theorem: "t",
		SocraticQuestions: []string{
			"q1", "q2", "q3", "q4", "q5", "q6", "q7",
		},
	}

	set := NewSelector().Select("why does this hold", entry)
	if len(set.Questions) != MaxQuestions {
		t.Errorf("len = %d, want cap %d", len(set.Questions), MaxQuestions)
	}
	if set.Questions[0] != "q1" || set.Questions[4] != "q5" {
		t.Errorf("capped set must keep the leading questions, got %v", set.Questions)
	}
}

func TestSelectCopiesEntryQuestions(t *testing.T) {
	entry := &knowledge.Entry{
		ID:                "e1",
		Theorem:           "t",
		SocraticQuestions: []string{"original"},
	}

	set := NewSelector().Select("why", entry)
	set.Questions[0] = "mutated"
	if entry.SocraticQuestions[0] != "original" {
		t.Error("Select() must not alias the entry's question slice")
	}
}

func TestSelectClassification(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{"conceptual english", "What is the pythagorean theorem?", conceptualBank},
		{"conceptual chinese", "什么是勾股定理", conceptualBank},
		{"computational cue", "请计算这个三角形的面积", computationalBank},
		{"computational arithmetic", "x^2 = 9, x?", computationalBank},
		{"comparison english", "difference between mean and median", comparisonBank},
		{"comparison chinese", "正弦和余弦有什么区别", comparisonBank},
		{"comparison beats conceptual", "what is the difference between speed and velocity", comparisonBank},
		{"unknown", "hello there", nil},
	}

	selector := NewSelector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := selector.Select(tt.message, nil)
			if tt.want == nil {
				if !set.Empty() {
					t.Errorf("Select(%q) = %v, want empty set", tt.message, set.Questions)
				}
				return
			}
			if !reflect.DeepEqual(set.Questions, tt.want) {
				t.Errorf("Select(%q) = %v, want %v", tt.message, set.Questions, tt.want)
			}
		})
	}
}

func TestSelectEntryWithoutQuestionsFallsThrough(t *testing.T) {
	entry := &knowledge.Entry{ID: "e1", Theorem: "t"}

	set := NewSelector().Select("什么是勾股定理", entry)
	if !reflect.DeepEqual(set.Questions, conceptualBank) {
		t.Errorf("entry without questions must fall back to the cue bank, got %v", set.Questions)
	}
}
