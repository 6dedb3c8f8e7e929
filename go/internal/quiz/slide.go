package quiz

import (
	"time"
)

// Kind identifies a slide variant.
type Kind string

const (
	KindMultipleChoice Kind = "multiple_choice"
	KindTrueFalse      Kind = "true_false"
	KindTypeAnswer     Kind = "type_answer"
	KindOrder          Kind = "order"
)

// Slide is one question of a quiz. The set of implementations is closed:
// MultipleChoice, TrueFalse, TypeAnswer and Order.
type Slide interface {
	Kind() Kind
	Prompt() Prompt
	// Choices returns what players pick from, or nil when the answer is free text.
	Choices() []string
	// Judge decides how much credit a raw answer earns. It returns
	// ErrMalformedAnswer when the answer has the wrong shape for the slide.
	Judge(a Answer) (Verdict, error)
	// Solution is the answer key as shown to players on reveal.
	Solution() any
	// Tally counts how many answers went to each choice. Nil for free text.
	Tally(answers []Answer) []int

	sealed()
}

// Prompt holds the fields every slide variant shares.
type Prompt struct {
	Title             string        `json:"title"`
	IntroduceQuestion time.Duration `json:"-"`
	TimeLimit         time.Duration `json:"-"`
	Points            int           `json:"points"`
}

// Answer is a raw player submission. Exactly one field is expected to be set,
// matching the slide kind.
type Answer struct {
	Choice *int    `json:"choice,omitempty"`
	Truth  *bool   `json:"truth,omitempty"`
	Text   *string `json:"text,omitempty"`
	Order  []int   `json:"order,omitempty"`
}

// Verdict is the outcome of judging an answer. Credit is in [0,1]; a
// verdict is correct iff it earned full credit.
type Verdict struct {
	Correct bool    `json:"correct"`
	Credit  float64 `json:"credit"`
}

var (
	wrong = Verdict{}
	right = Verdict{Correct: true, Credit: 1}
)

func verdictOf(ok bool) Verdict {
	if ok {
		return right
	}
	return wrong
}

// ChoiceAnswer, TruthAnswer, TextAnswer and OrderAnswer build answers.
func ChoiceAnswer(i int) Answer     { return Answer{Choice: &i} }
func TruthAnswer(b bool) Answer     { return Answer{Truth: &b} }
func TextAnswer(s string) Answer    { return Answer{Text: &s} }
func OrderAnswer(idx ...int) Answer { return Answer{Order: idx} }
