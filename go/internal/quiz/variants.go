package quiz

import (
	"strings"

	"github.com/mcdev12/quizlive/go/internal/gameerr"
)

// Choice is one option of a multiple choice slide.
type Choice struct {
	Text    string `json:"text" yaml:"text"`
	Correct bool   `json:"correct" yaml:"correct"`
}

type MultipleChoice struct {
	prompt  Prompt
	choices []Choice
}

func (s *MultipleChoice) Kind() Kind     { return KindMultipleChoice }
func (s *MultipleChoice) Prompt() Prompt { return s.prompt }
func (s *MultipleChoice) sealed()        {}

func (s *MultipleChoice) Choices() []string {
	out := make([]string, len(s.choices))
	for i, c := range s.choices {
		out[i] = c.Text
	}
	return out
}

func (s *MultipleChoice) Judge(a Answer) (Verdict, error) {
	if a.Choice == nil {
		return wrong, gameerr.Withf(gameerr.ErrMalformedAnswer, "multiple choice expects a choice index")
	}
	i := *a.Choice
	if i < 0 || i >= len(s.choices) {
		return wrong, gameerr.Withf(gameerr.ErrMalformedAnswer, "choice %d out of range", i)
	}
	return verdictOf(s.choices[i].Correct), nil
}

func (s *MultipleChoice) Solution() any {
	var correct []int
	for i, c := range s.choices {
		if c.Correct {
			correct = append(correct, i)
		}
	}
	return map[string]any{"correct_choices": correct}
}

func (s *MultipleChoice) Tally(answers []Answer) []int {
	counts := make([]int, len(s.choices))
	for _, a := range answers {
		if a.Choice != nil && *a.Choice >= 0 && *a.Choice < len(counts) {
			counts[*a.Choice]++
		}
	}
	return counts
}

type TrueFalse struct {
	prompt Prompt
	answer bool
}

func (s *TrueFalse) Kind() Kind        { return KindTrueFalse }
func (s *TrueFalse) Prompt() Prompt    { return s.prompt }
func (s *TrueFalse) Choices() []string { return []string{"true", "false"} }
func (s *TrueFalse) Solution() any     { return map[string]any{"truth": s.answer} }
func (s *TrueFalse) sealed()           {}

func (s *TrueFalse) Judge(a Answer) (Verdict, error) {
	if a.Truth == nil {
		return wrong, gameerr.Withf(gameerr.ErrMalformedAnswer, "true/false expects a truth value")
	}
	return verdictOf(*a.Truth == s.answer), nil
}

func (s *TrueFalse) Tally(answers []Answer) []int {
	counts := make([]int, 2)
	for _, a := range answers {
		switch {
		case a.Truth == nil:
		case *a.Truth:
			counts[0]++
		default:
			counts[1]++
		}
	}
	return counts
}

type TypeAnswer struct {
	prompt        Prompt
	accepted      []string
	caseSensitive bool
}

func (s *TypeAnswer) Kind() Kind        { return KindTypeAnswer }
func (s *TypeAnswer) Prompt() Prompt    { return s.prompt }
func (s *TypeAnswer) Choices() []string { return nil }
func (s *TypeAnswer) sealed()           {}

func (s *TypeAnswer) Solution() any {
	return map[string]any{"accepted": s.accepted, "case_sensitive": s.caseSensitive}
}

func (s *TypeAnswer) Judge(a Answer) (Verdict, error) {
	if a.Text == nil {
		return wrong, gameerr.Withf(gameerr.ErrMalformedAnswer, "type answer expects text")
	}
	given := s.clean(*a.Text)
	for _, acc := range s.accepted {
		if s.clean(acc) == given {
			return right, nil
		}
	}
	return wrong, nil
}

func (s *TypeAnswer) Tally([]Answer) []int { return nil }

func (s *TypeAnswer) clean(v string) string {
	v = strings.TrimSpace(v)
	if s.caseSensitive {
		return v
	}
	return strings.ToLower(v)
}

type Order struct {
	prompt        Prompt
	items         []string
	partialCredit bool
}

func (s *Order) Kind() Kind        { return KindOrder }
func (s *Order) Prompt() Prompt    { return s.prompt }
func (s *Order) Choices() []string { return append([]string(nil), s.items...) }
func (s *Order) sealed()           {}

// Solution is the identity permutation: items are authored in the correct order.
func (s *Order) Solution() any {
	order := make([]int, len(s.items))
	for i := range order {
		order[i] = i
	}
	return map[string]any{"order": order}
}

func (s *Order) Judge(a Answer) (Verdict, error) {
	if len(a.Order) != len(s.items) {
		return wrong, gameerr.Withf(gameerr.ErrMalformedAnswer, "order expects a permutation of %d items", len(s.items))
	}
	seen := make([]bool, len(s.items))
	inPlace := 0
	for pos, idx := range a.Order {
		if idx < 0 || idx >= len(s.items) || seen[idx] {
			return wrong, gameerr.Withf(gameerr.ErrMalformedAnswer, "order is not a permutation")
		}
		seen[idx] = true
		if idx == pos {
			inPlace++
		}
	}
	if inPlace == len(s.items) {
		return right, nil
	}
	if !s.partialCredit {
		return wrong, nil
	}
	return Verdict{Credit: float64(inPlace) / float64(len(s.items))}, nil
}

func (s *Order) Tally([]Answer) []int { return nil }
