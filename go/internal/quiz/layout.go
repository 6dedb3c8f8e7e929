package quiz

import (
	"math/rand/v2"
)

// Layout is the order a slide's choices are shown in within one game.
// Layout[d] is the authored index of the item displayed at position d. A nil
// Layout shows choices as authored.
//
// Only Order slides are shuffled: their answer key is the authored order, so
// showing items unshuffled would give the answer away.
type Layout []int

// NewLayout picks the display order for s. For an Order slide of two or more
// items the result is never the authored order.
func NewLayout(s Slide) Layout {
	o, ok := s.(*Order)
	if !ok || len(o.items) < 2 {
		return nil
	}
	for {
		perm := rand.Perm(len(o.items))
		if !isIdentity(perm) {
			return Layout(perm)
		}
	}
}

// Choices returns the choices of s in display order.
func (l Layout) Choices(s Slide) []string {
	choices := s.Choices()
	if l == nil || len(l) != len(choices) {
		return choices
	}
	out := make([]string, len(l))
	for d, authored := range l {
		out[d] = choices[authored]
	}
	return out
}

// Resolve translates display positions in a to authored indexes so the slide
// can judge it. Out-of-range positions are passed through for Judge to reject.
func (l Layout) Resolve(a Answer) Answer {
	if l == nil || a.Order == nil {
		return a
	}
	order := make([]int, len(a.Order))
	for i, d := range a.Order {
		if d >= 0 && d < len(l) {
			order[i] = l[d]
		} else {
			order[i] = d
		}
	}
	a.Order = order
	return a
}

// Solution is the answer key of s in display positions.
func (l Layout) Solution(s Slide) any {
	if _, ok := s.(*Order); !ok || l == nil {
		return s.Solution()
	}
	order := make([]int, len(l))
	for d, authored := range l {
		order[authored] = d
	}
	return map[string]any{"order": order}
}

func isIdentity(perm []int) bool {
	for i, v := range perm {
		if i != v {
			return false
		}
	}
	return true
}
