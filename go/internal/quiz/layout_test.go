package quiz

import (
	"testing"
)

func TestLayoutShufflesOrderSlides(t *testing.T) {
	cfg := mustConfig(t)
	ord := cfg.Slides[3]

	for i := 0; i < 20; i++ {
		l := NewLayout(ord)
		if len(l) != 3 || isIdentity(l) {
			t.Fatalf("expected a shuffled layout of 3 items, got %v", l)
		}

		shown := l.Choices(ord)
		for d, authored := range l {
			if shown[d] != ord.Choices()[authored] {
				t.Fatalf("choice %d shows %q, want %q", d, shown[d], ord.Choices()[authored])
			}
		}

		solution := l.Solution(ord).(map[string]any)["order"].([]int)
		v, err := ord.Judge(l.Resolve(OrderAnswer(solution...)))
		if err != nil {
			t.Fatal(err)
		}
		if !v.Correct {
			t.Fatalf("layout %v: solution %v judged wrong", l, solution)
		}

		v, _ = ord.Judge(l.Resolve(OrderAnswer(0, 1, 2)))
		if v.Correct {
			t.Fatalf("layout %v: displayed order judged correct", l)
		}
	}
}

func TestLayoutLeavesOtherSlidesAlone(t *testing.T) {
	cfg := mustConfig(t)
	mc := cfg.Slides[0]

	l := NewLayout(mc)
	if l != nil {
		t.Fatalf("multiple choice should not be shuffled, got %v", l)
	}
	if got := l.Choices(mc); got[0] != "Paris" || got[1] != "Lyon" {
		t.Fatalf("unexpected choices %v", got)
	}
	a := ChoiceAnswer(1)
	if got := l.Resolve(a); *got.Choice != 1 {
		t.Fatalf("answer changed to %+v", got)
	}
}

func TestLayoutPassesBadPositionsToJudge(t *testing.T) {
	cfg := mustConfig(t)
	ord := cfg.Slides[3]
	l := NewLayout(ord)

	if _, err := ord.Judge(l.Resolve(OrderAnswer(0, 1, 7))); err == nil {
		t.Fatal("expected out of range position to be rejected")
	}
}
