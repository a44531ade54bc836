package session

import (
	"errors"
	"testing"

	"study-quiz-service/internal/domain"
)

func TestNavigatorRequiresSelectionToAdvance(t *testing.T) {
	nav := NewNavigator(newQuiz("q", 0, 1, 1).Questions)

	if nav.CanAdvance() {
		t.Fatalf("expected advance blocked before selection")
	}
	if _, err := nav.Advance(); !errors.Is(err, domain.ErrNoAnswerSelected) {
		t.Fatalf("expected ErrNoAnswerSelected, got %v", err)
	}
	if nav.Index() != 0 {
		t.Fatalf("index moved without selection")
	}

	if err := nav.SelectAnswer(2); err != nil {
		t.Fatalf("select: %v", err)
	}
	finished, err := nav.Advance()
	if err != nil || finished {
		t.Fatalf("expected to move to question 1, finished=%v err=%v", finished, err)
	}
	if nav.Index() != 1 {
		t.Fatalf("expected index 1, got %d", nav.Index())
	}

	_ = nav.SelectAnswer(1)
	finished, err = nav.Advance()
	if err != nil || !finished {
		t.Fatalf("expected finish on last question, finished=%v err=%v", finished, err)
	}
	if nav.Index() != 1 {
		t.Fatalf("index must not pass the last question, got %d", nav.Index())
	}
}

func TestNavigatorRejectsOutOfRangeOption(t *testing.T) {
	nav := NewNavigator(newQuiz("q", 0, 0).Questions)

	for _, option := range []int{-1, 4, 99} {
		if err := nav.SelectAnswer(option); !errors.Is(err, domain.ErrOptionOutOfRange) {
			t.Fatalf("option %d: expected ErrOptionOutOfRange, got %v", option, err)
		}
	}
	if nav.Answers().Len() != 0 {
		t.Fatalf("rejected selections must not be recorded")
	}
}

func TestNavigatorReselectOverwrites(t *testing.T) {
	nav := NewNavigator(newQuiz("q", 0, 1).Questions)

	_ = nav.SelectAnswer(0)
	_ = nav.SelectAnswer(3)
	if got, _ := nav.Answers().Get(0); got != 3 {
		t.Fatalf("expected overwrite to 3, got %d", got)
	}
	if nav.Answers().Len() != 1 {
		t.Fatalf("expected a single entry, got %d", nav.Answers().Len())
	}
}

func TestNavigatorHighlightQueries(t *testing.T) {
	nav := NewNavigator(newQuiz("q", 0, 1).Questions)

	if nav.IsCorrectOption(0, 1) {
		t.Fatalf("correct option must stay hidden until answered")
	}
	_ = nav.SelectAnswer(2)
	if !nav.IsAnswered(0) {
		t.Fatalf("expected question 0 answered")
	}
	if !nav.IsCorrectOption(0, 1) || nav.IsCorrectOption(0, 2) {
		t.Fatalf("unexpected correct highlight")
	}
	if !nav.IsWrongSelection(0, 2) || nav.IsWrongSelection(0, 1) || nav.IsWrongSelection(0, 0) {
		t.Fatalf("unexpected wrong highlight")
	}
	if nav.IsCorrectOption(5, 0) || nav.IsWrongSelection(-1, 0) {
		t.Fatalf("out of range queries must be false")
	}
}

func TestNavigatorEmptyQuizFinishesImmediately(t *testing.T) {
	nav := NewNavigator(nil)

	if _, ok := nav.Current(); ok {
		t.Fatalf("expected no current question")
	}
	finished, err := nav.Advance()
	if err != nil || !finished {
		t.Fatalf("expected immediate finish, finished=%v err=%v", finished, err)
	}
	if err := nav.SelectAnswer(0); !errors.Is(err, domain.ErrOptionOutOfRange) {
		t.Fatalf("expected selection rejected on empty quiz, got %v", err)
	}
}
