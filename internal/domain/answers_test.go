package domain

import (
	"encoding/json"
	"testing"
)

func TestAnswersKeepAttemptOrder(t *testing.T) {
	answers := NewAnswers()
	answers.Set(2, 1)
	answers.Set(0, 3)
	answers.Set(2, 0)

	indices := answers.Indices()
	if len(indices) != 2 || indices[0] != 2 || indices[1] != 0 {
		t.Fatalf("expected attempt order [2 0], got %v", indices)
	}
	if got, _ := answers.Get(2); got != 0 {
		t.Fatalf("expected overwrite to 0, got %d", got)
	}

	data, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"2":0,"0":3}` {
		t.Fatalf("unexpected json %s", data)
	}

	var decoded Answers
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Len() != 2 {
		t.Fatalf("expected 2 answers, got %d", decoded.Len())
	}
	if got, ok := decoded.Get(0); !ok || got != 3 {
		t.Fatalf("expected question 0 -> 3, got %d (%v)", got, ok)
	}
}

func TestAnswersCloneIsIndependent(t *testing.T) {
	answers := NewAnswers()
	answers.Set(0, 1)
	clone := answers.Clone()
	answers.Set(1, 2)

	if clone.Len() != 1 {
		t.Fatalf("clone changed with original: %d", clone.Len())
	}
}

func TestAnswersRejectNonNumericKeys(t *testing.T) {
	var answers Answers
	if err := json.Unmarshal([]byte(`{"first":1}`), &answers); err == nil {
		t.Fatalf("expected error for non-numeric key")
	}
}

func TestAnswersRoundTripKeepsNonMonotonicOrder(t *testing.T) {
	answers := NewAnswers()
	for _, question := range []int{5, 3, 9, 1, 7, 2, 8} {
		answers.Set(question, question%4)
	}

	data, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Answers
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []int{5, 3, 9, 1, 7, 2, 8}
	got := decoded.Indices()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
		if option, _ := decoded.Get(want[i]); option != want[i]%4 {
			t.Fatalf("question %d decoded option %d", want[i], option)
		}
	}
}

func TestAnswersRejectNegativeIndices(t *testing.T) {
	for _, input := range []string{`{"-3":1}`, `{"2":-1}`, `[1,2]`, `{"1":1.5}`} {
		var answers Answers
		if err := json.Unmarshal([]byte(input), &answers); err == nil {
			t.Fatalf("expected error for %s, got indices %v", input, answers.Indices())
		}
	}
}

func TestAnswersNullDecodesEmpty(t *testing.T) {
	var holder struct {
		Answers Answers `json:"answers"`
	}
	if err := json.Unmarshal([]byte(`{"answers":null}`), &holder); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if holder.Answers.Len() != 0 {
		t.Fatalf("expected no answers, got %d", holder.Answers.Len())
	}
}
