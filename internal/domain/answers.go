package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Answers maps question index to selected option index. Entries keep the
// order in which questions were first attempted.
type Answers struct {
	order    []int
	selected map[int]int
}

// NewAnswers returns an empty answer set.
func NewAnswers() Answers {
	return Answers{selected: make(map[int]int)}
}

// Set records option for question, replacing any previous selection.
func (a *Answers) Set(question, option int) {
	if a.selected == nil {
		a.selected = make(map[int]int)
	}
	if _, ok := a.selected[question]; !ok {
		a.order = append(a.order, question)
	}
	a.selected[question] = option
}

// Get returns the selection for question.
func (a Answers) Get(question int) (int, bool) {
	option, ok := a.selected[question]
	return option, ok
}

// Len is the number of attempted questions.
func (a Answers) Len() int {
	return len(a.order)
}

// Indices returns the attempted question indices in attempt order.
func (a Answers) Indices() []int {
	out := make([]int, len(a.order))
	copy(out, a.order)
	return out
}

// Clone returns an independent copy.
func (a Answers) Clone() Answers {
	out := Answers{
		order:    make([]int, len(a.order)),
		selected: make(map[int]int, len(a.selected)),
	}
	copy(out.order, a.order)
	for k, v := range a.selected {
		out.selected[k] = v
	}
	return out
}

// MarshalJSON encodes the answers as an object keyed by question index, in attempt order.
func (a Answers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, question := range a.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%d", strconv.Itoa(question), a.selected[question])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the object form written by MarshalJSON. Keys are
// read in document order so attempt order survives a round trip.
func (a *Answers) UnmarshalJSON(data []byte) error {
	*a = NewAnswers()
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode answers: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode answers: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode answers: %w", err)
		}
		key, _ := tok.(string)
		question, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("decode answers: question index %q: %w", key, err)
		}
		if question < 0 {
			return fmt.Errorf("decode answers: negative question index %d", question)
		}
		var option int
		if err := dec.Decode(&option); err != nil {
			return fmt.Errorf("decode answers: option for question %d: %w", question, err)
		}
		if option < 0 {
			return fmt.Errorf("decode answers: negative option %d for question %d", option, question)
		}
		a.Set(question, option)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode answers: %w", err)
	}
	return nil
}
