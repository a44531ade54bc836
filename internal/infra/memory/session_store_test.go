package memory

import (
	"testing"

	"study-quiz-service/internal/session"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	c := session.New(sampleQuiz(), nil, session.Options{ID: "s-1"})

	store.Put(c)
	got, ok := store.Get("s-1")
	if !ok || got != c {
		t.Fatalf("expected session present")
	}
	store.Put(c)
	if got := store.List(); len(got) != 1 || got[0] != c {
		t.Fatalf("re-registering must not duplicate, got %d", len(got))
	}

	store.Delete("s-1")
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected session removed")
	}
}
