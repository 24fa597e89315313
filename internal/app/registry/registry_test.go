package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

type stubSession struct {
	id        string
	userID    int64
	projectID int64
}

func (s *stubSession) ID() string                             { return s.id }
func (s *stubSession) UserID() int64                          { return s.userID }
func (s *stubSession) ProjectID() int64                       { return s.projectID }
func (s *stubSession) Send(_ context.Context, _ []byte) error { return nil }
func (s *stubSession) Close()                                 {}

func newStub(id string, userID, projectID int64) *stubSession {
	return &stubSession{id: id, userID: userID, projectID: projectID}
}

func TestRegisterAndSessionsFor(t *testing.T) {
	r := NewRegistry()
	a := newStub("a", 1, 10)
	b := newStub("b", 2, 10)
	c := newStub("c", 3, 20)
	r.Register(a)
	r.Register(b)
	r.Register(c)

	if got := len(r.SessionsFor(10)); got != 2 {
		t.Fatalf("project 10: got %d sessions, want 2", got)
	}
	if got := len(r.SessionsFor(20)); got != 1 {
		t.Fatalf("project 20: got %d sessions, want 1", got)
	}
	if got := len(r.SessionsFor(99)); got != 0 {
		t.Fatalf("unknown project: got %d sessions, want 0", got)
	}
}

func TestUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	a := newStub("a", 1, 10)
	b := newStub("b", 2, 10)
	r.Register(a)
	r.Register(b)

	r.Unregister(a)
	r.Unregister(a)
	r.Unregister(newStub("never-registered", 7, 10))
	r.Unregister(newStub("x", 9, 99))

	sessions := r.SessionsFor(10)
	if len(sessions) != 1 || sessions[0].ID() != "b" {
		t.Fatalf("got %v, want only session b", sessions)
	}
	if r.UserPresent(10, 1) {
		t.Fatal("user 1 still present after unregister")
	}
	if !r.UserPresent(10, 2) {
		t.Fatal("user 2 should remain present")
	}
}

func TestMultipleSessionsPerUser(t *testing.T) {
	r := NewRegistry()
	tab1 := newStub("tab1", 1, 10)
	tab2 := newStub("tab2", 1, 10)
	r.Register(tab1)
	r.Register(tab2)

	if got := len(r.SessionsFor(10)); got != 2 {
		t.Fatalf("got %d sessions, want 2", got)
	}
	if got := r.UsersOnline(10); len(got) != 1 || got[0] != 1 {
		t.Fatalf("UsersOnline = %v, want [1]", got)
	}

	r.Unregister(tab1)
	if !r.UserPresent(10, 1) {
		t.Fatal("user should stay present while a second session is open")
	}
	r.Unregister(tab2)
	if r.UserPresent(10, 1) {
		t.Fatal("user should be gone after last session closes")
	}
	if got := r.UsersOnline(10); len(got) != 0 {
		t.Fatalf("UsersOnline = %v, want empty", got)
	}
}

func TestUsersOnlineSorted(t *testing.T) {
	r := NewRegistry()
	for i, uid := range []int64{42, 7, 19, 3} {
		r.Register(newStub(fmt.Sprintf("s%d", i), uid, 10))
	}
	got := r.UsersOnline(10)
	want := []int64{3, 7, 19, 42}
	if len(got) != len(want) {
		t.Fatalf("UsersOnline = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("UsersOnline = %v, want %v", got, want)
		}
	}
}

func TestScopeIsolation(t *testing.T) {
	r := NewRegistry()
	r.Register(newStub("a", 1, 10))
	r.Register(newStub("b", 1, 20))

	if !r.UserPresent(10, 1) || !r.UserPresent(20, 1) {
		t.Fatal("user should be present in both projects")
	}
	r.Unregister(newStub("a", 1, 10))
	if r.UserPresent(10, 1) {
		t.Fatal("user should be gone from project 10")
	}
	if !r.UserPresent(20, 1) {
		t.Fatal("project 20 must be unaffected")
	}
}

func TestCounts(t *testing.T) {
	r := NewRegistry()
	r.Register(newStub("a", 1, 10))
	r.Register(newStub("b", 2, 10))
	r.Register(newStub("c", 3, 20))

	total, perProject := r.Counts()
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if perProject[10] != 2 || perProject[20] != 1 {
		t.Fatalf("perProject = %v", perProject)
	}
}

func TestConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := newStub(fmt.Sprintf("s%d", i), int64(i%5+1), int64(i%3+1))
			r.Register(s)
			r.SessionsFor(s.ProjectID())
			r.UsersOnline(s.ProjectID())
			r.Unregister(s)
		}(i)
	}
	wg.Wait()

	total, _ := r.Counts()
	if total != 0 {
		t.Fatalf("total = %d after churn, want 0", total)
	}
}
