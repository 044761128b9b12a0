package convmem_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mkoziel/vitrine/internal/convmem"
)

func TestMemoryStore_PutGetEvict(t *testing.T) {
	t.Parallel()

	s := convmem.NewMemoryStore()

	if _, ok := s.Get("s1"); ok {
		t.Fatal("Get returned a session from an empty store")
	}

	s.Put(convmem.Session{ID: "s1", TotalMessages: 3, LastActive: time.Now()})

	sess, ok := s.Get("s1")
	if !ok || sess.TotalMessages != 3 {
		t.Fatalf("Get = %+v ok=%v, want stored session", sess, ok)
	}

	if !s.Evict("s1") {
		t.Error("Evict returned false for existing session")
	}
	if s.Evict("s1") {
		t.Error("Evict returned true for missing session")
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	s := convmem.NewMemoryStore()
	s.Put(convmem.Session{ID: "s1", Messages: []convmem.Message{{Content: "original"}}})

	sess, _ := s.Get("s1")
	sess.Messages[0].Content = "tampered"

	fresh, _ := s.Get("s1")
	if fresh.Messages[0].Content != "original" {
		t.Error("mutation of a returned session leaked into the store")
	}
}

func TestMemoryStore_List(t *testing.T) {
	t.Parallel()

	s := convmem.NewMemoryStore()
	for i := 0; i < 10; i++ {
		s.Put(convmem.Session{ID: fmt.Sprintf("s%d", i)})
	}

	if got := len(s.List()); got != 10 {
		t.Errorf("List returned %d sessions, want 10", got)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := convmem.NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", n%8)
			s.Put(convmem.Session{ID: id, TotalMessages: n})
			s.Get(id)
			s.List()
		}(i)
	}
	wg.Wait()

	if got := len(s.List()); got != 8 {
		t.Errorf("List returned %d sessions, want 8", got)
	}
}
