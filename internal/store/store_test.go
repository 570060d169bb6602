package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

// Both implementations must satisfy the same contract: whole-document reads
// and writes, ErrNotFound for absent documents, and serialized Updates.
func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) err = %v, want ErrNotFound", err)
	}

	doc := json.RawMessage(`{"a":1}`)
	if err := s.Put(ctx, DocAccounts, doc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, DocAccounts)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(doc) {
		t.Fatalf("Get = %s, want %s", got, doc)
	}

	// Update sees the current content and replaces it wholesale.
	err = s.Update(ctx, DocAccounts, func(raw json.RawMessage) (json.RawMessage, error) {
		if string(raw) != string(doc) {
			t.Errorf("Update saw %s, want %s", raw, doc)
		}
		return json.RawMessage(`{"a":2}`), nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = s.Get(ctx, DocAccounts)
	if err != nil {
		t.Fatalf("Get after Update: %v", err)
	}
	if string(got) != `{"a":2}` {
		t.Fatalf("Get after Update = %s", got)
	}

	// Update on an absent document passes nil to fn.
	err = s.Update(ctx, DocSessions, func(raw json.RawMessage) (json.RawMessage, error) {
		if raw != nil {
			t.Errorf("Update on absent doc saw %s, want nil", raw)
		}
		return json.RawMessage(`{}`), nil
	})
	if err != nil {
		t.Fatalf("Update absent: %v", err)
	}

	// An error from fn aborts the write.
	sentinel := errors.New("abort")
	err = s.Update(ctx, DocAccounts, func(raw json.RawMessage) (json.RawMessage, error) {
		return nil, sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Update err = %v, want the fn error", err)
	}
	got, err = s.Get(ctx, DocAccounts)
	if err != nil {
		t.Fatalf("Get after failed Update: %v", err)
	}
	if string(got) != `{"a":2}` {
		t.Fatalf("failed Update must not change the document, got %s", got)
	}
}

func testStoreConcurrentUpdates(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if err := s.Put(ctx, "counter", json.RawMessage(`0`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(ctx, "counter", func(raw json.RawMessage) (json.RawMessage, error) {
				var c int
				if err := json.Unmarshal(raw, &c); err != nil {
					return nil, err
				}
				return json.Marshal(c + 1)
			})
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	raw, err := s.Get(ctx, "counter")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var c int
	if err := json.Unmarshal(raw, &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if c != n {
		t.Fatalf("counter = %d, want %d (updates interleaved)", c, n)
	}
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	testStoreConcurrentUpdates(t, NewMemoryStore())
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Put(ctx, "doc", json.RawMessage(`"x"`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	raw, err := s.Get(ctx, "doc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	raw[1] = 'y'
	again, err := s.Get(ctx, "doc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(again) != `"x"` {
		t.Fatalf("mutating a returned document leaked into the store: %s", again)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	testStoreContract(t, s)
}

func TestFileStore_ConcurrentUpdates(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	testStoreConcurrentUpdates(t, s)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := first.Put(ctx, DocReports, json.RawMessage(`{"r":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	second, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	raw, err := second.Get(ctx, DocReports)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(raw) != `{"r":1}` {
		t.Fatalf("Get = %s, want the document written by the first instance", raw)
	}
}

func TestFileStore_EmptyDir(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Fatal("NewFileStore(\"\") should fail")
	}
}
