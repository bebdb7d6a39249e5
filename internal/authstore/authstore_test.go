package authstore

import (
	"testing"

	"github.com/peterbecom/autocompeter/pkg/types"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.AuthStoreConfig{DataDir: t.TempDir(), CacheSize: 1 << 20})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestResolveUnknownKeyFails(t *testing.T) {
	s := openTest(t)
	if _, ok := s.Resolve("xyz123"); ok {
		t.Fatal("unknown key should not resolve")
	}
}

func TestResolveEmptyKeyFails(t *testing.T) {
	s := openTest(t)
	if _, ok := s.Resolve(""); ok {
		t.Fatal("empty key should not resolve")
	}
}

func TestSetThenResolve(t *testing.T) {
	s := openTest(t)
	if err := s.Set("xyz123", "peterbecom"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	domain, ok := s.Resolve("xyz123")
	if !ok || domain != "peterbecom" {
		t.Fatalf("Resolve = %q, %v, want peterbecom, true", domain, ok)
	}
}

func TestDeleteRemovesKey(t *testing.T) {
	s := openTest(t)
	if err := s.Set("xyz123", "peterbecom"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Delete("xyz123"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := s.Resolve("xyz123"); ok {
		t.Fatal("key should be gone after delete")
	}
}

func TestEntriesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(types.AuthStoreConfig{DataDir: dir, CacheSize: 1 << 20})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set("xyz123", "peterbecom"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(types.AuthStoreConfig{DataDir: dir, CacheSize: 1 << 20})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	domain, ok := s2.Resolve("xyz123")
	if !ok || domain != "peterbecom" {
		t.Fatalf("Resolve after reopen = %q, %v", domain, ok)
	}
}
