package value

import "testing"

func TestStoreSetRequiresExistingLocation(t *testing.T) {
	s := NewDataStore()
	if err := s.Set("x", Integer(1)); err == nil {
		t.Fatalf("expected error assigning to undeclared location")
	}
	s.Declare("x", Integer(1))
	if err := s.Set("x", Integer(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ := s.Get("x")
	if v.Int() != 2 {
		t.Fatalf("expected 2, got %v", v.Int())
	}
}

func TestStoreSetRejectsReadOnly(t *testing.T) {
	s := NewDataStore()
	s.Declare("ro", Integer(1).WithReadOnly())
	if err := s.Set("ro", Integer(2)); err == nil {
		t.Fatalf("expected error assigning to read-only location")
	}
}

func TestStoreDeclareSkipsExistingReadOnlyBinding(t *testing.T) {
	s := NewDataStore()
	s.Declare("ro", Integer(1).WithReadOnly())
	s.Declare("ro", Integer(2))
	v, ok := s.Get("ro")
	if !ok || v.Int() != 1 {
		t.Fatalf("expected Declare to leave the read-only binding at 1, got %v ok=%v", v.Int(), ok)
	}
}

func TestStoreAssignOverwritesUnconditionally(t *testing.T) {
	s := NewDataStore()
	s.Assign("y", String("a"))
	s.Assign("y", String("b"))
	v, ok := s.Get("y")
	if !ok || v.Str() != "b" {
		t.Fatalf("expected y=b, got %v ok=%v", v, ok)
	}

	s.Declare("ro", Integer(1).WithReadOnly())
	s.Assign("ro", Integer(2))
	v, ok = s.Get("ro")
	if !ok || v.Int() != 2 {
		t.Fatalf("expected Assign to overwrite even a read-only binding, got %v ok=%v", v.Int(), ok)
	}
}

func TestStoreSnapshotRestore(t *testing.T) {
	s := NewDataStore()
	s.Declare("a", Integer(1))
	s.Declare("b", Integer(2))
	snap := s.Snapshot()

	s.Declare("a", Integer(99))
	s.Delete("b")

	s.Restore(snap)
	a, _ := s.Get("a")
	b, bok := s.Get("b")
	if a.Int() != 1 {
		t.Fatalf("expected restored a=1, got %v", a.Int())
	}
	if !bok || b.Int() != 2 {
		t.Fatalf("expected restored b=2, got %v ok=%v", b.Int(), bok)
	}
}
