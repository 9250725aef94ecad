package checkpoint

import "testing"

func TestCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()

	m, err := New(dir, "doc-1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.IsCompleted("sections") {
		t.Fatal("fresh checkpoint must have no completed steps")
	}

	if err := m.MarkCompleted("sections"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := m.Store("chunks", "42"); err != nil {
		t.Fatalf("Store: %v", err)
	}

	// Reload from disk.
	reloaded, err := New(dir, "doc-1")
	if err != nil {
		t.Fatalf("New (reload): %v", err)
	}
	if !reloaded.IsCompleted("sections") {
		t.Error("completed step lost across reload")
	}
	if v, ok := reloaded.Load("chunks"); !ok || v != "42" {
		t.Errorf("artifact lost across reload: %q %v", v, ok)
	}

	if err := reloaded.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	fresh, err := New(dir, "doc-1")
	if err != nil {
		t.Fatalf("New (after reset): %v", err)
	}
	if fresh.IsCompleted("sections") {
		t.Error("reset checkpoint must forget progress")
	}
}

func TestCheckpointsAreDocScoped(t *testing.T) {
	dir := t.TempDir()

	a, err := New(dir, "doc-a")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.MarkCompleted("sections"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	b, err := New(dir, "doc-b")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.IsCompleted("sections") {
		t.Error("checkpoints must not leak between documents")
	}
}
