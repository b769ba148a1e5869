package application

import (
	"context"
	"testing"
)

// fakeTree adapts an *Index into input.WorkingTree for health tests,
// avoiding a dependency on a real sqlite.Store.
type fakeTree struct {
	*Index
	root string
}

func (f *fakeTree) Root() string { return f.root }
func (f *fakeTree) Close() error { return nil }

func TestHealthServiceNotReadyBeforeTreeOpened(t *testing.T) {
	svc := NewHealthService(nil)
	ctx := context.Background()

	if !svc.IsHealthy(ctx) {
		t.Error("expected IsHealthy() to be true even with no tree open")
	}
	if svc.IsReady(ctx) {
		t.Error("expected IsReady() to be false with no tree open")
	}
	status := svc.GetStatus(ctx)
	if status.Ready {
		t.Error("expected GetStatus().Ready to be false with no tree open")
	}
	if status.Components["store"] != "not-open" {
		t.Errorf("components[store] = %q, want %q", status.Components["store"], "not-open")
	}
}

func TestHealthServiceReadyWithOpenTree(t *testing.T) {
	ix, _, root := newTestIndex(t)
	tree := &fakeTree{Index: ix, root: root}
	svc := NewHealthService(tree)
	ctx := context.Background()

	if !svc.IsReady(ctx) {
		t.Error("expected IsReady() to be true with an open tree")
	}
	status := svc.GetStatus(ctx)
	if !status.Ready {
		t.Error("expected GetStatus().Ready to be true with an open tree")
	}
	if status.Components["store"] != "ok" {
		t.Errorf("components[store] = %q, want %q", status.Components["store"], "ok")
	}
}
