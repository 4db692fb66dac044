package workbench

import (
	"fmt"
	"sync"
	"testing"

	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
)

func sample(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.New(frame.Column{Name: "a", Type: frame.Numeric, Values: []any{1.0}})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestWorkbench_SetGet(t *testing.T) {
	w := New()
	f := sample(t)
	w.Set("sales", f)

	got, ok := w.Get("sales")
	if !ok || got != f {
		t.Fatal("expected stored frame")
	}
	s, ok := w.Shape("sales")
	if !ok || !s.HasColumn("a") {
		t.Errorf("unexpected shape %v", s)
	}
	if _, ok := w.Shape("missing"); ok {
		t.Error("expected no shape for missing frame")
	}
}

func TestWorkbench_FrameNotFound(t *testing.T) {
	_, err := New().Frame("missing")
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestWorkbench_DeleteNamesSnapshot(t *testing.T) {
	w := New()
	w.Load(map[string]*frame.Frame{"b": sample(t), "a": sample(t)})

	if names := w.Names(); len(names) != 2 || names[0] != "a" {
		t.Errorf("expected sorted names, got %v", names)
	}
	snap := w.Snapshot()
	if !w.Delete("a") {
		t.Error("Delete should report existing frame")
	}
	if w.Delete("a") {
		t.Error("second Delete should report missing frame")
	}
	if len(snap) != 2 {
		t.Error("snapshot should not change after Delete")
	}
}

func TestWorkbench_Concurrent(t *testing.T) {
	w := New()
	f := sample(t)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			w.Set(fmt.Sprint("k", i%5), f)
		}(i)
		go func() {
			defer wg.Done()
			w.Names()
		}()
	}
	wg.Wait()
	if len(w.Names()) != 5 {
		t.Errorf("expected 5 names, got %v", w.Names())
	}
}
