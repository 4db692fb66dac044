package dag

import (
	"slices"
	"sync"
	"testing"

	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/operation"
	"github.com/kbukum/tabflow/ops"
	"github.com/kbukum/tabflow/workbench"
)

type fixture struct {
	wb  *workbench.Workbench
	reg *operation.Registry
	g   *OperationDag
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	wb := workbench.New()
	raw, err := frame.New(
		frame.Column{Name: "a", Type: frame.Numeric, Values: []any{1.0, 2.0, 3.0}},
		frame.Column{Name: "b", Type: frame.String, Values: []any{"x", "y", "z"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	text, err := frame.New(frame.Column{Name: "s", Type: frame.String, Values: []any{"p"}})
	if err != nil {
		t.Fatal(err)
	}
	wb.Set("raw", raw)
	wb.Set("text", text)
	return &fixture{wb: wb, reg: ops.NewRegistry(wb), g: New()}
}

func (f *fixture) add(t *testing.T, name string, opts operation.Options) int {
	t.Helper()
	op, err := f.reg.New(name)
	if err != nil {
		t.Fatal(err)
	}
	n := f.g.NewNode(op)
	if !f.g.AddNode(n) {
		t.Fatalf("AddNode(%d) = false", n.ID())
	}
	if opts != nil {
		if _, err := f.g.UpdateNodeOptions(n.ID(), opts); err != nil {
			t.Fatalf("UpdateNodeOptions(%s): %v", name, err)
		}
	}
	return n.ID()
}

func (f *fixture) connect(t *testing.T, source, target, slot int) {
	t.Helper()
	if ok, err := f.g.AddConnection(source, target, slot); !ok || err != nil {
		t.Fatalf("AddConnection(%d, %d, %d) = %v, %v", source, target, slot, ok, err)
	}
}

var rawShape = frame.MustShape([]frame.Field{{Name: "a", Type: frame.Numeric}, {Name: "b", Type: frame.String}})

func TestAddNode(t *testing.T) {
	f := newFixture(t)
	op, _ := f.reg.New(ops.ScaleName)
	n := f.g.NewNode(op)
	if !f.g.AddNode(n) {
		t.Fatal("first AddNode should succeed")
	}
	if f.g.AddNode(n) {
		t.Error("second AddNode with the same id should fail")
	}
	if f.g.AddNode(nil) {
		t.Error("AddNode(nil) should fail")
	}
	if next := f.g.NewNode(op); next.ID() != n.ID()+1 {
		t.Errorf("next id = %d, want %d", next.ID(), n.ID()+1)
	}
	if f.g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", f.g.Len())
	}
}

func TestAddConnection_Errors(t *testing.T) {
	f := newFixture(t)
	in := f.add(t, ops.InputName, operation.Options{"frame": "raw"})
	text := f.add(t, ops.InputName, operation.Options{"frame": "text"})
	sc := f.add(t, ops.ScaleName, nil)
	drop := f.add(t, ops.DropColumnsName, nil)
	out := f.add(t, ops.ToVariableName, operation.Options{"name": "out"})
	merge := f.add(t, ops.MergeColumnsName, nil)
	hot := f.add(t, ops.OneHotName, nil)
	sc2 := f.add(t, ops.ScaleName, nil)
	drop2 := f.add(t, ops.DropColumnsName, nil)

	f.connect(t, in, sc, 0)
	f.connect(t, sc, drop, 0)
	f.connect(t, drop, out, 0)
	f.connect(t, in, merge, 0)

	tests := []struct {
		name           string
		source, target int
		slot           int
		code           errors.ErrorCode
	}{
		{"unknown source", 99, sc, 0, errors.ErrCodeNodeNotFound},
		{"unknown target", in, 99, 0, errors.ErrCodeNodeNotFound},
		{"self loop", sc, sc, 0, errors.ErrCodeCycle},
		{"cycle", drop, sc, 0, errors.ErrCodeCycle},
		{"duplicate", in, sc, 0, errors.ErrCodeDuplicateEdge},
		{"into input", drop2, in, 0, errors.ErrCodeArity},
		{"out of output", out, drop2, 0, errors.ErrCodeArity},
		{"full target", text, sc, 0, errors.ErrCodeArity},
		{"negative slot", in, drop2, -1, errors.ErrCodeInvalidSlot},
		{"slot out of range", text, merge, 2, errors.ErrCodeInvalidSlot},
		{"slot occupied", text, merge, 0, errors.ErrCodeInvalidSlot},
		{"unknown shape", hot, sc2, 0, errors.ErrCodeShapeUnknown},
		{"incompatible types", text, sc2, 0, errors.ErrCodeIncompatibleTypes},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			edges := f.g.Edges()
			ok, err := f.g.AddConnection(tc.source, tc.target, tc.slot)
			if ok || !errors.HasCode(err, tc.code) {
				t.Fatalf("AddConnection = %v, %v; want %s", ok, err, tc.code)
			}
			if got := f.g.Edges(); !slices.Equal(got, edges) {
				t.Errorf("edges changed on failure: %v -> %v", edges, got)
			}
		})
	}
}

func TestAddConnection_BindsShape(t *testing.T) {
	f := newFixture(t)
	l := f.add(t, ops.InputName, operation.Options{"frame": "raw"})
	tr := f.add(t, ops.ScaleName, nil)
	w := f.add(t, ops.ToVariableName, operation.Options{"name": "out"})

	f.connect(t, l, tr, 0)
	got, err := f.g.InputShape(tr, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got.Columns, rawShape.Columns) {
		t.Errorf("T input shape = %v, want %v", got, rawShape)
	}

	if _, err := f.g.UpdateNodeOptions(tr, operation.Options{"columns": "a"}); err != nil {
		t.Fatal(err)
	}
	f.connect(t, tr, w, 0)
	if got, _ := f.g.InputShape(w, 0); !slices.Equal(got.Columns, rawShape.Columns) {
		t.Errorf("W input shape = %v, want %v", got, rawShape)
	}
	if s, known, _ := f.g.OutputShape(w); !known || !s.Equal(rawShape) {
		t.Errorf("W output shape = %v, %v", s, known)
	}
}

func TestUpdateNodeOptions_Propagates(t *testing.T) {
	f := newFixture(t)
	wide, _ := frame.New(
		frame.Column{Name: "a", Type: frame.Numeric, Values: []any{1.0}},
		frame.Column{Name: "b", Type: frame.Numeric, Values: []any{2.0}},
		frame.Column{Name: "c", Type: frame.Numeric, Values: []any{3.0}},
	)
	f.wb.Set("wide", wide)

	l := f.add(t, ops.InputName, operation.Options{"frame": "wide"})
	d := f.add(t, ops.DropColumnsName, nil)
	s := f.add(t, ops.ScaleName, nil)
	f.connect(t, l, d, 0)
	f.connect(t, d, s, 0)

	if got, _ := f.g.InputShape(s, 0); got != nil {
		t.Fatalf("scale slot bound before drop is configured: %v", got)
	}
	if _, err := f.g.UpdateNodeOptions(s, operation.Options{"columns": []string{"a", "c"}}); err != nil {
		t.Fatal(err)
	}

	changed, err := f.g.UpdateNodeOptions(d, operation.Options{"columns": "b"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := changed[d]; !ok {
		t.Errorf("changed = %v, want it to contain %d", changed, d)
	}
	scale, _ := f.g.Node(s)
	if got := scale.Operation().Options()["columns"]; !slices.Equal(got.([]string), []string{"a", "c"}) {
		t.Errorf("scale columns = %v", got)
	}

	changed, err = f.g.UpdateNodeOptions(d, operation.Options{"columns": []string{"a", "c"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := changed[s]; !ok {
		t.Errorf("changed = %v, want it to contain %d", changed, s)
	}
	if scale.Operation().HasOptions() {
		t.Error("scale options should be unset once no selected column remains")
	}

	again, err := f.g.UpdateNodeOptions(d, operation.Options{"columns": []string{"a", "c"}})
	if err != nil || len(again) != 0 {
		t.Errorf("repeated update = %v, %v; want no change", again, err)
	}

	_, err = f.g.UpdateNodeOptions(d, operation.Options{"columns": "zzz"})
	if !errors.HasCode(err, errors.ErrCodeInvalidOptions) {
		t.Errorf("invalid options: err = %v", err)
	}
	if _, err := f.g.UpdateNodeOptions(99, nil); !errors.HasCode(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("unknown node: err = %v", err)
	}
}

func TestRetraction(t *testing.T) {
	f := newFixture(t)
	l := f.add(t, ops.InputName, operation.Options{"frame": "raw"})
	tr := f.add(t, ops.ScaleName, nil)
	w := f.add(t, ops.ToVariableName, operation.Options{"name": "out"})
	f.connect(t, l, tr, 0)
	if _, err := f.g.UpdateNodeOptions(tr, operation.Options{"columns": "a"}); err != nil {
		t.Fatal(err)
	}
	f.connect(t, tr, w, 0)

	invalidated, err := f.g.RemoveConnection(l, tr)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := invalidated[tr]; !ok || len(invalidated) != 1 {
		t.Errorf("invalidated = %v, want {%d}", invalidated, tr)
	}
	if got, _ := f.g.InputShape(tr, 0); got != nil {
		t.Errorf("slot not cleared: %v", got)
	}
	n, _ := f.g.Node(tr)
	if n.Operation().HasOptions() {
		t.Error("scale options should be unset after losing its input")
	}
	if _, ok := n.Slot(l); ok {
		t.Error("input order still lists the removed predecessor")
	}
	if got, _ := f.g.InputShape(w, 0); got == nil {
		t.Error("retraction must not reach beyond the immediate target")
	}

	if _, err := f.g.RemoveConnection(l, tr); !errors.HasCode(err, errors.ErrCodeEdgeNotFound) {
		t.Errorf("second removal: err = %v", err)
	}

	invalidated, err = f.g.RemoveNode(tr)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := invalidated[w]; !ok {
		t.Errorf("invalidated = %v, want it to contain %d", invalidated, w)
	}
	if _, ok := f.g.Node(tr); ok {
		t.Error("node still present")
	}
	if f.g.InDegree(w) != 0 || len(f.g.Edges()) != 0 {
		t.Errorf("edges left: %v", f.g.Edges())
	}
	if _, err := f.g.RemoveNode(tr); !errors.HasCode(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("second RemoveNode: err = %v", err)
	}
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	l := f.add(t, ops.InputName, operation.Options{"frame": "later"})
	tr := f.add(t, ops.DropColumnsName, nil)
	f.connect(t, l, tr, 0)
	if got, _ := f.g.InputShape(tr, 0); got != nil {
		t.Fatalf("slot bound before the frame exists: %v", got)
	}

	raw, _ := f.wb.Get("raw")
	f.wb.Set("later", raw)
	changed := f.g.Refresh()
	if _, ok := changed[l]; !ok {
		t.Errorf("changed = %v, want it to contain %d", changed, l)
	}
	if got, _ := f.g.InputShape(tr, 0); got == nil || !got.Equal(rawShape) {
		t.Errorf("slot = %v, want %v", got, rawShape)
	}
}

func TestLevelsAndAccessors(t *testing.T) {
	f := newFixture(t)
	a := f.add(t, ops.InputName, operation.Options{"frame": "raw"})
	b := f.add(t, ops.InputName, operation.Options{"frame": "raw"})
	m := f.add(t, ops.MergeColumnsName, nil)
	w := f.add(t, ops.ToVariableName, operation.Options{"name": "out"})
	f.connect(t, b, m, 1)
	f.connect(t, a, m, 0)
	f.connect(t, m, w, 0)

	if got := f.g.Levels(); len(got) != 3 || !slices.Equal(got[0], []int{a, b}) {
		t.Errorf("Levels() = %v", got)
	}
	if got := f.g.TopologicalOrder(); !slices.Equal(got, []int{a, b, m, w}) {
		t.Errorf("TopologicalOrder() = %v", got)
	}
	if got := f.g.Predecessors(m); !slices.Equal(got, []int{a, b}) {
		t.Errorf("Predecessors() = %v", got)
	}
	if got := f.g.Successors(a); !slices.Equal(got, []int{m}) {
		t.Errorf("Successors() = %v", got)
	}
	if got := f.g.InputNodes(); !slices.Equal(got, []int{a, b}) {
		t.Errorf("InputNodes() = %v", got)
	}
	want := []Edge{{a, m, 0}, {b, m, 1}, {m, w, 0}}
	if got := f.g.Edges(); !slices.Equal(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
	if s, known, _ := f.g.OutputShape(m); !known || s.NumColumns() != 4 {
		t.Errorf("merge output = %v, %v", s, known)
	}

	snap := f.g.Snapshot()
	if got := snap.Reachable(snap.Inputs); !slices.Equal(got, []int{a, b, m, w}) {
		t.Errorf("Reachable() = %v", got)
	}
	if snap.InputOrder[m][b] != 1 {
		t.Errorf("snapshot input order = %v", snap.InputOrder[m])
	}

	if err := f.g.SetMetadata(m, map[string]any{"x": 1}); err != nil {
		t.Fatal(err)
	}
	if md, _ := f.g.Metadata(m); md["x"] != 1 {
		t.Errorf("Metadata() = %v", md)
	}
	if err := f.g.SetMetadata(99, nil); !errors.HasCode(err, errors.ErrCodeNodeNotFound) {
		t.Errorf("SetMetadata unknown: %v", err)
	}
}

func TestNodeBuffer(t *testing.T) {
	n := newNode(7, nil)
	one, _ := frame.New(frame.Column{Name: "one", Type: frame.Numeric, Values: []any{}})
	two, _ := frame.New(frame.Column{Name: "two", Type: frame.Numeric, Values: []any{}})
	order := map[int]int{3: 1, 5: 0}

	if got := n.Receive(3, one); got != 1 {
		t.Errorf("Receive() = %d, want 1", got)
	}
	if got := n.Receive(5, two); got != 2 {
		t.Errorf("Receive() = %d, want 2", got)
	}
	inputs := n.TakeInputs(order)
	if len(inputs) != 2 || inputs[0] != two || inputs[1] != one {
		t.Errorf("TakeInputs() not ordered by slot")
	}
	if got := n.Receive(3, one); got != 1 {
		t.Errorf("buffer not cleared, Receive() = %d", got)
	}

	n.SetStatus(StatusProgress)
	if n.Status() != StatusProgress || n.Status().String() != "PROGRESS" {
		t.Errorf("Status() = %v", n.Status())
	}
}

func TestOperationDag_Concurrent(t *testing.T) {
	f := newFixture(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			op, _ := f.reg.New(ops.DropColumnsName)
			n := f.g.NewNode(op)
			f.g.AddNode(n)
			_ = f.g.Edges()
			_ = f.g.Snapshot()
		}()
	}
	wg.Wait()
	if f.g.Len() != 16 {
		t.Errorf("Len() = %d, want 16", f.g.Len())
	}
}
