package ops

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/frame"
	"github.com/kbukum/tabflow/operation"
	"github.com/kbukum/tabflow/workbench"
)

func numCol(name string, values ...any) frame.Column {
	return frame.Column{Name: name, Type: frame.Numeric, Values: values}
}

func strCol(name string, t frame.Type, values ...any) frame.Column {
	return frame.Column{Name: name, Type: t, Values: values}
}

func mustFrame(t *testing.T, cols ...frame.Column) *frame.Frame {
	t.Helper()
	f, err := frame.New(cols...)
	if err != nil {
		t.Fatalf("frame.New: %v", err)
	}
	return f
}

func configure(t *testing.T, op operation.Operation, in *frame.Frame, opts operation.Options) {
	t.Helper()
	if in != nil {
		if err := op.SetInputShape(0, in.Shape()); err != nil {
			t.Fatalf("SetInputShape: %v", err)
		}
	}
	if err := op.SetOptions(opts); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
}

func floats(t *testing.T, f *frame.Frame, name string) []float64 {
	t.Helper()
	c, ok := f.Column(name)
	if !ok {
		t.Fatalf("column %q missing", name)
	}
	out := make([]float64, len(c.Values))
	for i := range c.Values {
		v, ok := c.Float(i)
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

func approxEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) != math.IsNaN(b[i]) {
			return false
		}
		if !math.IsNaN(a[i]) && math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestRegistry_BuiltIns(t *testing.T) {
	reg := NewRegistry(workbench.New())
	want := []string{DropColumnsName, InputName, MergeColumnsName, OneHotName, RenameColumnsName, ScaleName, ToVariableName}
	slices.Sort(want)
	if got := reg.List(); !slices.Equal(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
	for _, name := range want {
		op, err := reg.New(name)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if op.Name() != name {
			t.Errorf("New(%q).Name() = %q", name, op.Name())
		}
	}
}

func TestInputAndToVariable(t *testing.T) {
	wb := workbench.New()
	in := NewInput(wb)
	if err := in.SetOptions(operation.Options{"frame": "raw"}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	if _, ok := operation.OutputShape(in); ok {
		t.Error("shape of a missing frame should be unknown")
	}
	if _, err := in.Execute(context.Background()); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("Execute without frame: err = %v, want NOT_FOUND", err)
	}

	raw := mustFrame(t, numCol("a", 1.0, 2.0))
	wb.Set("raw", raw)
	s, ok := operation.OutputShape(in)
	if !ok || !s.Equal(raw.Shape()) {
		t.Errorf("OutputShape() = %v, %v", s, ok)
	}

	out := NewToVariable(wb)
	configure(t, out, raw, operation.Options{"name": "result"})
	got, err := out.Execute(context.Background(), raw)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != raw {
		t.Error("ToVariable should pass its input on")
	}
	if stored, ok := wb.Get("result"); !ok || stored != raw {
		t.Error("ToVariable did not store the frame")
	}

	if err := NewInput(wb).SetOptions(operation.Options{}); !errors.HasCode(err, errors.ErrCodeInvalidOptions) {
		t.Errorf("missing frame option: err = %v", err)
	}
}

func TestScale_Execute(t *testing.T) {
	in := mustFrame(t,
		numCol("x", 1.0, 2.0, 3.0),
		numCol("c", 5.0, 5.0, 5.0),
		numCol("n", 2.0, nil, 4.0),
		strCol("s", frame.String, "a", "b", "c"),
	)
	inv := 1 / math.Sqrt(2.0/3.0)
	tests := []struct {
		name string
		opts operation.Options
		col  string
		want []float64
	}{
		{"minmax default range", operation.Options{"columns": []string{"x"}}, "x", []float64{0, 0.5, 1}},
		{"minmax custom range", operation.Options{"columns": []any{"x"}, "range": []any{-1, 1}}, "x", []float64{-1, 0, 1}},
		{"minmax constant column", operation.Options{"columns": "c"}, "c", []float64{0, 0, 0}},
		{"minmax keeps missing", operation.Options{"columns": "n"}, "n", []float64{0, math.NaN(), 1}},
		{"standard", operation.Options{"columns": "x", "method": "standard"}, "x", []float64{-inv, 0, inv}},
		{"standard constant column", operation.Options{"columns": "c", "method": "standard"}, "c", []float64{0, 0, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			op := NewScale()
			configure(t, op, in, tc.opts)
			out, err := op.Execute(context.Background(), in)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got := floats(t, out, tc.col); !approxEqual(got, tc.want) {
				t.Errorf("%s = %v, want %v", tc.col, got, tc.want)
			}
			if !out.Shape().Equal(in.Shape()) {
				t.Errorf("shape changed: %v", out.Shape())
			}
			if got := floats(t, in, "x"); !approxEqual(got, []float64{1, 2, 3}) {
				t.Errorf("input modified: %v", got)
			}
		})
	}
}

func TestScale_SetOptionsErrors(t *testing.T) {
	shape := mustFrame(t, numCol("x"), strCol("s", frame.String)).Shape()
	tests := []struct {
		name string
		opts operation.Options
	}{
		{"no columns", operation.Options{}},
		{"unknown column", operation.Options{"columns": "y"}},
		{"non numeric column", operation.Options{"columns": "s"}},
		{"duplicate column", operation.Options{"columns": []string{"x", "x"}}},
		{"bad method", operation.Options{"columns": "x", "method": "log"}},
		{"inverted range", operation.Options{"columns": "x", "range": []float64{1, 0}}},
		{"range with standard", operation.Options{"columns": "x", "method": "standard", "range": []float64{0, 2}}},
		{"unknown key", operation.Options{"columns": "x", "scale": 2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			op := NewScale()
			if err := op.SetInputShape(0, shape); err != nil {
				t.Fatal(err)
			}
			err := op.SetOptions(tc.opts)
			if !errors.HasCode(err, errors.ErrCodeInvalidOptions) {
				t.Errorf("err = %v, want INVALID_OPTIONS", err)
			}
			if op.HasOptions() {
				t.Error("failed SetOptions stored options")
			}
		})
	}
}

func TestScale_UnsetOptionsPrunes(t *testing.T) {
	op := NewScale()
	configure(t, op, mustFrame(t, numCol("a"), numCol("b")), operation.Options{"columns": []string{"a", "b"}, "method": "standard"})

	if err := op.SetInputShape(0, mustFrame(t, numCol("a"), strCol("b", frame.String)).Shape()); err != nil {
		t.Fatal(err)
	}
	op.UnsetOptions()
	opts, ok := op.Get()
	if !ok {
		t.Fatal("options dropped, want pruned")
	}
	if !slices.Equal(opts.Columns, []string{"a"}) || opts.Method != MethodStandard {
		t.Errorf("pruned options = %+v", opts)
	}

	if err := op.SetInputShape(0, mustFrame(t, numCol("z")).Shape()); err != nil {
		t.Fatal(err)
	}
	op.UnsetOptions()
	if op.HasOptions() {
		t.Error("options should be unset when no column survives")
	}
}

func TestScale_OutputShape(t *testing.T) {
	op := NewScale()
	in := mustFrame(t, numCol("a"))
	if err := op.SetInputShape(0, in.Shape()); err != nil {
		t.Fatal(err)
	}
	if _, ok := operation.OutputShape(op); ok {
		t.Error("shape known without options")
	}
	configure(t, op, nil, operation.Options{"columns": "a"})
	s, ok := operation.OutputShape(op)
	if !ok || !s.Equal(in.Shape()) {
		t.Errorf("OutputShape() = %v, %v", s, ok)
	}
	if got := op.Options(); !slices.Equal(got["columns"].([]string), []string{"a"}) || got["method"] != MethodMinMax {
		t.Errorf("Options() = %v", got)
	}
}

func TestDropColumns(t *testing.T) {
	in := mustFrame(t, numCol("a", 1.0), numCol("b", 2.0), strCol("c", frame.Nominal, "x"))
	op := NewDropColumns()
	configure(t, op, in, operation.Options{"columns": []string{"b", "c"}})
	out, err := op.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := out.Shape().ColumnNames(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("columns = %v", got)
	}

	bad := NewDropColumns()
	_ = bad.SetInputShape(0, in.Shape())
	if err := bad.SetOptions(operation.Options{"columns": "zz"}); !errors.HasCode(err, errors.ErrCodeInvalidOptions) {
		t.Errorf("unknown column: err = %v", err)
	}

	// Execution checks the columns again when the shape was unknown.
	late := NewDropColumns()
	configure(t, late, nil, operation.Options{"columns": "zz"})
	if _, err := late.Execute(context.Background(), in); err == nil {
		t.Error("Execute with missing column should fail")
	}
}

func TestRenameColumns(t *testing.T) {
	in := mustFrame(t, numCol("a", 1.0), numCol("b", 2.0))
	tests := []struct {
		name    string
		names   map[string]any
		want    []string
		wantErr bool
	}{
		{"rename one", map[string]any{"a": "x"}, []string{"x", "b"}, false},
		{"swap", map[string]any{"a": "b", "b": "a"}, []string{"b", "a"}, false},
		{"collision", map[string]any{"a": "b"}, nil, true},
		{"same target", map[string]any{"a": "x", "b": "x"}, nil, true},
		{"unknown source", map[string]any{"q": "x"}, nil, true},
		{"empty target", map[string]any{"a": ""}, nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			op := NewRenameColumns()
			if err := op.SetInputShape(0, in.Shape()); err != nil {
				t.Fatal(err)
			}
			err := op.SetOptions(operation.Options{"names": tc.names})
			if tc.wantErr {
				if !errors.HasCode(err, errors.ErrCodeInvalidOptions) {
					t.Errorf("err = %v, want INVALID_OPTIONS", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetOptions: %v", err)
			}
			out, err := op.Execute(context.Background(), in)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got := out.Shape().ColumnNames(); !slices.Equal(got, tc.want) {
				t.Errorf("columns = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOneHot(t *testing.T) {
	in := mustFrame(t,
		numCol("id", 1.0, 2.0, 3.0, 4.0),
		strCol("color", frame.Nominal, "red", "blue", nil, "red"),
	)
	tests := []struct {
		name    string
		opts    operation.Options
		columns []string
		red     []float64
	}{
		{"without missing", operation.Options{"columns": "color"}, []string{"id", "color_blue", "color_red"}, []float64{1, 0, 0, 1}},
		{"with missing", operation.Options{"columns": "color", "include_missing": true}, []string{"id", "color_blue", "color_red", "color_nan"}, []float64{1, 0, 0, 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			op := NewOneHot()
			configure(t, op, in, tc.opts)
			out, err := op.Execute(context.Background(), in)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got := out.Shape().ColumnNames(); !slices.Equal(got, tc.columns) {
				t.Errorf("columns = %v, want %v", got, tc.columns)
			}
			if got := floats(t, out, "color_red"); !approxEqual(got, tc.red) {
				t.Errorf("color_red = %v, want %v", got, tc.red)
			}
			if _, ok := operation.OutputShape(op); ok {
				t.Error("one-hot output shape should be unknown")
			}
		})
	}

	op := NewOneHot()
	_ = op.SetInputShape(0, in.Shape())
	if err := op.SetOptions(operation.Options{"columns": "id"}); !errors.HasCode(err, errors.ErrCodeInvalidOptions) {
		t.Errorf("numeric column: err = %v", err)
	}
}

func TestMergeColumns(t *testing.T) {
	left := mustFrame(t, numCol("a", 1.0, 2.0), numCol("b", 3.0, 4.0))
	right := mustFrame(t, numCol("b", 5.0, 6.0), strCol("c", frame.String, "x", "y"))

	op := NewMergeColumns()
	if !op.HasOptions() || op.NeedsOptions() {
		t.Fatal("merge should run with default options")
	}
	out, err := op.Execute(context.Background(), left, right)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := out.Shape().ColumnNames(); !slices.Equal(got, []string{"a", "b_l", "b_r", "c"}) {
		t.Errorf("columns = %v", got)
	}

	if err := op.SetOptions(operation.Options{"lsuffix": "_x", "rsuffix": "_x"}); !errors.HasCode(err, errors.ErrCodeInvalidOptions) {
		t.Errorf("equal suffixes: err = %v", err)
	}
	if err := op.SetOptions(operation.Options{"lsuffix": "_left"}); err != nil {
		t.Fatalf("SetOptions: %v", err)
	}
	op.UnsetOptions()
	opts, _ := op.Get()
	if opts.LSuffix != "_left" || opts.RSuffix != "_r" {
		t.Errorf("options after UnsetOptions = %+v", opts)
	}

	short := mustFrame(t, numCol("z", 1.0))
	if _, err := op.Execute(context.Background(), left, short); err == nil {
		t.Error("row mismatch should fail")
	}

	_ = op.SetInputShape(0, left.Shape())
	_ = op.SetInputShape(1, right.Shape())
	s, ok := operation.OutputShape(op)
	if !ok || s.NumColumns() != 4 {
		t.Errorf("OutputShape() = %v, %v", s, ok)
	}
}
