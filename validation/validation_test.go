package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/tabflow/errors"
)

type scaleOptions struct {
	Columns []string `mapstructure:"columns" validate:"min=1,unique"`
	Method  string   `mapstructure:"method" validate:"oneof=minmax standard"`
}

type serverRequest struct {
	Host       string `json:"host" validate:"required"`
	MaxWorkers int    `json:"max_workers" validate:"gte=1"`
}

type nested struct {
	Scheduler struct {
		MaxWorkers int `mapstructure:"max_workers" validate:"gte=1"`
	} `mapstructure:"scheduler"`
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name   string
		opts   scaleOptions
		fields []string
	}{
		{"valid", scaleOptions{Columns: []string{"a"}, Method: "minmax"}, nil},
		{"no columns", scaleOptions{Method: "minmax"}, []string{"columns"}},
		{"duplicate columns", scaleOptions{Columns: []string{"a", "a"}, Method: "standard"}, []string{"columns"}},
		{"bad method", scaleOptions{Columns: []string{"a"}, Method: "zscore"}, []string{"method"}},
		{"everything wrong", scaleOptions{Method: "zscore"}, []string{"columns", "method"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateOptions(tc.opts)
			if tc.fields == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.HasCode(err, errors.ErrCodeInvalidOptions) {
				t.Fatalf("expected INVALID_OPTIONS, got %v", err)
			}
			appErr, _ := errors.AsAppError(err)
			fields, ok := appErr.Details["fields"].([]FieldError)
			if !ok {
				t.Fatalf("expected []FieldError in details, got %T", appErr.Details["fields"])
			}
			if len(fields) != len(tc.fields) {
				t.Fatalf("expected %d field errors, got %v", len(tc.fields), fields)
			}
			for i, f := range fields {
				if f.Field != tc.fields[i] {
					t.Errorf("field %d: expected %q, got %q", i, tc.fields[i], f.Field)
				}
			}
		})
	}
}

func TestValidate_UsesJSONNames(t *testing.T) {
	err := Validate(serverRequest{})
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	for _, want := range []string{"host: is required", "max_workers: must be greater than or equal to 1"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
	if Validate(serverRequest{Host: "localhost", MaxWorkers: 2}) != nil {
		t.Error("expected valid request to pass")
	}
}

func TestValidate_NestedPath(t *testing.T) {
	err := Validate(nested{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "scheduler.max_workers") {
		t.Errorf("expected nested field path, got %q", err.Error())
	}
}

func TestValidate_NonStruct(t *testing.T) {
	if err := Validate(42); err == nil {
		t.Error("expected error for non-struct input")
	}
}

func TestValidator_Checks(t *testing.T) {
	known := map[string]bool{"a": true, "b": true}
	tests := []struct {
		name    string
		run     func(v *Validator)
		wantErr bool
	}{
		{"required ok", func(v *Validator) { v.Required("name", "x") }, false},
		{"required blank", func(v *Validator) { v.Required("name", "  ") }, true},
		{"not empty", func(v *Validator) { v.NotEmpty("columns", 0) }, true},
		{"range ok", func(v *Validator) { v.Range("n", 3, 1, 5) }, false},
		{"range out", func(v *Validator) { v.Range("n", 9, 1, 5) }, true},
		{"one of empty", func(v *Validator) { v.OneOf("m", "", []string{"x"}) }, false},
		{"one of bad", func(v *Validator) { v.OneOf("m", "y", []string{"x"}) }, true},
		{"subset ok", func(v *Validator) { v.Subset("c", []string{"a", "b"}, func(s string) bool { return known[s] }) }, false},
		{"subset missing", func(v *Validator) { v.Subset("c", []string{"a", "z"}, func(s string) bool { return known[s] }) }, true},
		{"unique dup", func(v *Validator) { v.Unique("c", []string{"a", "a"}) }, true},
		{"custom false", func(v *Validator) { v.Custom(false, "c", "nope") }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := New()
			tc.run(v)
			if v.HasErrors() != tc.wantErr {
				t.Errorf("HasErrors() = %v, want %v (%v)", v.HasErrors(), tc.wantErr, v.Errors())
			}
		})
	}
}

func TestValidator_ErrorCodes(t *testing.T) {
	v := New().Subset("columns", []string{"z"}, func(string) bool { return false })

	if appErr := v.Validate(); appErr == nil || appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("Validate() should return INVALID_INPUT, got %v", appErr)
	}
	appErr := v.Options()
	if appErr == nil || appErr.Code != errors.ErrCodeInvalidOptions {
		t.Fatalf("Options() should return INVALID_OPTIONS, got %v", appErr)
	}
	if !strings.Contains(appErr.Message, "columns: unknown or unsupported values: z") {
		t.Errorf("unexpected message %q", appErr.Message)
	}

	if New().Options() != nil || New().Validate() != nil {
		t.Error("empty validator should return nil")
	}
}

func TestRequired(t *testing.T) {
	if err := Required("name", ""); err == nil {
		t.Error("expected error for empty value")
	}
	if err := Required("name", "x"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"MaxWorkers": "max_workers",
		"Host":       "host",
		"lsuffix":    "lsuffix",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
