// Package validation validates requests, configuration and operation
// options.
//
// Struct tag validation (go-playground/validator) covers static rules;
// the programmatic Validator covers rules that depend on runtime state,
// like the columns of an operation's current input shape.
//
// # Struct Tag Validation
//
//	type ScaleOptions struct {
//	    Columns []string `mapstructure:"columns" validate:"min=1,unique"`
//	    Method  string   `mapstructure:"method" validate:"oneof=minmax standard"`
//	}
//	err := validation.ValidateOptions(opts) // INVALID_OPTIONS
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Subset("columns", opts.Columns, shape.HasColumn)
//	if appErr := v.Options(); appErr != nil { ... }
package validation
