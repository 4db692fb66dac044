package operation

import (
	"maps"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/tabflow/errors"
	"github.com/kbukum/tabflow/validation"
)

// Settings stores the typed options of an operation. T is a struct with
// mapstructure and validate tags.
//
// Embedding Settings gives an operation HasOptions, Options and
// UnsetOptions; SetOptions stays with the operation so it can add checks
// against its current input shapes.
type Settings[T any] struct {
	value    *T
	fallback *T
}

// SetDefault installs options that apply whenever none are set. An
// operation with a default always has options.
func (s *Settings[T]) SetDefault(v T) {
	s.fallback = &v
	if s.value == nil {
		s.value = s.fallback
	}
}

// Decode converts raw into T, runs the struct tag validation and then
// check, if given. Nothing is stored on failure.
func (s *Settings[T]) Decode(raw Options, check func(*T) error) error {
	var v T
	if s.fallback != nil {
		v = *s.fallback
	}
	if err := DecodeOptions(raw, &v); err != nil {
		return err
	}
	if err := validation.ValidateOptions(&v); err != nil {
		return err
	}
	if check != nil {
		if err := check(&v); err != nil {
			return err
		}
	}
	s.value = &v
	return nil
}

// Get returns the current options.
func (s *Settings[T]) Get() (*T, bool) {
	return s.value, s.value != nil
}

// Replace stores v without validation. Used by UnsetOptions variants that
// keep a pruned version of the options.
func (s *Settings[T]) Replace(v *T) {
	s.value = v
}

func (s *Settings[T]) HasOptions() bool {
	return s.value != nil
}

// Options encodes the current options back into their map form.
func (s *Settings[T]) Options() Options {
	if s.value == nil {
		return nil
	}
	out := make(Options)
	if err := mapstructure.Decode(s.value, &out); err != nil {
		return nil
	}
	return out
}

// UnsetOptions resets to the default, or to nothing.
func (s *Settings[T]) UnsetOptions() {
	s.value = s.fallback
}

// DecodeOptions decodes raw into out, rejecting unknown keys. A comma
// separated string is accepted where a list is expected.
func DecodeOptions(raw Options, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToSliceHookFunc(","),
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return errors.Internal(err)
	}
	if err := dec.Decode(raw); err != nil {
		return errors.InvalidOptions(err.Error()).WithCause(err)
	}
	return nil
}

// CloneOptions returns a shallow copy of opts.
func CloneOptions(opts Options) Options {
	if opts == nil {
		return nil
	}
	return maps.Clone(opts)
}
