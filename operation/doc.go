// Package operation defines the contract every pipeline step implements,
// the shared Base that fixes arity and shape bookkeeping per Kind, option
// decoding and validation, output shape inference and the named operation
// Registry.
package operation
