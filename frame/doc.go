// Package frame defines the tabular data model: column types, shapes
// (schemas) and immutable frames with a JSON codec.
package frame
