// Package ops contains the built-in operations.
//
//	reg := operation.NewRegistry()
//	ops.Register(reg, wb)
//	scale, _ := reg.New(ops.ScaleName)
package ops
