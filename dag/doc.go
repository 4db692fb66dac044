// Package dag maintains the pipeline graph: operation nodes, the edges
// between their outputs and input slots, and the input shapes each node
// derives from its predecessors.
//
// Every mutation keeps the graph acyclic and within the arity bounds of
// its operations. Connecting nodes binds the source's inferred output
// shape into the target slot and propagates it downstream; removing an
// edge retracts the shape from the immediate target only.
//
// Graphs round-trip through Document, stored as YAML or JSON by SaveFile
// and LoadFile.
package dag
