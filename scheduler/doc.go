// Package scheduler runs an OperationDag.
//
// A Handler validates the graph, dispatches input nodes to a bounded Pool
// and feeds every result forward, dispatching a node once all of its
// predecessors have delivered. A failing node is marked ERROR and its
// descendants are never dispatched; independent branches keep going.
//
// Node execution goes through a Runner chain, so logging, tracing,
// metrics and the run journal wrap every operation without the handler
// knowing about them:
//
//	runner := scheduler.WithLogging(
//	    scheduler.WithTracing(
//	        scheduler.Journal(scheduler.Execute, log)), log)
//	h := scheduler.New(g, scheduler.WithRunner(runner))
//	summary, err := h.Run(ctx)
package scheduler
