// Package observability wires OpenTelemetry tracing and metrics for tabflow.
//
//	providers, err := observability.Init(ctx, observability.Config{
//	    Enabled:  true,
//	    Endpoint: "localhost:4318",
//	})
//	defer providers.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanNodeExecute)
//	defer span.End()
//	providers.Metrics.NodeFinished(ctx, "scale", "success", elapsed)
package observability
