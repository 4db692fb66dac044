// Package api serves one in-process pipeline over HTTP.
//
// Every response is a JSON envelope: {"data": ...} on success and
// {"error": {"code", "message", "details"}} on failure, where code is an
// errors.ErrorCode. Graph edits are rejected with FLOW_RUNNING while a run
// is being validated or executed.
//
// GET /run/events streams run progress as server-sent events named
// "status", "failure" and "run".
//
//	p := api.NewPipeline(workbench.New(), scheduler.WithMaxWorkers(4))
//	srv := api.New(cfg.Server, p, api.WithLogger(log))
//	if err := srv.Start(ctx); err != nil {
//		return err
//	}
//	defer srv.Stop(context.Background())
package api
