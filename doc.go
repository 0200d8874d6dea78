// Package scorepool offloads CPU-bound relic build scoring to a bounded set of
// execution units while recycling the large scratch buffers every task needs.
//
// The root package exposes a Service façade wiring the dispatcher together
// with logging, tracing and metrics:
//
//	srv, _ := scorepool.New()
//	defer srv.Shutdown(ctx)
//	best, _ := srv.Optimize(ctx, "character-1", request)
//
// Lower level access is available through Submit and Cancel, which take an
// opaque task, a continuation and an optional identity token. Cancelling a
// token drops its future submissions and flushes every queued task; running
// tasks always finish.
//
// Sub-packages:
//
//   - service/dispatcher – task placement, completion and cancellation
//   - service/unit       – execution units and their pool
//   - service/buffer     – scratch buffer recycling
//   - service/queue      – FIFO overflow queue
//   - service/registry   – identity token cancellation flags
//   - optimizer          – relic combination scoring kernel
package scorepool
