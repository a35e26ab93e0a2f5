// Package shutdown coordinates graceful process termination.
//
// Components register named hooks at startup; when SIGINT or SIGTERM
// arrives, or the run context is cancelled, the hooks run in reverse
// registration order under one shared timeout.
//
// Usage:
//
//	h := shutdown.NewHandler(30*time.Second, logger)
//	h.OnShutdown("http server", srv.Shutdown)
//	err := h.WaitContext(ctx)
package shutdown
