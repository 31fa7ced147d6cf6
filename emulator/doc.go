// Package emulator is an in-process implementation of the remote batch
// endpoint. It accepts the same envelope batch.Transport sends, validates it
// with dag.Builder, fills each node's placeholders from its parents' results
// on the server side and answers with one 207 Multi-Status aggregate body.
//
// The resources a batch addresses are served by an ordinary http.Handler
// supplied by the caller, so tests and local tooling can stand in for a real
// deployment:
//
//	ops := http.NewServeMux()
//	ops.HandleFunc("/elements", ...)
//	emu, _ := emulator.New(cfg, ops, emulator.WithLogger(log))
//	_ = emu.Start(ctx)
package emulator
