// Package bootstrap runs a gobatch process: it validates the typed config,
// builds the logger, starts registered components in order, runs lifecycle
// hooks and shuts everything down in reverse.
//
// Use RunTask for one-shot tools such as batchcall, and Run for long-running
// processes such as the batch endpoint emulator.
package bootstrap
