// Package version reports build information for the batchcall and batchemu
// binaries. Values are stamped with -ldflags and fall back to the module's
// embedded VCS settings:
//
//	go build -ldflags "-X github.com/kbukum/gobatch/version.Version=0.3.0" ./cmd/batchcall
package version
