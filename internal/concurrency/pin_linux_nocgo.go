//go:build linux && !cgo
// +build linux,!cgo

// File: internal/concurrency/pin_linux_nocgo.go
//
// Stub implementation of PinCurrentThread for Linux when CGO is disabled.
// The real CGO-based version (pin_linux.go) uses sched_setaffinity/libnuma;
// without CGO the import "C" file is excluded from the build, so this no-op
// variant keeps the symbol present on pure-Go builds.

package concurrency

import "runtime"

// PinCurrentThread stub for Linux without CGO: it locks the goroutine to
// its OS thread but sets no CPU or NUMA affinity.
func PinCurrentThread(numaNode int, cpuID int) {
	runtime.LockOSThread()
}
