// Package api
//
// Common error types shared by the facade layered on top of the work
// dispatch core.

package api

import "fmt"

// Sentinel errors returned by Pool lifecycle and configuration calls.
var (
	ErrAlreadyStarted = fmt.Errorf("workqueue: pool already started")
	ErrNotStarted     = fmt.Errorf("workqueue: pool not started")
	ErrInvalidConfig  = fmt.Errorf("workqueue: invalid config")
)
