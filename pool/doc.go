// SPDX-License-Identifier: MIT

// Package pool provides a small generic object-pool abstraction, reused
// here by the facade to recycle diagnostic-snapshot buffers instead of
// allocating one on every call.
package pool
