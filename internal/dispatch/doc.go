// SPDX-License-Identifier: MPL-2.0

// Package dispatch serialises tool invocations.
//
// A Dispatcher owns a FIFO of pending invocations and a single worker. At most
// one invocation executes at a time, and each one is resolved before the next
// is taken from the queue, so completion order always equals submission order
// regardless of how many goroutines submit concurrently.
package dispatch
