// SPDX-License-Identifier: MPL-2.0

package events

import (
	"errors"
	"fmt"

	"github.com/cxxmod/cxxmod/internal/dispatch"
	"github.com/cxxmod/cxxmod/internal/reconcile"
)

type (
	// Result is the outcome of one Event.
	Result struct {
		Event Event
		// Report is set for rename events that reached the reconciler.
		Report *reconcile.Report
		// Submitted holds the tool invocations queued for the event.
		Submitted []*dispatch.Pending
		// Skipped explains why nothing was done, when that is the case.
		Skipped string
		Err     error
	}

	// BatchResult collects the outcomes of one batch.
	BatchResult struct {
		// ID correlates log records of the batch.
		ID      string
		Results []Result
	}
)

// Pending returns every invocation submitted by the batch, in order.
func (b BatchResult) Pending() []*dispatch.Pending {
	var out []*dispatch.Pending
	for _, r := range b.Results {
		out = append(out, r.Submitted...)
	}
	return out
}

// Err joins the per-event errors, or returns nil when every event succeeded.
func (b BatchResult) Err() error {
	var errs []error
	for _, r := range b.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Event, r.Err))
		}
	}
	return errors.Join(errs...)
}

// Warnings returns the manifest shape warnings raised by the batch.
func (b BatchResult) Warnings() []reconcile.ShapeWarning {
	var out []reconcile.ShapeWarning
	for _, r := range b.Results {
		if r.Report != nil {
			out = append(out, r.Report.Warnings...)
		}
	}
	return out
}
