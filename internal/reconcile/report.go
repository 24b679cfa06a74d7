// SPDX-License-Identifier: MPL-2.0

package reconcile

import "fmt"

const (
	// OutcomeUntracked means the source directory has no manifest.
	OutcomeUntracked Outcome = iota
	// OutcomeNoMatch means a cross-directory move found no entry for the
	// file; neither manifest was written.
	OutcomeNoMatch
	// OutcomeRenamed means a same-directory rename was applied.
	OutcomeRenamed
	// OutcomeMoved means entries were migrated between two manifests.
	OutcomeMoved
)

type (
	// Outcome summarises what Apply did.
	Outcome int

	// ShapeWarning reports a destination category that exists but is not a
	// list. The category is skipped; processing continues.
	ShapeWarning struct {
		Manifest string
		Category string
	}

	// Report describes the effect of one Apply call.
	Report struct {
		Event   MoveEvent
		Kind    MoveKind
		Outcome Outcome
		// Replaced counts in-place replacements (same-directory rename).
		Replaced int
		// Moved counts migrated entries per category (cross-directory move).
		Moved map[string]int
		// Warnings lists skipped destination categories.
		Warnings []ShapeWarning
		// Written lists the manifest files saved, in write order.
		Written []string
	}
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeUntracked:
		return "untracked"
	case OutcomeNoMatch:
		return "no-match"
	case OutcomeRenamed:
		return "renamed"
	case OutcomeMoved:
		return "moved"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// String renders the warning for display.
func (w ShapeWarning) String() string {
	return fmt.Sprintf("the value of %q in %s is not a list", w.Category, w.Manifest)
}

// MovedTotal returns the number of entries migrated across all categories.
func (r Report) MovedTotal() int {
	total := 0
	for _, n := range r.Moved {
		total += n
	}
	return total
}
