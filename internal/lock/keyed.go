// SPDX-License-Identifier: MPL-2.0

package lock

import "sync"

type (
	// Keyed hands out one mutex per key. A nil *Keyed is valid and never
	// blocks, which is how manifest locking is switched off.
	Keyed struct {
		mu    sync.Mutex
		locks map[string]*keyedEntry
	}

	keyedEntry struct {
		mu   sync.Mutex
		refs int
	}
)

// NewKeyed returns an empty Keyed lock set.
func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*keyedEntry)}
}

// Lock acquires every key in a fixed order and returns the matching unlock
// function. Duplicate keys are acquired once.
func (k *Keyed) Lock(keys ...string) (unlock func()) {
	if k == nil || len(keys) == 0 {
		return func() {}
	}

	ordered := dedupSorted(keys)
	entries := make([]*keyedEntry, 0, len(ordered))

	k.mu.Lock()
	for _, key := range ordered {
		e, ok := k.locks[key]
		if !ok {
			e = &keyedEntry{}
			k.locks[key] = e
		}
		e.refs++
		entries = append(entries, e)
	}
	k.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
	}

	return func() {
		for i := len(entries) - 1; i >= 0; i-- {
			entries[i].mu.Unlock()
		}
		k.mu.Lock()
		for i, key := range ordered {
			entries[i].refs--
			if entries[i].refs == 0 {
				delete(k.locks, key)
			}
		}
		k.mu.Unlock()
	}
}

// Len returns the number of keys currently held or waited on.
func (k *Keyed) Len() int {
	if k == nil {
		return 0
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
