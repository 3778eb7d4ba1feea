// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import "sync"

// objectStore caches resolved indirect objects. Each entry carries an age in
// generations; age() bumps every entry and drops the ones past the limit,
// and a lookup hit resets the entry's age to zero.
type objectStore struct {
	mu      sync.Mutex
	entries map[objptr]*storeEntry
}

type storeEntry struct {
	obj object
	age int
}

func newObjectStore() *objectStore {
	return &objectStore{entries: make(map[objptr]*storeEntry)}
}

func (s *objectStore) get(ptr objptr) (object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[ptr]
	if !ok {
		return nil, false
	}
	e.age = 0
	return e.obj, true
}

func (s *objectStore) put(ptr objptr, obj object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[ptr] = &storeEntry{obj: obj}
}

// age returns the number of evicted entries.
func (s *objectStore) age(maxAge int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for ptr, e := range s.entries {
		e.age++
		if e.age > maxAge {
			delete(s.entries, ptr)
			n++
		}
	}
	return n
}

func (s *objectStore) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}

func (s *objectStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
