// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

// Package cachemap implements an open-addressed, fixed-capacity hash table
// that stores no keys: it treats hash equality as value equality. The
// caller is responsible for choosing a hash with enough domain separation
// for the cached items (root signatures, pipeline fragments) that a
// collision is acceptably rare; a collision silently resolves to the other
// entry's value. In exchange the table never stores or compares keys, and
// a lookup is a probe over a flat []uint64.
//
// Capacity is fixed at construction and exhaustion on Insert is a
// programmer error: the caller sizes the cache to the backend's limits up
// front. Value pointers returned by Lookup and Insert remain stable for
// the lifetime of the map.
package cachemap

// Tombstone is the reserved hash value marking an empty slot. Inserting
// under this hash is invalid.
const Tombstone = ^uint64(0)

// Map is a fixed-capacity, unkeyed cache from a 64-bit hash to a value of
// type V.
type Map[V any] struct {
	hashes []uint64
	values []*V
}

// New creates a Map with the given fixed capacity.
func New[V any](capacity int) *Map[V] {
	if capacity < 1 {
		capacity = 1
	}
	m := &Map[V]{
		hashes: make([]uint64, capacity),
		values: make([]*V, capacity),
	}
	for i := range m.hashes {
		m.hashes[i] = Tombstone
	}
	return m
}

func (m *Map[V]) findHash(hash uint64) int {
	n := len(m.hashes)
	i := int(hash % uint64(n))
	for range m.hashes {
		i++
		if i >= n {
			i = 0
		}
		switch m.hashes[i] {
		case hash:
			return i
		case Tombstone:
			return -1
		}
	}
	return -1
}

// Contains reports whether an entry exists under hash.
func (m *Map[V]) Contains(hash uint64) bool {
	return m.findHash(hash) >= 0
}

// Lookup returns the stable value pointer previously inserted under hash,
// or nil if there is none.
func (m *Map[V]) Lookup(hash uint64) *V {
	i := m.findHash(hash)
	if i < 0 {
		return nil
	}
	return m.values[i]
}

// Insert stores value under hash and returns a stable pointer to the
// stored copy, or nil if the table is full (the caller should treat a full
// table as fatal) or hash is the Tombstone sentinel. Insert does not check
// for an existing entry with the same hash; call Lookup first.
func (m *Map[V]) Insert(hash uint64, value V) *V {
	if hash == Tombstone {
		return nil
	}
	n := len(m.hashes)
	i := int(hash % uint64(n))
	for range m.hashes {
		i++
		if i >= n {
			i = 0
		}
		if m.hashes[i] == Tombstone {
			m.hashes[i] = hash
			v := value
			m.values[i] = &v
			return m.values[i]
		}
	}
	return nil
}

// Len reports the number of entries currently stored.
func (m *Map[V]) Len() int {
	n := 0
	for _, h := range m.hashes {
		if h != Tombstone {
			n++
		}
	}
	return n
}

// Iterate calls fn for each stored value.
func (m *Map[V]) Iterate(fn func(*V)) {
	for i, h := range m.hashes {
		if h != Tombstone {
			fn(m.values[i])
		}
	}
}

// Clear empties the table. Value pointers handed out earlier are dangling
// after Clear.
func (m *Map[V]) Clear() {
	for i := range m.hashes {
		m.hashes[i] = Tombstone
		m.values[i] = nil
	}
}
