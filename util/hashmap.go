// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package util holds small generic data structures shared by the loader SPI
// and scan engine, standing in for the source's hand-written intrusive list
// and hash-with-callbacks (spec section 9's design notes).
package util

import (
	"fmt"
	"strings"
)

type hashEntry[K, V any] struct {
	k    K
	v    V
	next *hashEntry[K, V]
}

// HashMap is a key/value map keyed by a caller-supplied equality and hash
// function, so it works with keys that aren't Go-comparable as a map key
// (or where the natural comparable key would box awkwardly). The scan
// engine uses HashMap[string, availEntry] for the identifier ->
// AvailablePlugin working set described in spec section 3.
type HashMap[K, V any] struct {
	eq    func(K, K) bool
	hash  func(K) int
	table map[int]*hashEntry[K, V]
	size  int
}

// NewHashMap returns a new empty HashMap.
func NewHashMap[K, V any](eq func(K, K) bool, hash func(K) int) *HashMap[K, V] {
	return &HashMap[K, V]{
		eq:    eq,
		hash:  hash,
		table: make(map[int]*hashEntry[K, V]),
	}
}

// Get returns the value for k.
func (h *HashMap[K, V]) Get(k K) (V, bool) {
	hash := h.hash(k)
	for entry := h.table[hash]; entry != nil; entry = entry.next {
		if h.eq(entry.k, k) {
			return entry.v, true
		}
	}
	var empty V
	return empty, false
}

// Put inserts or overwrites the value for k.
func (h *HashMap[K, V]) Put(k K, v V) {
	hash := h.hash(k)
	head := h.table[hash]
	for entry := head; entry != nil; entry = entry.next {
		if h.eq(entry.k, k) {
			entry.v = v
			return
		}
	}
	h.table[hash] = &hashEntry[K, V]{k: k, v: v, next: head}
	h.size++
}

// Delete removes the key k, a no-op if absent.
func (h *HashMap[K, V]) Delete(k K) {
	hash := h.hash(k)
	var prev *hashEntry[K, V]
	for entry := h.table[hash]; entry != nil; entry = entry.next {
		if h.eq(entry.k, k) {
			if prev != nil {
				prev.next = entry.next
			} else {
				h.table[hash] = entry.next
			}
			h.size--
			return
		}
		prev = entry
	}
}

// Len returns the number of entries.
func (h *HashMap[K, V]) Len() int {
	return h.size
}

// Iter invokes iter for each element. If iter returns true, iteration stops
// early and Iter returns true.
func (h *HashMap[K, V]) Iter(iter func(K, V) bool) bool {
	for _, entry := range h.table {
		for ; entry != nil; entry = entry.next {
			if iter(entry.k, entry.v) {
				return true
			}
		}
	}
	return false
}

// Drain removes every entry, invoking fn for each one first. This is the
// idiom spec section 9 calls out for Phase C's "iterate avail, installing
// or discarding each entry, removing it from the map as we go".
func (h *HashMap[K, V]) Drain(fn func(K, V)) {
	for hash, entry := range h.table {
		for e := entry; e != nil; e = e.next {
			fn(e.k, e.v)
		}
		delete(h.table, hash)
	}
	h.size = 0
}

func (h *HashMap[K, V]) String() string {
	var buf []string
	h.Iter(func(k K, v V) bool {
		buf = append(buf, fmt.Sprintf("%v: %v", k, v))
		return false
	})
	return "{" + strings.Join(buf, ", ") + "}"
}

// StringHash is a simple, adequate hash function for string keys.
func StringHash(s string) int {
	h := 0
	for i := 0; i < len(s); i++ {
		h = h*31 + int(s[i])
	}
	return h
}
