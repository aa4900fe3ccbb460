// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package shared provides the synchronization used by trie algorithms that
// share nodes among goroutines. Nodes perform no locking themselves; they
// follow a single-writer, multi-reader contract. A Shared value enforces
// this contract by distinguishing two sets of fields of the wrapped value:
// content fields (path, bitmap) and hash fields (cached hash, dirty flag)
// derived from the content.
//
// Four access levels are supported:
//   - read access:  content fields may be read
//   - view access:  content and hash fields may be read
//   - hash access:  content fields may be read, hash fields may be written
//   - write access: all fields may be read and written
//
// Permissions interact as follows:
//
//             want\held  |  None  | Read | View | Hash | Write
//           -------------+--------+------+------+------+-------
//               Read     |    +   |   +  |   +  |   +  |   -
//               View     |    +   |   +  |   +  |   -  |   -
//               Hash     |    +   |   +  |   -  |   -  |   -
//               Write    |    +   |   -  |   -  |   -  |   -
//
// where + marks permissions granted concurrently and - marks permissions
// blocked until the held permission is released.
package shared

import (
	"fmt"
	"sync"
)

// Shared wraps a value of type T and controls access to it.
type Shared[T any] struct {
	value        T
	contentMutex sync.RWMutex
	hashMutex    sync.RWMutex
}

// MakeShared creates a new shared object holding the given value.
func MakeShared[T any](value T) *Shared[T] {
	return &Shared[T]{value: value}
}

// GetReadHandle blocks until read access to the content of the value is
// granted. The resulting handle must be released.
func (p *Shared[T]) GetReadHandle() ReadHandle[T] {
	p.contentMutex.RLock()
	return ReadHandle[T]{handle[T]{p}}
}

// TryGetReadHandle is the non-blocking version of GetReadHandle. The second
// result reports whether access was granted, in which case the handle must
// be released.
func (p *Shared[T]) TryGetReadHandle() (ReadHandle[T], bool) {
	if !p.contentMutex.TryRLock() {
		return ReadHandle[T]{}, false
	}
	return ReadHandle[T]{handle[T]{p}}, true
}

// GetViewHandle blocks until read access to the content and hash of the
// value is granted. The resulting handle must be released.
func (p *Shared[T]) GetViewHandle() ViewHandle[T] {
	p.contentMutex.RLock()
	p.hashMutex.RLock()
	return ViewHandle[T]{handle[T]{p}}
}

// TryGetViewHandle is the non-blocking version of GetViewHandle.
func (p *Shared[T]) TryGetViewHandle() (ViewHandle[T], bool) {
	if !p.contentMutex.TryRLock() {
		return ViewHandle[T]{}, false
	}
	if !p.hashMutex.TryRLock() {
		p.contentMutex.RUnlock()
		return ViewHandle[T]{}, false
	}
	return ViewHandle[T]{handle[T]{p}}, true
}

// GetHashHandle blocks until read access to the content and exclusive access
// to the hash of the value is granted. Concurrent readers of the content are
// still admitted. The resulting handle must be released.
func (p *Shared[T]) GetHashHandle() HashHandle[T] {
	p.contentMutex.RLock()
	p.hashMutex.Lock()
	return HashHandle[T]{handle[T]{p}}
}

// TryGetHashHandle is the non-blocking version of GetHashHandle.
func (p *Shared[T]) TryGetHashHandle() (HashHandle[T], bool) {
	if !p.contentMutex.TryRLock() {
		return HashHandle[T]{}, false
	}
	if !p.hashMutex.TryLock() {
		p.contentMutex.RUnlock()
		return HashHandle[T]{}, false
	}
	return HashHandle[T]{handle[T]{p}}, true
}

// GetWriteHandle blocks until exclusive access to the value is granted. The
// resulting handle must be released.
func (p *Shared[T]) GetWriteHandle() WriteHandle[T] {
	p.contentMutex.Lock()
	return WriteHandle[T]{handle[T]{p}}
}

// TryGetWriteHandle is the non-blocking version of GetWriteHandle.
func (p *Shared[T]) TryGetWriteHandle() (WriteHandle[T], bool) {
	if !p.contentMutex.TryLock() {
		return WriteHandle[T]{}, false
	}
	return WriteHandle[T]{handle[T]{p}}, true
}

type handle[T any] struct {
	shared *Shared[T]
}

// Valid reports whether this handle holds an access permission. Zero handles
// and released handles are invalid.
func (h *handle[T]) Valid() bool {
	return h.shared != nil
}

// Get returns the shared value. Must only be called on valid handles.
func (h *handle[T]) Get() T {
	return h.shared.value
}

// ReadHandle is a permission to read the content of a shared value.
type ReadHandle[T any] struct {
	handle[T]
}

// Release gives up the permission. The handle becomes invalid.
func (h *ReadHandle[T]) Release() {
	h.shared.contentMutex.RUnlock()
	h.shared = nil
}

func (h *ReadHandle[T]) String() string {
	return fmt.Sprintf("ReadHandle(%p)", h.shared)
}

// ViewHandle is a permission to read the content and hash of a shared value.
type ViewHandle[T any] struct {
	handle[T]
}

// Release gives up the permission. The handle becomes invalid.
func (h *ViewHandle[T]) Release() {
	h.shared.hashMutex.RUnlock()
	h.shared.contentMutex.RUnlock()
	h.shared = nil
}

func (h *ViewHandle[T]) String() string {
	return fmt.Sprintf("ViewHandle(%p)", h.shared)
}

// HashHandle is a permission to read the content and update the hash of a
// shared value.
type HashHandle[T any] struct {
	handle[T]
}

// Release gives up the permission. The handle becomes invalid.
func (h *HashHandle[T]) Release() {
	h.shared.hashMutex.Unlock()
	h.shared.contentMutex.RUnlock()
	h.shared = nil
}

func (h *HashHandle[T]) String() string {
	return fmt.Sprintf("HashHandle(%p)", h.shared)
}

// WriteHandle is an exclusive permission to read and modify a shared value.
type WriteHandle[T any] struct {
	handle[T]
}

// Ref returns a pointer to the shared value. Must only be called on valid
// handles.
func (h *WriteHandle[T]) Ref() *T {
	return &h.shared.value
}

// Set replaces the shared value. Must only be called on valid handles.
func (h *WriteHandle[T]) Set(value T) {
	h.shared.value = value
}

// AsViewHandle derives a view permission from this write permission. The
// derived handle must not be released; the write handle still must be.
func (h *WriteHandle[T]) AsViewHandle() ViewHandle[T] {
	return ViewHandle[T]{h.handle}
}

// Release gives up the permission. The handle becomes invalid.
func (h *WriteHandle[T]) Release() {
	h.shared.contentMutex.Unlock()
	h.shared = nil
}

func (h *WriteHandle[T]) String() string {
	return fmt.Sprintf("WriteHandle(%p)", h.shared)
}
