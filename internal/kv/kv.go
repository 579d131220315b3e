// Package kv provides the process-wide key/value scratch store shared by
// layers.
//
// Keys are hashed with djb2 and never stored, so two keys with the same hash
// address the same slot. Values are opaque byte buffers whose size is fixed
// when the slot is written: Set replaces the slot when the size changes, and
// Get succeeds only when the caller's buffer has exactly the stored size.
//
// Thread-safety: Store is safe for concurrent use.
package kv

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/roach88/vlayer/internal/hashing"
)

// Store maps key hashes to owned byte slots.
type Store struct {
	mu    sync.RWMutex
	slots map[uint32][]byte
}

// New returns an empty store.
func New() *Store {
	return &Store{slots: make(map[uint32][]byte)}
}

// Set copies value into the slot for key. A slot of a different size is
// replaced by a fresh one of exactly len(value) bytes.
func (s *Store) Set(key string, value []byte) {
	h := hashing.DJB2(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[h]
	if !ok || len(slot) != len(value) {
		slot = make([]byte, len(value))
		s.slots[h] = slot
	}
	copy(slot, value)
}

// Get copies the slot for key into out. It returns false when the key is
// absent or the stored size differs from len(out); out is left untouched.
func (s *Store) Get(key string, out []byte) bool {
	h := hashing.DJB2(key)

	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[h]
	if !ok || len(slot) != len(out) {
		return false
	}
	copy(out, slot)
	return true
}

// Size returns the stored size for key.
func (s *Store) Size(key string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[hashing.DJB2(key)]
	return len(slot), ok
}

// Delete removes the slot for key, reporting whether one existed.
func (s *Store) Delete(key string) bool {
	h := hashing.DJB2(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[h]; !ok {
		return false
	}
	delete(s.slots, h)
	return true
}

// Len returns the number of slots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// SetValue stores a fixed-size value in little-endian form.
// T must be a type accepted by encoding/binary.
func SetValue[T any](s *Store, key string, v T) error {
	size := binary.Size(v)
	if size < 0 {
		return fmt.Errorf("kv: %T is not a fixed-size value", v)
	}

	var buf bytes.Buffer
	buf.Grow(size)
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return err
	}
	s.Set(key, buf.Bytes())
	return nil
}

// GetValue loads a value written by SetValue. It returns false when the key
// is absent or was written with a different size.
func GetValue[T any](s *Store, key string) (T, bool) {
	var v T
	size := binary.Size(v)
	if size < 0 {
		return v, false
	}

	out := make([]byte, size)
	if !s.Get(key, out) {
		return v, false
	}
	if err := binary.Read(bytes.NewReader(out), binary.LittleEndian, &v); err != nil {
		return v, false
	}
	return v, true
}
