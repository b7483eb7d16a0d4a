// internal/eeprom/store.go
package eeprom

import (
	"errors"
	"fmt"
)

// DefaultSize is the byte range reserved for the settings record.
const DefaultSize = 512

// erased is the content of never-written flash.
const erased byte = 0xFF

// ErrOutOfRange is returned for offsets outside the store, or a record that
// does not fit it.
var ErrOutOfRange = errors.New("eeprom: out of range")

// Store is a persistent byte array with random access over [0, Size()).
type Store interface {
	Size() int
	Get(off int) (byte, error)
	Put(off int, b byte) error
}

// Committer is implemented by stores that buffer writes.
// Commit makes every write since the last commit durable.
type Committer interface {
	Commit() error
}

// MemStore is a Store held in memory. The zero value is unusable; use NewMemStore.
type MemStore struct {
	buf []byte
}

// NewMemStore returns an erased store of the given size.
func NewMemStore(size int) *MemStore {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = erased
	}
	return &MemStore{buf: buf}
}

// NewMemStoreFrom wraps a copy of image.
func NewMemStoreFrom(image []byte) *MemStore {
	return &MemStore{buf: append([]byte(nil), image...)}
}

func (m *MemStore) Size() int { return len(m.buf) }

func (m *MemStore) Get(off int) (byte, error) {
	if err := CheckRange(m, off); err != nil {
		return 0, err
	}
	return m.buf[off], nil
}

func (m *MemStore) Put(off int, b byte) error {
	if err := CheckRange(m, off); err != nil {
		return err
	}
	m.buf[off] = b
	return nil
}

// Bytes returns a copy of the whole image.
func (m *MemStore) Bytes() []byte {
	return append([]byte(nil), m.buf...)
}

// CheckRange returns ErrOutOfRange when off is outside s.
func CheckRange(s Store, off int) error {
	if off < 0 || off >= s.Size() {
		return fmt.Errorf("%w: offset %d, size %d", ErrOutOfRange, off, s.Size())
	}
	return nil
}
