// internal/eeprom/codec.go
package eeprom

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/tamzrod/thermostat/internal/settings"
)

// Record layout (protocol-locked):
//
//	magic tag       len(MagicTag) bytes, ASCII
//	scalar block    every scalar field, descriptor order, little-endian
//	strings         per string field: uint16 LE length L, then L raw bytes
//
// The format carries no field tags: position encodes identity.
// MagicTag MUST change whenever either descriptor table changes.
const MagicTag = "v12\x00"

// MaxStringLen is the largest string length accepted when reading.
const MaxStringLen = 200

const lengthPrefix = 2

var (
	// ErrCorruptString is returned by Read when a string declares a length
	// above MaxStringLen. Fields read before it keep their new values.
	ErrCorruptString = errors.New("eeprom: corrupt string length")

	// ErrStringTooLong is returned by Write for a string that Read would reject.
	ErrStringTooLong = errors.New("eeprom: string too long")
)

// Codec moves a settings registry to and from a Store.
type Codec struct {
	store Store
	reg   *settings.Registry
	tag   []byte
	log   hclog.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithTag overrides the record tag.
func WithTag(tag string) Option {
	return func(c *Codec) { c.tag = []byte(tag) }
}

// WithLogger sets the codec logger.
func WithLogger(l hclog.Logger) Option {
	return func(c *Codec) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCodec binds a store to a registry.
func NewCodec(store Store, reg *settings.Registry, opts ...Option) *Codec {
	c := &Codec{
		store: store,
		reg:   reg,
		tag:   []byte(MagicTag),
		log:   hclog.NewNullLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// IsUninitialized reports whether the store does not start with the expected
// tag. Never-written, foreign-format, short and unreadable stores all count.
func (c *Codec) IsUninitialized() bool {
	if c.store.Size() < len(c.tag) {
		c.log.Warn("store smaller than record tag", "size", c.store.Size())
		return true
	}
	for i, want := range c.tag {
		got, err := c.store.Get(i)
		if err != nil {
			c.log.Warn("reading record tag failed", "offset", i, "error", err)
			return true
		}
		if got != want {
			c.log.Info("record tag mismatch", "offset", i)
			return true
		}
	}
	return false
}

// EncodedSize returns the number of bytes Write would produce.
func (c *Codec) EncodedSize() int {
	n := len(c.tag) + c.reg.ScalarBlockSize()
	for i := 0; i < c.reg.NumStrings(); i++ {
		_, s := c.reg.StringAt(i)
		n += lengthPrefix
		if s != nil {
			n += len(*s)
		}
	}
	return n
}

// Write stores the tag, the scalar block and every string field.
// The record is checked against the store before the first byte is written;
// there is no rollback once writing has started.
func (c *Codec) Write() error {
	for i := 0; i < c.reg.NumStrings(); i++ {
		f, s := c.reg.StringAt(i)
		if s != nil && len(*s) > MaxStringLen {
			return fmt.Errorf("%w: %s is %d bytes, max %d", ErrStringTooLong, f.Name, len(*s), MaxStringLen)
		}
	}
	if n := c.EncodedSize(); n > c.store.Size() {
		return fmt.Errorf("%w: record is %d bytes, store is %d", ErrOutOfRange, n, c.store.Size())
	}

	w := &cursor{store: c.store}

	if err := w.write(c.tag); err != nil {
		return fmt.Errorf("eeprom: write tag: %w", err)
	}

	block := make([]byte, c.reg.ScalarBlockSize())
	off := 0
	for i := 0; i < c.reg.NumScalars(); i++ {
		f, v := c.reg.ScalarAt(i)
		v.Put(block[off:])
		off += f.Kind.Size()
	}
	if err := w.write(block); err != nil {
		return fmt.Errorf("eeprom: write scalar block: %w", err)
	}

	for i := 0; i < c.reg.NumStrings(); i++ {
		f, s := c.reg.StringAt(i)
		var data []byte
		if s != nil {
			data = []byte(*s)
		}
		n := len(data)
		if err := w.write([]byte{byte(n), byte(n >> 8)}); err != nil {
			return fmt.Errorf("eeprom: write %s: %w", f.Name, err)
		}
		if err := w.write(data); err != nil {
			return fmt.Errorf("eeprom: write %s: %w", f.Name, err)
		}
	}

	if cm, ok := c.store.(Committer); ok {
		if err := cm.Commit(); err != nil {
			return fmt.Errorf("eeprom: commit: %w", err)
		}
	}

	c.log.Debug("record written", "bytes", w.off)
	return nil
}

// Read restores the registry from the store. It does not check the tag;
// callers check IsUninitialized first.
//
// On ErrCorruptString every scalar and every string before the corrupt one
// holds its stored value; later strings keep their in-memory values.
func (c *Codec) Read() error {
	r := &cursor{store: c.store, off: len(c.tag)}

	block, err := r.read(c.reg.ScalarBlockSize())
	if err != nil {
		return fmt.Errorf("eeprom: read scalar block: %w", err)
	}
	off := 0
	for i := 0; i < c.reg.NumScalars(); i++ {
		f, _ := c.reg.ScalarAt(i)
		v, err := settings.DecodeValue(f.Kind, block[off:])
		if err != nil {
			return fmt.Errorf("eeprom: decode %s: %w", f.Name, err)
		}
		if err := c.reg.SetScalarAt(i, v); err != nil {
			return err
		}
		off += f.Kind.Size()
	}

	for i := 0; i < c.reg.NumStrings(); i++ {
		f, _ := c.reg.StringAt(i)

		lb, err := r.read(lengthPrefix)
		if err != nil {
			return fmt.Errorf("eeprom: read %s length: %w", f.Name, err)
		}
		n := int(lb[0]) | int(lb[1])<<8
		if n > MaxStringLen {
			c.log.Warn("string too long, remaining strings not restored", "field", f.Name, "length", n)
			return fmt.Errorf("%w: %s declares %d bytes", ErrCorruptString, f.Name, n)
		}

		if n == 0 {
			c.reg.SetStringAt(i, nil)
			continue
		}
		data, err := r.read(n)
		if err != nil {
			return fmt.Errorf("eeprom: read %s: %w", f.Name, err)
		}
		s := string(data)
		c.reg.SetStringAt(i, &s)
	}

	c.log.Debug("record read", "bytes", r.off)
	return nil
}

// cursor walks a store sequentially.
type cursor struct {
	store Store
	off   int
}

func (c *cursor) write(b []byte) error {
	for _, v := range b {
		if err := c.store.Put(c.off, v); err != nil {
			return err
		}
		c.off++
	}
	return nil
}

func (c *cursor) read(n int) ([]byte, error) {
	out := make([]byte, n)
	for i := range out {
		v, err := c.store.Get(c.off)
		if err != nil {
			return nil, err
		}
		out[i] = v
		c.off++
	}
	return out, nil
}
