// internal/settings/value.go
package settings

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidValue is returned when text cannot be parsed into a field's kind.
	ErrInvalidValue = errors.New("settings: invalid value")

	// ErrUnknownField is returned for names that match no descriptor.
	ErrUnknownField = errors.New("settings: unknown field")
)

// Value is one scalar setting value: a kind plus its raw bit pattern.
// Bits are kept masked to the kind's width, so two values of the same kind
// are equal exactly when their stored bytes are equal.
type Value struct {
	kind Kind
	bits uint64
}

// Zero returns the zero value of kind k.
func Zero(k Kind) Value {
	return Value{kind: k}
}

// IntValue builds a value of a signed or unsigned integer kind.
func IntValue(k Kind, v int64) Value {
	return Value{kind: k, bits: uint64(v) & k.mask()}
}

// UintValue builds a value of an integer kind from an unsigned number.
func UintValue(k Kind, v uint64) Value {
	return Value{kind: k, bits: v & k.mask()}
}

// FloatValue builds a Float value.
func FloatValue(f float32) Value {
	return Value{kind: Float, bits: uint64(math.Float32bits(f))}
}

func (v Value) Kind() Kind { return v.kind }

// Int returns the value as a signed integer (sign-extended for signed kinds).
func (v Value) Int() int64 {
	switch {
	case v.kind == Float:
		return int64(v.Float())
	case v.kind.Signed():
		shift := uint(64 - v.kind.bits())
		return int64(v.bits<<shift) >> shift
	default:
		return int64(v.bits)
	}
}

// Uint returns the value as an unsigned integer.
func (v Value) Uint() uint64 {
	switch {
	case v.kind == Float:
		return uint64(v.Float())
	case v.kind.Signed():
		return uint64(v.Int())
	default:
		return v.bits
	}
}

// Float returns the value as float32.
func (v Value) Float() float32 {
	switch {
	case v.kind == Float:
		return math.Float32frombits(uint32(v.bits))
	case v.kind.Signed():
		return float32(v.Int())
	default:
		return float32(v.bits)
	}
}

// Equal reports whether both values have the same kind and bytes.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.bits == o.bits
}

// String formats the value so that ParseValue(v.Kind(), v.String()) == v.
func (v Value) String() string {
	switch {
	case v.kind == Float:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case v.kind.Signed():
		return strconv.FormatInt(v.Int(), 10)
	case v.kind.Valid():
		return strconv.FormatUint(v.bits, 10)
	default:
		return "<invalid>"
	}
}

// Put writes the value little-endian into b[:Size()].
func (v Value) Put(b []byte) {
	n := v.kind.Size()
	for i := 0; i < n; i++ {
		b[i] = byte(v.bits >> (8 * uint(i)))
	}
}

// DecodeValue reads a little-endian value of kind k from b.
func DecodeValue(k Kind, b []byte) (Value, error) {
	if !k.Valid() {
		return Value{}, fmt.Errorf("settings: decode: invalid kind %d", uint8(k))
	}
	n := k.Size()
	if len(b) < n {
		return Value{}, fmt.Errorf("settings: decode %s: need %d bytes, have %d", k, n, len(b))
	}
	var bits uint64
	for i := 0; i < n; i++ {
		bits |= uint64(b[i]) << (8 * uint(i))
	}
	return Value{kind: k, bits: bits}, nil
}

// ParseValue parses text as kind k. Integers are base 10 and must fit the
// kind's range. Floats must be finite and fit float32.
func ParseValue(k Kind, text string) (Value, error) {
	s := strings.TrimSpace(text)

	switch {
	case k == Float:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a %s", ErrInvalidValue, text, k)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, fmt.Errorf("%w: %q is not finite", ErrInvalidValue, text)
		}
		return FloatValue(float32(f)), nil

	case k.Signed():
		n, err := strconv.ParseInt(s, 10, k.bits())
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a %s", ErrInvalidValue, text, k)
		}
		return IntValue(k, n), nil

	case k.Valid():
		n, err := strconv.ParseUint(s, 10, k.bits())
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a %s", ErrInvalidValue, text, k)
		}
		return UintValue(k, n), nil

	default:
		return Value{}, fmt.Errorf("%w: invalid kind %d", ErrInvalidValue, uint8(k))
	}
}
