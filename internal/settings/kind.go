// internal/settings/kind.go
package settings

import "fmt"

// Kind is the declared storage type of a scalar setting.
type Kind uint8

const (
	KindInvalid Kind = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Float
)

// Size returns the number of bytes the kind occupies in the scalar block.
func (k Kind) Size() int {
	switch k {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float:
		return 4
	default:
		return 0
	}
}

// Signed reports whether the kind is a signed integer.
func (k Kind) Signed() bool {
	return k == Int8 || k == Int16 || k == Int32
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= Int8 && k <= Float
}

func (k Kind) bits() int {
	return k.Size() * 8
}

func (k Kind) mask() uint64 {
	return uint64(1)<<uint(k.bits()) - 1
}

func (k Kind) String() string {
	switch k {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}
