// internal/sensor/sensor.go
package sensor

import (
	"context"
	"encoding/hex"
	"fmt"
)

// Address is a OneWire device ROM code.
type Address [8]byte

// String renders the address as 16 lowercase hex digits.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// ParseAddress parses 16 hex digits.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("sensor: address %q: %w", s, err)
	}
	if len(b) != len(a) {
		return a, fmt.Errorf("sensor: address %q: want %d bytes, got %d", s, len(a), len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Reading is one sensor's latest measurement. OK is false when the sensor
// did not produce a valid value this cycle.
type Reading struct {
	Addr  Address
	TempC float32
	OK    bool
}

// Reader produces the current readings of every attached sensor.
type Reader interface {
	Read(ctx context.Context) ([]Reading, error)
}

// Static is a Reader returning a fixed set of readings.
type Static []Reading

func (s Static) Read(ctx context.Context) ([]Reading, error) {
	return append([]Reading(nil), s...), nil
}

// Average returns the mean of the valid readings.
func Average(readings []Reading) (float32, bool) {
	var sum float32
	n := 0
	for _, r := range readings {
		if !r.OK {
			continue
		}
		sum += r.TempC
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float32(n), true
}
