// internal/status/codes.go
package status

import (
	"context"
	"errors"
	"net"

	"github.com/tamzrod/thermostat/internal/eeprom"
	"github.com/tamzrod/thermostat/internal/report"
	"github.com/tamzrod/thermostat/internal/settings"
)

// Error codes published in SlotLastErrorCode. Protocol-locked.
const (
	CodeNone           uint16 = 0
	CodeFormatMismatch uint16 = 1
	CodeCorruptString  uint16 = 2
	CodeParseSkip      uint16 = 3
	CodeTimeout        uint16 = 4
	CodeBufferOverrun  uint16 = 5
	CodeNotConfigured  uint16 = 6
	CodeTransport      uint16 = 7
	CodeStorage        uint16 = 8
	CodeCancelled      uint16 = 9
	CodeUnknown        uint16 = 0xFFFF
)

// Code classifies err. nil is CodeNone.
func Code(err error) uint16 {
	if err == nil {
		return CodeNone
	}

	switch {
	case errors.Is(err, report.ErrTimeout):
		return CodeTimeout
	case errors.Is(err, report.ErrBufferOverrun):
		return CodeBufferOverrun
	case errors.Is(err, report.ErrNotConfigured):
		return CodeNotConfigured
	case errors.Is(err, eeprom.ErrCorruptString):
		return CodeCorruptString
	case errors.Is(err, eeprom.ErrStringTooLong), errors.Is(err, eeprom.ErrOutOfRange):
		return CodeStorage
	case errors.Is(err, settings.ErrInvalidValue), errors.Is(err, settings.ErrUnknownField):
		return CodeParseSkip
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return CodeTransport
	}

	return CodeUnknown
}

// Health maps a cycle outcome to a health code.
func Health(err error) uint16 {
	switch Code(err) {
	case CodeNone:
		return HealthOK
	case CodeTimeout:
		return HealthStale
	case CodeNotConfigured:
		return HealthDisabled
	default:
		return HealthError
	}
}
