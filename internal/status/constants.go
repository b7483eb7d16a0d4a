// internal/status/constants.go
package status

// Status block layout constants.
// These values define the published register layout and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerBlock is the fixed number of registers in the status block.
const SlotsPerBlock = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the report health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the code of the last failed cycle.
const SlotLastErrorCode = 1

// SlotSecondsInError holds how long (seconds) reporting has been failing.
const SlotSecondsInError = 2

// SlotCycles counts report cycles, wrapping at 65535.
const SlotCycles = 3

// SlotPersists counts exchanges that were written to the store, wrapping.
const SlotPersists = 4

// slotLiveEnd is one past the last slot rewritten on incremental updates.
const slotLiveEnd = 5

// ---- RESERVED RANGE ----

// Slots 5-10 are reserved.
const SlotReservedStart = 5
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot of the device identifier.
// The identifier always sits at the END of the block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the identifier.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last identifier slot (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the number of ASCII characters stored for the identifier.
const DeviceNameMaxChars = 16

// MaxSecondsInError is where SecondsInError saturates.
const MaxSecondsInError = 65535

// ---- HEALTH CODES ----

// HealthUnknown is the state before the first cycle.
const HealthUnknown uint16 = 0

// HealthOK means the last cycle completed.
const HealthOK uint16 = 1

// HealthError means the last cycle failed.
const HealthError uint16 = 2

// HealthStale means the server stopped answering within the idle deadline.
const HealthStale uint16 = 3

// HealthDisabled means no report target is configured.
const HealthDisabled uint16 = 4
