// internal/status/constants.go
package status

// Board status block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per board.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the board health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the code of the last failing stage.
const SlotLastErrorCode = 1

// SlotSecondsInError holds how long (in seconds) the board has been unhealthy.
const SlotSecondsInError = 2

// SlotBoardState holds the duty-cycle state code.
const SlotBoardState = 3

// ---- RESERVED RANGE ----

// Slots 4-10 are reserved for future use.
const SlotReservedStart = 4
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown represents boot, before the first cycle completes.
const HealthUnknown uint16 = 0

// HealthOK represents a cycle with every stage succeeding.
const HealthOK uint16 = 1

// HealthError represents a cycle with at least one failed stage.
const HealthError uint16 = 2

// HealthStale represents an offline cycle: local control ran, nothing was delivered.
const HealthStale uint16 = 3

// HealthDisabled represents a board parked by the power guard.
const HealthDisabled uint16 = 4
