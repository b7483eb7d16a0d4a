// internal/config/normalize.go
package config

import "github.com/tamzrod/thermostat/internal/eeprom"

const (
	defaultLogLevel        = "info"
	defaultModbusTimeoutMs = 1000
	defaultDialTimeoutMs   = 5000
	defaultIdleTimeoutMs   = 5000
	defaultChunkSize       = 64
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	d := &cfg.Device

	if d.LogLevel == "" {
		d.LogLevel = defaultLogLevel
	}

	// ------------------------------------------------------------
	// STORE
	// ------------------------------------------------------------

	if d.Store.Driver == "" {
		d.Store.Driver = DriverMemory
	}
	if d.Store.Size == 0 {
		d.Store.Size = eeprom.DefaultSize
	}
	if m := d.Store.Modbus; m != nil && m.TimeoutMs == 0 {
		m.TimeoutMs = defaultModbusTimeoutMs
	}

	// ------------------------------------------------------------
	// REPORT
	// ------------------------------------------------------------

	if d.Report.DialTimeoutMs == 0 {
		d.Report.DialTimeoutMs = defaultDialTimeoutMs
	}
	if d.Report.IdleTimeoutMs == 0 {
		d.Report.IdleTimeoutMs = defaultIdleTimeoutMs
	}
	if d.Report.ChunkSize == 0 {
		d.Report.ChunkSize = defaultChunkSize
	}

	// ------------------------------------------------------------
	// STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if d.Status != nil && d.Status.TimeoutMs == 0 {
		d.Status.TimeoutMs = defaultModbusTimeoutMs
	}
}
