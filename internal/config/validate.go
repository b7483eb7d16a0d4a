// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/tamzrod/thermostat/internal/eeprom"
	"github.com/tamzrod/thermostat/internal/sensor"
	"github.com/tamzrod/thermostat/internal/settings"
	"github.com/tamzrod/thermostat/internal/status"
)

// maxStoreSize is the addressable range of a 16-bit offset.
const maxStoreSize = 0x10000

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	d := cfg.Device

	if d.LogLevel != "" && hclog.LevelFromString(d.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("log_level %q is not a known level", d.LogLevel)
	}

	// ------------------------------------------------------------
	// STORE
	// ------------------------------------------------------------

	s := d.Store
	if s.Size < 0 || s.Size > maxStoreSize {
		return fmt.Errorf("store: size %d out of range 1-%d", s.Size, maxStoreSize)
	}
	if s.Size != 0 && s.Size < len(eeprom.MagicTag) {
		return fmt.Errorf("store: size %d cannot hold the record tag", s.Size)
	}

	switch s.Driver {
	case "", DriverMemory:
	case DriverSQLite:
		if s.Path == "" {
			return fmt.Errorf("store: driver %q requires path", s.Driver)
		}
	case DriverModbus:
		if s.Modbus == nil || s.Modbus.Endpoint == "" {
			return fmt.Errorf("store: driver %q requires modbus.endpoint", s.Driver)
		}
		if s.Modbus.TimeoutMs < 0 {
			return fmt.Errorf("store: modbus.timeout_ms must be >= 0")
		}
	default:
		return fmt.Errorf("store: unknown driver %q", s.Driver)
	}

	// ------------------------------------------------------------
	// REPORT
	// ------------------------------------------------------------

	if d.Report.DialTimeoutMs < 0 || d.Report.IdleTimeoutMs < 0 {
		return fmt.Errorf("report: timeouts must be >= 0")
	}
	if d.Report.ChunkSize < 0 {
		return fmt.Errorf("report: chunk_size must be >= 0")
	}

	// ------------------------------------------------------------
	// STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if st := d.Status; st != nil {
		if st.Endpoint == "" {
			return fmt.Errorf("status: endpoint is required when status is set")
		}
		if st.TimeoutMs < 0 {
			return fmt.Errorf("status: timeout_ms must be >= 0")
		}
		if int(st.Address)+status.SlotsPerBlock > maxStoreSize {
			return fmt.Errorf("status: block at %d exceeds the register space", st.Address)
		}
		blockEnd := st.Address + status.SlotsPerBlock - 1
		if d.Store.Driver == DriverModbus && d.Store.Modbus != nil &&
			d.Store.Modbus.Endpoint == st.Endpoint && d.Store.Modbus.UnitID == st.UnitID {
			if overlaps(st.Address, blockEnd, d.Store.Modbus.Address, storeEnd(d.Store)) {
				return fmt.Errorf(
					"status block %d-%d overlaps store registers %d-%d on endpoint=%s unit_id=%d",
					st.Address, blockEnd,
					d.Store.Modbus.Address, storeEnd(d.Store),
					st.Endpoint, st.UnitID,
				)
			}
		}
	}

	// ------------------------------------------------------------
	// SETUP VALUES
	// ------------------------------------------------------------

	reg := settings.Thermostat()
	for name, value := range d.Setup {
		if _, ok := settings.FormFields[name]; !ok {
			return fmt.Errorf("setup: unknown field %q", name)
		}
		if _, err := settings.ApplyForm(reg, []settings.Pair{{Name: name, Value: value}}); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}

	// ------------------------------------------------------------
	// SENSORS
	// ------------------------------------------------------------

	seen := make(map[sensor.Address]bool)
	for i, sc := range d.Sensors {
		a, err := sensor.ParseAddress(sc.Address)
		if err != nil {
			return fmt.Errorf("sensors[%d]: %w", i, err)
		}
		if seen[a] {
			return fmt.Errorf("sensors[%d]: duplicate address %s", i, a)
		}
		seen[a] = true
	}

	return nil
}

func storeEnd(s StoreConfig) uint16 {
	size := s.Size
	if size == 0 {
		size = eeprom.DefaultSize
	}
	return s.Modbus.Address + uint16((size+1)/2) - 1
}

// overlaps reports whether two inclusive register ranges intersect.
func overlaps(aStart, aEnd, bStart, bEnd uint16) bool {
	return !(aEnd < bStart || aStart > bEnd)
}
