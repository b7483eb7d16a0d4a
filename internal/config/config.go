// internal/config/config.go
package config

import (
	"time"

	"github.com/tamzrod/thermostat/internal/sensor"
)

type Config struct {
	Device DeviceConfig `yaml:"device"`
}

type DeviceConfig struct {
	LogLevel string `yaml:"log_level"`

	Store  StoreConfig   `yaml:"store"`
	Report ReportConfig  `yaml:"report"`
	Status *StatusConfig `yaml:"status"` // optional, opt-in

	// Setup holds the values applied at first-time setup, keyed by
	// setup-form field name.
	Setup map[string]string `yaml:"setup"`

	Sensors []SensorConfig `yaml:"sensors"`
	RelayOn bool           `yaml:"relay_on"`
	Comment string         `yaml:"comment"`
}

// ---- STORE ----

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverModbus = "modbus"
)

type StoreConfig struct {
	Driver string        `yaml:"driver"`
	Path   string        `yaml:"path"` // sqlite
	Size   int           `yaml:"size"` // bytes
	Modbus *ModbusConfig `yaml:"modbus"`
}

type ModbusConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	Address   uint16 `yaml:"address"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- REPORT ----

type ReportConfig struct {
	DialTimeoutMs int `yaml:"dial_timeout_ms"`
	IdleTimeoutMs int `yaml:"idle_timeout_ms"`
	ChunkSize     int `yaml:"chunk_size"`
}

func (r ReportConfig) DialTimeout() time.Duration {
	return time.Duration(r.DialTimeoutMs) * time.Millisecond
}

func (r ReportConfig) IdleTimeout() time.Duration {
	return time.Duration(r.IdleTimeoutMs) * time.Millisecond
}

// ---- STATUS BLOCK ----

type StatusConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	Address   uint16 `yaml:"address"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- SENSORS ----

// SensorConfig is a fixed reading for host builds. A nil TempC is a sensor
// that currently has no valid reading.
type SensorConfig struct {
	Address string   `yaml:"address"`
	TempC   *float32 `yaml:"temp_c"`
}

// Readings converts the configured sensors. Validate has checked addresses.
func (d DeviceConfig) Readings() ([]sensor.Reading, error) {
	out := make([]sensor.Reading, 0, len(d.Sensors))
	for _, sc := range d.Sensors {
		a, err := sensor.ParseAddress(sc.Address)
		if err != nil {
			return nil, err
		}
		r := sensor.Reading{Addr: a}
		if sc.TempC != nil {
			r.TempC = *sc.TempC
			r.OK = true
		}
		out = append(out, r)
	}
	return out, nil
}
