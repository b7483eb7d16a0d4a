// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
)

// helper to build a modbus-backed device quickly
func modbusDevice(endpoint string, unitID uint8, storeAddr uint16, status *StatusConfig) *Config {
	return &Config{
		Device: DeviceConfig{
			Store: StoreConfig{
				Driver: DriverModbus,
				Size:   512,
				Modbus: &ModbusConfig{
					Endpoint: endpoint,
					UnitID:   unitID,
					Address:  storeAddr,
				},
			},
			Status: status,
		},
	}
}

// ---- tests ----

func TestValidate_EmptyConfigIsValid(t *testing.T) {
	if err := Validate(&Config{}); err != nil {
		t.Fatalf("expected zero config to validate, got: %v", err)
	}
}

func TestValidate_StatusBlockDifferentEndpoints(t *testing.T) {
	cfg := modbusDevice("ep1:502", 1, 0, &StatusConfig{Endpoint: "ep2:502", UnitID: 1, Address: 0})

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_StatusBlockOverlapsStore(t *testing.T) {
	// 512 bytes = registers 100-355
	cfg := modbusDevice("ep1:502", 1, 100, &StatusConfig{Endpoint: "ep1:502", UnitID: 1, Address: 350})

	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected overlap error, got nil")
	}
	if !strings.Contains(err.Error(), "overlaps") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_StatusBlockAdjacentToStore(t *testing.T) {
	cfg := modbusDevice("ep1:502", 1, 100, &StatusConfig{Endpoint: "ep1:502", UnitID: 1, Address: 356})

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected no error for adjacent ranges, got: %v", err)
	}
}

func TestValidate_StatusBlockOtherUnitID(t *testing.T) {
	cfg := modbusDevice("ep1:502", 1, 100, &StatusConfig{Endpoint: "ep1:502", UnitID: 2, Address: 100})

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected no error across unit ids, got: %v", err)
	}
}

func TestValidate_StoreDrivers(t *testing.T) {
	cases := []struct {
		name    string
		store   StoreConfig
		wantErr bool
	}{
		{"memory", StoreConfig{Driver: DriverMemory}, false},
		{"sqlite with path", StoreConfig{Driver: DriverSQLite, Path: "/var/lib/thermo.db"}, false},
		{"sqlite without path", StoreConfig{Driver: DriverSQLite}, true},
		{"modbus without endpoint", StoreConfig{Driver: DriverModbus}, true},
		{"unknown driver", StoreConfig{Driver: "flash"}, true},
		{"size too small", StoreConfig{Size: 2}, true},
		{"size too large", StoreConfig{Size: 1 << 20}, true},
	}

	for _, c := range cases {
		err := Validate(&Config{Device: DeviceConfig{Store: c.store}})
		if (err != nil) != c.wantErr {
			t.Fatalf("%s: wantErr=%v got: %v", c.name, c.wantErr, err)
		}
	}
}

func TestValidate_SetupValues(t *testing.T) {
	cfg := &Config{Device: DeviceConfig{Setup: map[string]string{
		"ssid":     "home",
		"des_temp": "21.5",
		"mode":     "cooling",
	}}}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid setup, got: %v", err)
	}

	cfg.Device.Setup["port"] = "70000"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected out-of-range port to be rejected")
	}

	delete(cfg.Device.Setup, "port")
	cfg.Device.Setup["no_such_field"] = "1"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected unknown setup field to be rejected")
	}
}

func TestValidate_Sensors(t *testing.T) {
	cfg := &Config{Device: DeviceConfig{Sensors: []SensorConfig{
		{Address: "28ff641e8216043c"},
		{Address: "28FF641E8216043C"},
	}}}

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate address error, got: %v", err)
	}

	cfg.Device.Sensors = []SensorConfig{{Address: "28ff"}}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected short address to be rejected")
	}
}

func TestValidate_LogLevel(t *testing.T) {
	if err := Validate(&Config{Device: DeviceConfig{LogLevel: "debug"}}); err != nil {
		t.Fatalf("debug should be accepted: %v", err)
	}
	if err := Validate(&Config{Device: DeviceConfig{LogLevel: "loud"}}); err == nil {
		t.Fatalf("expected unknown log level to be rejected")
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := &Config{}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Device.Store.Driver != "" || cfg.Device.Store.Size != 0 {
		t.Fatalf("Validate mutated config: %+v", cfg.Device.Store)
	}
}
