// internal/settings/thermostat.go
package settings

// Thermostat setting names referenced outside this package.
const (
	NamePort        = "port"
	NameReportEvery = "max_time_between_reports"
	NameRot         = "rot"
	NameDesired     = "des_temp"
	NameMode        = "mode"

	NameETag     = "etag"
	NameHost     = "rpthost"
	NameReport   = "rptpath"
	NameIdentity = "ident"
)

// Mode labels, in stored-number order.
const (
	ModeHeating = "heating"
	ModeCooling = "cooling"
)

// ThermostatScalars is the scalar table of the thermostat, in on-media order.
// Changing this table changes the scalar block layout: bump the record tag.
var ThermostatScalars = []ScalarField{
	{Name: NamePort, Kind: Uint16, Default: "80"},
	{Name: NameReportEvery, Kind: Uint32, Default: "20"}, // seconds
	{Name: "onewire_pin", Kind: Uint8, Default: "13"},
	{Name: NameRot, Kind: Int8, Default: "3"},
	{Name: NameDesired, Kind: Float, Default: "20"},
	{Name: "precision", Kind: Float, Default: "0.2"},
	{Name: "max_discrepancy_down", Kind: Float, Default: "2"},
	{Name: "max_discrepancy_up", Kind: Float, Default: "2"},
	{Name: NameMode, Kind: Uint8, Default: ModeHeating, Labels: []string{ModeHeating, ModeCooling}},
	{Name: "fan_overrun_sec", Kind: Uint32},
}

// ThermostatStrings is the string table of the thermostat, in on-media order.
var ThermostatStrings = []StringField{
	{Name: NameETag}, // set from the response header, not the body
	{Name: "ssid"},
	{Name: "rotpass"},
	{Name: "rotlpswd"},
	{Name: NameHost},
	{Name: NameReport},
	{Name: "cfgpath"},
	{Name: NameIdentity},
}

// Thermostat builds a registry over the thermostat tables with defaults.
func Thermostat() *Registry {
	r, err := NewRegistry(ThermostatScalars, ThermostatStrings)
	if err != nil {
		// tables are static; a failure here is a programming error
		panic(err)
	}
	return r
}
