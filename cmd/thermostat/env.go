// cmd/thermostat/env.go
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/tamzrod/thermostat/internal/config"
	"github.com/tamzrod/thermostat/internal/device"
	"github.com/tamzrod/thermostat/internal/eeprom"
	emodbus "github.com/tamzrod/thermostat/internal/eeprom/modbus"
	esqlite "github.com/tamzrod/thermostat/internal/eeprom/sqlite"
	"github.com/tamzrod/thermostat/internal/report"
	"github.com/tamzrod/thermostat/internal/settings"
	"github.com/tamzrod/thermostat/internal/status"
)

// env is everything a command needs: config, logger, settings and the
// codec over the opened store.
type env struct {
	cfg   *config.Config
	log   hclog.Logger
	reg   *settings.Registry
	codec *eeprom.Codec

	closers []func() error
}

// openEnv loads the config and opens the store. The registry holds defaults
// until boot is called.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg: cfg,
		log: newLogger(cfg.Device.LogLevel, cmd.ErrOrStderr()),
		reg: settings.Thermostat(),
	}

	store, closer, err := openStore(cfg.Device.Store)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		e.closers = append(e.closers, closer)
	}

	e.codec = eeprom.NewCodec(store, e.reg, eeprom.WithLogger(e.log.Named("codec")))
	e.log.Debug("store opened", "driver", cfg.Device.Store.Driver, "size", store.Size())
	return e, nil
}

func openStore(sc config.StoreConfig) (eeprom.Store, func() error, error) {
	switch sc.Driver {
	case config.DriverSQLite:
		s, err := esqlite.Open(sc.Path, sc.Size)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.DriverModbus:
		m := sc.Modbus
		s, err := emodbus.Dial(emodbus.Config{
			Endpoint: m.Endpoint,
			UnitID:   m.UnitID,
			Address:  m.Address,
			Size:     sc.Size,
			Timeout:  time.Duration(m.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.DriverMemory:
		return eeprom.NewMemStore(sc.Size), nil, nil

	default:
		return nil, nil, fmt.Errorf("store: unknown driver %q", sc.Driver)
	}
}

// boot loads settings, running first-time setup from the config when the
// store holds no record.
func (e *env) boot() (device.BootResult, error) {
	res, err := device.Boot(e.codec, e.reg, device.SetupPairs(e.cfg.Device.Setup), e.log.Named("boot"))
	if err != nil {
		return res, err
	}
	e.log.Debug("boot complete", "outcome", res.Outcome.String(), "corrupt", res.Corrupt)
	return res, nil
}

func (e *env) client() *report.Client {
	rc := e.cfg.Device.Report
	cfg := report.Config{
		DialTimeout: rc.DialTimeout(),
		IdleTimeout: rc.IdleTimeout(),
		ChunkSize:   rc.ChunkSize,
	}
	return report.NewClient(e.reg, cfg,
		report.WithPersister(e.codec),
		report.WithLogger(e.log.Named("report")),
	)
}

// publisher tracks cycle health and, when a status block is configured,
// publishes it over Modbus.
func (e *env) publisher() (*status.Publisher, error) {
	p := &status.Publisher{Tracker: status.NewTracker(), Log: e.log.Named("status")}

	sc := e.cfg.Device.Status
	if sc == nil {
		return p, nil
	}

	cli, closer, err := emodbus.Connect(sc.Endpoint, sc.UnitID, time.Duration(sc.TimeoutMs)*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	e.closers = append(e.closers, closer)

	ident, _ := e.reg.Text(settings.NameIdentity)
	p.Writer = status.NewBlockWriter(cli, sc.Address, ident)
	return p, nil
}

func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
