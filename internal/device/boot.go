// internal/device/boot.go
package device

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/tamzrod/thermostat/internal/eeprom"
	"github.com/tamzrod/thermostat/internal/settings"
)

// Outcome says how settings were obtained at boot.
type Outcome int

const (
	// FirstTime: the store held no record of this format; defaults plus
	// setup values were written.
	FirstTime Outcome = iota + 1
	// Restored: settings were read back from the store.
	Restored
)

func (o Outcome) String() string {
	switch o {
	case FirstTime:
		return "first-time"
	case Restored:
		return "restored"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// BootResult describes a completed boot.
type BootResult struct {
	Outcome Outcome
	// Corrupt is set when restoring stopped at a string with a bad length.
	// Scalars and earlier strings hold stored values; the rest keep defaults.
	Corrupt bool
}

// Boot loads reg from the store behind codec.
//
// A store without the expected record tag is treated as never configured:
// setup is applied through the setup-form mapping, an identifier is
// generated when none was given, and the record is written.
func Boot(codec *eeprom.Codec, reg *settings.Registry, setup []settings.Pair, log hclog.Logger) (BootResult, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}

	if !codec.IsUninitialized() {
		err := codec.Read()
		switch {
		case err == nil:
			log.Info("settings restored")
			return BootResult{Outcome: Restored}, nil
		case errors.Is(err, eeprom.ErrCorruptString):
			log.Warn("settings partially restored", "error", err)
			return BootResult{Outcome: Restored, Corrupt: true}, nil
		default:
			return BootResult{}, fmt.Errorf("boot: %w", err)
		}
	}

	log.Info("no settings record, running first-time setup", "fields", len(setup))
	if err := Setup(codec, reg, setup, log); err != nil {
		return BootResult{}, err
	}
	return BootResult{Outcome: FirstTime}, nil
}

// Setup applies setup-form pairs over the current settings, generates an
// identifier when none is set and writes the record whatever the store held.
func Setup(codec *eeprom.Codec, reg *settings.Registry, setup []settings.Pair, log hclog.Logger) error {
	if log == nil {
		log = hclog.NewNullLogger()
	}

	if _, err := settings.ApplyForm(reg, setup); err != nil {
		return fmt.Errorf("boot: setup: %w", err)
	}

	if id, ok := reg.Text(settings.NameIdentity); !ok || id == "" {
		id = uuid.NewString()
		if _, err := reg.Set(settings.NameIdentity, id); err != nil {
			return fmt.Errorf("boot: ident: %w", err)
		}
		log.Info("generated identifier", "ident", id)
	}

	if err := codec.Write(); err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	return nil
}

// Apply is the configuration-update entry point: it applies setup-form
// pairs and writes the record when anything changed. Valid pairs are
// applied even when others fail.
func Apply(codec *eeprom.Codec, reg *settings.Registry, pairs []settings.Pair, log hclog.Logger) (bool, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}

	changed, applyErr := settings.ApplyForm(reg, pairs)
	if changed {
		if err := codec.Write(); err != nil {
			return changed, errors.Join(applyErr, fmt.Errorf("persist: %w", err))
		}
		log.Info("settings updated", "fields", len(pairs))
	}
	return changed, applyErr
}

// SetupPairs orders a name to value map for ApplyForm.
func SetupPairs(m map[string]string) []settings.Pair {
	out := make([]settings.Pair, 0, len(m))
	for name, value := range m {
		out = append(out, settings.Pair{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
