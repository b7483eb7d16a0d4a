// cmd/thermostat/settings.go
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tamzrod/thermostat/internal/device"
	"github.com/tamzrod/thermostat/internal/settings"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every stored setting",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

var setCmd = &cobra.Command{
	Use:   "set <field=value>...",
	Short: "Update settings by setup-form field name and persist them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSet,
}

var setupCmd = &cobra.Command{
	Use:   "setup [field=value]...",
	Short: "Rewrite the record from defaults, config setup values and arguments",
	Args:  cobra.ArbitraryArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(setupCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if _, err := e.boot(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	e.reg.Each(func(s settings.Setting) {
		value := s.String()
		if s.IsString && strings.HasPrefix(s.Name, "rot") && s.Text != nil {
			value = "********"
		}
		fmt.Fprintf(w, "%-26s %s\n", s.Name, value)
	})
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	pairs, err := parsePairs(args)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if _, err := e.boot(); err != nil {
		return err
	}

	changed, err := device.Apply(e.codec, e.reg, pairs, e.log.Named("settings"))
	if changed {
		fmt.Fprintln(cmd.OutOrStdout(), "settings changed")
	} else if err == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "no change")
	}
	return err
}

func runSetup(cmd *cobra.Command, args []string) error {
	pairs, err := parsePairs(args)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	// arguments win over config values
	all := append(device.SetupPairs(e.cfg.Device.Setup), pairs...)
	if err := device.Setup(e.codec, e.reg, all, e.log.Named("boot")); err != nil {
		return err
	}

	ident, _ := e.reg.Text(settings.NameIdentity)
	fmt.Fprintf(cmd.OutOrStdout(), "setup written, ident %s\n", ident)
	return nil
}

func parsePairs(args []string) ([]settings.Pair, error) {
	pairs := make([]settings.Pair, 0, len(args))
	for _, a := range args {
		p, err := settings.ParsePair(a)
		if err != nil {
			return nil, err
		}
		if _, ok := settings.FormFields[p.Name]; !ok {
			return nil, fmt.Errorf("unknown field %q", p.Name)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}
