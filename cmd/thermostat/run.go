// cmd/thermostat/run.go
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tamzrod/thermostat/internal/report"
	"github.com/tamzrod/thermostat/internal/sensor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot and run the report cycle until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Boot and run a single report exchange",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
}

func newRunner(e *env) (*report.Runner, error) {
	readings, err := e.cfg.Device.Readings()
	if err != nil {
		return nil, err
	}
	relay := e.cfg.Device.RelayOn
	src := report.SensorSource{
		Sensors: sensor.Static(readings),
		RelayOn: func() bool { return relay },
		Comment: e.cfg.Device.Comment,
	}

	obs, err := e.publisher()
	if err != nil {
		return nil, err
	}
	return report.NewRunner(e.client(), src, obs, e.log.Named("runner")), nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if _, err := e.boot(); err != nil {
		return err
	}

	r, err := newRunner(e)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e.log.Info("report cycle started", "interval", r.Interval())
	r.Run(ctx)
	e.log.Info("shutting down")
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	if _, err := e.boot(); err != nil {
		return err
	}

	r, err := newRunner(e)
	if err != nil {
		return err
	}

	res, err := r.RunOnce(cmd.Context())
	printResult(cmd.OutOrStdout(), res)
	return err
}

func printResult(w io.Writer, res report.Result) {
	if res.TimedOut {
		fmt.Fprintln(w, "timed out")
		return
	}
	fmt.Fprintf(w, "status %d changed=%t persisted=%t\n", res.Status, res.Changed, res.Persisted)
	for _, c := range res.Applied {
		mark := " "
		if c.Changed {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s=%s\n", mark, c.Name, c.Value)
	}
}
