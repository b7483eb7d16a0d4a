// internal/report/runner.go
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/tamzrod/thermostat/internal/sensor"
	"github.com/tamzrod/thermostat/internal/settings"
)

const (
	// DefaultInterval applies when max_time_between_reports is 0.
	DefaultInterval = 20 * time.Second
	minInterval     = time.Second
)

// Source supplies the state for the next report.
type Source interface {
	Report(ctx context.Context) (Report, error)
}

// Observer receives the outcome of every cycle.
type Observer interface {
	Observe(res Result, err error)
}

// SensorSource reports the average of the attached sensors.
type SensorSource struct {
	Sensors sensor.Reader
	RelayOn func() bool
	Comment string
}

func (s SensorSource) Report(ctx context.Context) (Report, error) {
	readings, err := s.Sensors.Read(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("report: read sensors: %w", err)
	}
	r := Report{Comment: s.Comment, Sensors: readings}
	if avg, ok := sensor.Average(readings); ok {
		r.Temperature = avg
	}
	if s.RelayOn != nil {
		r.RelayOn = s.RelayOn()
	}
	return r, nil
}

// Runner schedules report cycles. One exchange in flight at most; the next
// cycle starts one interval after the previous one ends. No retries.
type Runner struct {
	client *Client
	src    Source
	obs    Observer
	log    hclog.Logger
}

// NewRunner returns a runner. obs may be nil.
func NewRunner(client *Client, src Source, obs Observer, log hclog.Logger) *Runner {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Runner{client: client, src: src, obs: obs, log: log}
}

// Interval is the current pause between cycles, re-read from the registry.
func (r *Runner) Interval() time.Duration {
	return Interval(r.client.Registry())
}

// Interval converts max_time_between_reports to a duration.
func Interval(reg *settings.Registry) time.Duration {
	v, ok := reg.Scalar(settings.NameReportEvery)
	if !ok || v.Uint() == 0 {
		return DefaultInterval
	}
	d := time.Duration(v.Uint()) * time.Second
	if d < minInterval {
		return minInterval
	}
	return d
}

// RunOnce performs a single cycle and reports it to the observer.
func (r *Runner) RunOnce(ctx context.Context) (Result, error) {
	rep, err := r.src.Report(ctx)
	if err != nil {
		r.observe(Result{}, err)
		return Result{}, err
	}

	res, err := r.client.Send(ctx, rep)
	r.observe(res, err)
	return res, err
}

// Run loops until ctx is done. The first cycle starts immediately.
func (r *Runner) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.log.Warn("report cycle skipped", "error", err)
			}
			next := r.Interval()
			r.log.Debug("next report", "in", next)
			timer.Reset(next)
		}
	}
}

func (r *Runner) observe(res Result, err error) {
	if r.obs != nil {
		r.obs.Observe(res, err)
	}
}
