// internal/status/writer.go
package status

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/tamzrod/thermostat/internal/report"
)

// RegisterWriter is the subset of a Modbus client used to publish the block.
type RegisterWriter interface {
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// BlockWriter is the delivery-only publisher of the status block.
// It receives a snapshot and writes it verbatim.
type BlockWriter struct {
	cli  RegisterWriter
	base uint16

	needFull bool
	last     Snapshot
	name     string
}

// NewBlockWriter publishes the block at register base. name is the device
// identifier written on full re-assert only.
func NewBlockWriter(cli RegisterWriter, base uint16, name string) *BlockWriter {
	return &BlockWriter{
		cli:      cli,
		base:     base,
		needFull: true, // full re-assert on first successful write
		last:     Snapshot{Health: HealthUnknown},
		name:     name,
	}
}

// WriteStatus delivers a snapshot. Only changed live slots are written,
// except after a failure, when the next call re-asserts the full block.
func (w *BlockWriter) WriteStatus(s Snapshot) error {
	if w == nil || w.cli == nil {
		return errors.New("status writer: disabled")
	}

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if w.needFull {
		regs := Encode(s, w.name)
		if err := w.write(w.base, regs); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		w.needFull = false
		w.last = s
		return nil
	}

	var errs []string

	want := live(s)
	have := live(w.last)
	for slot := 0; slot < slotLiveEnd; slot++ {
		if want[slot] == have[slot] {
			continue
		}
		if err := w.write(w.base+uint16(slot), []uint16{want[slot]}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d write failed: %v", slot, err))
		}
	}

	if len(errs) > 0 {
		// partial failure: state of the block is unknown
		w.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	w.last = s
	return nil
}

func (w *BlockWriter) write(addr uint16, regs []uint16) error {
	b := make([]byte, 2*len(regs))
	for i, v := range regs {
		b[2*i] = byte(v >> 8)
		b[2*i+1] = byte(v)
	}
	_, err := w.cli.WriteMultipleRegisters(addr, uint16(len(regs)), b)
	return err
}

// ---- report wiring ----

// Publisher tracks cycles and publishes the block after each one.
// It implements report.Observer.
type Publisher struct {
	Tracker *Tracker
	Writer  *BlockWriter
	Log     hclog.Logger
}

func (p *Publisher) Observe(res report.Result, err error) {
	p.Tracker.Observe(res, err)
	if p.Writer == nil {
		return
	}
	if werr := p.Writer.WriteStatus(p.Tracker.Snapshot()); werr != nil && p.Log != nil {
		p.Log.Warn("status publish failed", "error", werr)
	}
}
