// internal/report/parser.go
package report

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/tamzrod/thermostat/internal/settings"
)

// LineBufferSize bounds one response line, terminator included.
const LineBufferSize = 80

// ErrBufferOverrun is returned when a line does not fit the receive buffer.
// The rest of the exchange is lost.
var ErrBufferOverrun = errors.New("report: line exceeds receive buffer")

// State is the protocol stage of a response.
type State int

const (
	StateStatusLine State = iota
	StateHeaders
	StateBody
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStatusLine:
		return "status-line"
	case StateHeaders:
		return "headers"
	case StateBody:
		return "body"
	case StateDone:
		return "done"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Setter applies one name=value pair from the body.
type Setter interface {
	Set(name, raw string) (bool, error)
}

// Change records one body pair accepted by the Setter.
type Change struct {
	Name    string
	Value   string
	Changed bool
}

// Parser incrementally parses one response. Bytes arrive through Feed in
// chunks of any size; complete lines drive the state machine and a trailing
// partial line waits for the next chunk.
//
// A Parser serves exactly one exchange.
type Parser struct {
	set Setter
	log hclog.Logger

	state State
	buf   [LineBufferSize]byte
	n     int

	status        int
	contentLength int // -1: unknown, read until end of stream
	consumed      int
	etag          string
	changed       bool
	applied       []Change

	err error
}

// NewParser returns a parser that applies body pairs through set.
func NewParser(set Setter, log hclog.Logger) *Parser {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Parser{set: set, log: log, contentLength: -1}
}

// Feed consumes the next chunk. Bytes after the response is done are ignored.
// After ErrBufferOverrun every call returns the same error.
func (p *Parser) Feed(chunk []byte) error {
	if p.err != nil {
		return p.err
	}

	for len(chunk) > 0 && p.state != StateDone {
		seg := chunk
		eol := bytes.IndexByte(chunk, '\n')
		if eol >= 0 {
			seg = chunk[:eol+1]
		}

		if p.n+len(seg) > LineBufferSize {
			p.err = fmt.Errorf("%w: more than %d bytes in %s line", ErrBufferOverrun, LineBufferSize, p.state)
			p.n = 0
			p.log.Error("line overran receive buffer, abandoning response", "state", p.state.String())
			return p.err
		}
		p.n += copy(p.buf[p.n:], seg)
		chunk = chunk[len(seg):]

		if eol < 0 {
			return nil
		}

		line := p.buf[:p.n-1]
		term := 1
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
			term = 2
		}
		text := string(line)
		p.n = 0

		p.processLine(text, term)
	}

	return nil
}

// Close marks the end of the stream. A pending unterminated line is
// processed as the final line; the parser is then done.
func (p *Parser) Close() {
	if p.err != nil || p.state == StateDone {
		return
	}
	if p.n > 0 {
		text := string(p.buf[:p.n])
		p.n = 0
		p.processLine(text, 0)
	}
	if p.state != StateDone {
		p.log.Debug("end of stream", "state", p.state.String(), "consumed", p.consumed)
		p.state = StateDone
	}
}

func (p *Parser) processLine(line string, term int) {
	switch p.state {
	case StateStatusLine:
		p.statusLine(line)

	case StateHeaders:
		// no continuation-line support
		if line == "" {
			p.endHeaders()
			return
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			p.log.Debug("skipping malformed header", "line", line)
			return
		}
		p.header(name, strings.TrimLeft(value, " "))

	case StateBody:
		p.consumed += len(line) + term
		p.bodyLine(line)
		if p.contentLength >= 0 && p.consumed >= p.contentLength {
			p.log.Debug("end of response", "consumed", p.consumed)
			p.state = StateDone
		}
	}
}

func (p *Parser) statusLine(line string) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) >= 2 {
		if code, err := strconv.Atoi(parts[1]); err == nil {
			p.status = code
		}
	}
	if p.status == 0 {
		p.log.Warn("malformed status line", "line", line)
	}
	p.state = StateHeaders
	p.contentLength = -1
}

func (p *Parser) header(name, value string) {
	switch {
	case strings.EqualFold(name, "Content-Length"):
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			p.log.Warn("ignoring bad Content-Length", "value", value)
			p.contentLength = -1
			return
		}
		p.contentLength = n
	case strings.EqualFold(name, "ETag"):
		p.etag = value
	}
}

func (p *Parser) endHeaders() {
	if p.contentLength == 0 {
		p.log.Debug("empty response")
		p.state = StateDone
		return
	}
	p.state = StateBody
	p.consumed = 0
}

func (p *Parser) bodyLine(line string) {
	name, value, ok := strings.Cut(line, "=")
	if !ok {
		return
	}

	changed, err := p.set.Set(name, value)
	if err != nil {
		if errors.Is(err, settings.ErrUnknownField) {
			p.log.Debug("ignoring unknown setting", "name", name)
		} else {
			p.log.Warn("rejected setting", "name", name, "value", value, "error", err)
		}
		return
	}

	p.applied = append(p.applied, Change{Name: name, Value: value, Changed: changed})
	if changed {
		p.log.Info("setting changed", "name", name, "value", value)
		p.changed = true
	}
}

// ---- accessors ----

func (p *Parser) State() State { return p.state }

// Done reports whether the response is complete.
func (p *Parser) Done() bool { return p.state == StateDone }

// Changed reports whether any body pair changed a setting.
func (p *Parser) Changed() bool { return p.changed }

// StatusCode is the numeric status from the status line, 0 if unparsable.
func (p *Parser) StatusCode() int { return p.status }

// ETag is the last ETag header value, "" if none.
func (p *Parser) ETag() string { return p.etag }

// ContentLength is the declared body length, -1 when unknown.
func (p *Parser) ContentLength() int { return p.contentLength }

// Consumed is the number of body bytes processed, terminators included.
func (p *Parser) Consumed() int { return p.consumed }

// Applied lists the body pairs accepted so far, in order.
func (p *Parser) Applied() []Change {
	return append([]Change(nil), p.applied...)
}

// Err returns the sticky overrun error, if any.
func (p *Parser) Err() error { return p.err }
