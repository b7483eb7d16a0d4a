// internal/report/client.go
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/tamzrod/thermostat/internal/settings"
)

// ErrTimeout is returned when the server goes quiet for longer than the
// idle deadline. Settings are left as they were before the exchange.
var ErrTimeout = errors.New("report: timed out waiting for response")

const (
	DefaultDialTimeout = 5 * time.Second
	DefaultIdleTimeout = 5 * time.Second
	DefaultChunkSize   = 64
)

// Dialer opens the transport to the report server.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Persister makes the registry durable after a changing exchange.
type Persister interface {
	Write() error
}

// Config tunes the transport. Zero fields take the defaults.
type Config struct {
	DialTimeout time.Duration
	IdleTimeout time.Duration
	ChunkSize   int
}

// Result describes one completed or abandoned exchange.
type Result struct {
	Status    int
	ETag      string
	Changed   bool
	Persisted bool
	TimedOut  bool
	Applied   []Change
}

// Client runs report exchanges against the configured server.
// It is not safe for concurrent use; one exchange at a time.
type Client struct {
	reg     *settings.Registry
	cfg     Config
	dialer  Dialer
	persist Persister
	log     hclog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithPersister sets the writer run after an exchange that changed settings.
func WithPersister(p Persister) Option {
	return func(c *Client) { c.persist = p }
}

func WithLogger(l hclog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient returns a client over reg.
func NewClient(reg *settings.Registry, cfg Config, opts ...Option) *Client {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}

	c := &Client{
		reg:    reg,
		cfg:    cfg,
		dialer: &net.Dialer{},
		log:    hclog.NewNullLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Registry returns the settings the client reports and updates.
func (c *Client) Registry() *settings.Registry { return c.reg }

// Send performs one exchange: dial, request, parse the reply, persist.
//
// No retry. A failed dial or send leaves settings untouched. A timeout,
// buffer overrun, cancellation after bytes arrived or a failed persist
// discards every change applied during the exchange.
func (c *Client) Send(ctx context.Context, r Report) (Result, error) {
	req, err := BuildRequest(c.reg, r)
	if err != nil {
		return Result{}, err
	}
	host, _, _ := Target(c.reg)
	addr := dialAddress(c.reg, host)

	dctx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	conn, err := c.dialer.DialContext(dctx, "tcp", addr)
	cancel()
	if err != nil {
		return Result{}, fmt.Errorf("report: dial %s: %w", addr, err)
	}
	defer conn.Close()

	// cancellation unblocks the pending read or write
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.IdleTimeout))
	if _, err := conn.Write(req); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("report: send to %s: %w", addr, err)
	}
	c.log.Debug("request sent", "addr", addr, "bytes", len(req))

	before := c.reg.Snapshot()
	p := NewParser(c.reg, c.log.Named("parser"))

	res, err := c.receive(ctx, conn, p)
	if err != nil {
		c.reg.Restore(before)
		if len(p.Applied()) > 0 {
			c.log.Warn("exchange discarded", "applied", len(p.Applied()), "error", err)
		}
		return res, err
	}

	if res.ETag != "" {
		if changed, err := c.reg.Set(settings.NameETag, res.ETag); err == nil && changed {
			res.Changed = true
		}
	}

	if res.Changed && c.persist != nil {
		if err := c.persist.Write(); err != nil {
			// roll back so the next exchange re-applies and writes again
			c.reg.Restore(before)
			c.log.Warn("exchange discarded", "applied", len(res.Applied), "error", err)
			return res, fmt.Errorf("report: persist: %w", err)
		}
		res.Persisted = true
	}

	c.log.Info("report exchange complete",
		"status", res.Status,
		"applied", len(res.Applied),
		"changed", res.Changed,
		"persisted", res.Persisted,
	)
	return res, nil
}

func (c *Client) receive(ctx context.Context, conn net.Conn, p *Parser) (Result, error) {
	buf := make([]byte, c.cfg.ChunkSize)
	received := 0

	for !p.Done() {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
		n, rerr := conn.Read(buf)
		if n > 0 {
			received += n
			if err := p.Feed(buf[:n]); err != nil {
				return Result{}, err
			}
		}
		if rerr == nil {
			continue
		}

		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}

		switch {
		case errors.Is(rerr, io.EOF):
			p.Close()

		case errors.Is(rerr, os.ErrDeadlineExceeded):
			if received == 0 {
				c.log.Warn("no response before idle deadline", "idle", c.cfg.IdleTimeout)
				return Result{TimedOut: true}, ErrTimeout
			}
			if p.State() == StateBody && p.ContentLength() < 0 {
				// no declared length: a quiet server is taken as end of body
				c.log.Debug("idle deadline ends body of unknown length", "consumed", p.Consumed())
				p.Close()
				continue
			}
			c.log.Warn("response stalled", "state", p.State().String(), "received", received)
			return Result{TimedOut: true}, ErrTimeout

		default:
			return Result{}, fmt.Errorf("report: receive: %w", rerr)
		}
	}

	return Result{
		Status:  p.StatusCode(),
		ETag:    p.ETag(),
		Changed: p.Changed(),
		Applied: p.Applied(),
	}, nil
}

// dialAddress joins host with the port setting unless host carries its own.
func dialAddress(reg *settings.Registry, host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	port := "80"
	if v, ok := reg.Scalar(settings.NamePort); ok {
		port = strconv.FormatUint(v.Uint(), 10)
	}
	return net.JoinHostPort(host, port)
}
