// internal/eeprom/modbus/store.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/thermostat/internal/eeprom"
)

// Protocol limits per request (Modbus application protocol v1.1b3).
const (
	maxReadRegisters  = 125
	maxWriteRegisters = 123
)

// RegisterClient is the subset of modbus.Client the store uses.
type RegisterClient interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// Config locates the image on a remote memory device.
type Config struct {
	Endpoint string
	UnitID   uint8
	Address  uint16 // first holding register
	Size     int    // bytes
	Timeout  time.Duration
}

// Store mirrors an EEPROM image kept in holding registers, two bytes per
// register, big-endian. Writes mark registers dirty; Commit sends only dirty
// runs. A failed run stays dirty and is re-sent on the next Commit.
type Store struct {
	mu      sync.Mutex
	client  RegisterClient
	address uint16
	size    int
	image   []byte // len = 2 * registers
	dirty   []bool // per register
	closer  func() error
}

// Connect opens a Modbus TCP client. The returned func closes it.
func Connect(endpoint string, unitID uint8, timeout time.Duration) (modbus.Client, func() error, error) {
	if endpoint == "" {
		return nil, nil, errors.New("eeprom modbus: endpoint required")
	}

	h := modbus.NewTCPClientHandler(endpoint)
	h.Timeout = timeout
	h.SlaveId = unitID

	if err := h.Connect(); err != nil {
		return nil, nil, fmt.Errorf("eeprom modbus: connect %s: %w", endpoint, err)
	}
	return modbus.NewClient(h), h.Close, nil
}

// Dial connects over Modbus TCP and loads the image.
func Dial(cfg Config) (*Store, error) {
	cli, closer, err := Connect(cfg.Endpoint, cfg.UnitID, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	s, err := New(cli, cfg.Address, cfg.Size)
	if err != nil {
		closer()
		return nil, err
	}
	s.closer = closer
	return s, nil
}

// New loads size bytes starting at register address through client.
func New(client RegisterClient, address uint16, size int) (*Store, error) {
	if size <= 0 {
		return nil, errors.New("eeprom modbus: size must be > 0")
	}
	regs := (size + 1) / 2
	if int(address)+regs > 0x10000 {
		return nil, fmt.Errorf("eeprom modbus: %d registers from %d exceed the address space", regs, address)
	}

	s := &Store{
		client:  client,
		address: address,
		size:    size,
		image:   make([]byte, 0, regs*2),
		dirty:   make([]bool, regs),
	}

	for start := 0; start < regs; start += maxReadRegisters {
		qty := regs - start
		if qty > maxReadRegisters {
			qty = maxReadRegisters
		}
		data, err := client.ReadHoldingRegisters(address+uint16(start), uint16(qty))
		if err != nil {
			return nil, fmt.Errorf("eeprom modbus: read %d@%d: %w", qty, int(address)+start, err)
		}
		if len(data) != qty*2 {
			return nil, fmt.Errorf("eeprom modbus: read %d@%d: got %d bytes", qty, int(address)+start, len(data))
		}
		s.image = append(s.image, data...)
	}

	return s, nil
}

func (s *Store) Size() int { return s.size }

func (s *Store) Get(off int) (byte, error) {
	if err := eeprom.CheckRange(s, off); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image[off], nil
}

func (s *Store) Put(off int, b byte) error {
	if err := eeprom.CheckRange(s, off); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image[off] != b {
		s.image[off] = b
		s.dirty[off/2] = true
	}
	return nil
}

// Commit writes every dirty run of registers.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error

	for i := 0; i < len(s.dirty); {
		if !s.dirty[i] {
			i++
			continue
		}
		end := i
		for end < len(s.dirty) && s.dirty[end] && end-i < maxWriteRegisters {
			end++
		}

		qty := end - i
		addr := s.address + uint16(i)
		if _, err := s.client.WriteMultipleRegisters(addr, uint16(qty), s.image[i*2:end*2]); err != nil {
			errs = append(errs, fmt.Errorf("write %d@%d: %w", qty, addr, err))
		} else {
			for r := i; r < end; r++ {
				s.dirty[r] = false
			}
		}
		i = end
	}

	if len(errs) > 0 {
		return fmt.Errorf("eeprom modbus: %w", errors.Join(errs...))
	}
	return nil
}

// Close closes the TCP connection when the store was built by Dial.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
