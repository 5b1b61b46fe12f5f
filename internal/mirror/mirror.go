// Package mirror copies LED channel state into a Modbus TCP device so
// PLCs and HMIs can watch the blinker without speaking MQTT.
//
// Layout, for N channels starting at the configured addresses:
//
//	coils     [2*i]   channel i enabled
//	          [2*i+1] channel i output level
//	registers [3*i]   channel i mode code (see ModeCode)
//	          [3*i+1] channel i on duration, ms
//	          [3*i+2] channel i off duration, ms
package mirror

import (
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sweeney/ledblink/internal/blink"
)

// Writer is the subset of a Modbus client the mirror needs.
type Writer interface {
	WriteCoils(unitID uint8, addr uint16, bits []bool) error
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
	Close() error
}

// DialFunc opens a new Writer.
type DialFunc func() (Writer, error)

// Config places the mirrored block in the device's address space.
type Config struct {
	UnitID      uint8
	CoilAddress uint16
	RegAddress  uint16
}

// Mirror writes scheduler snapshots to a Modbus device. The connection is
// opened on first use and reopened after any failed write.
type Mirror struct {
	cfg  Config
	dial DialFunc
	log  zerolog.Logger

	mu sync.Mutex
	w  Writer
}

// New returns a Mirror that connects through dial.
func New(cfg Config, dial DialFunc, log zerolog.Logger) *Mirror {
	return &Mirror{cfg: cfg, dial: dial, log: log}
}

// ModeCode maps a channel mode to its register value.
func ModeCode(m blink.Mode) uint16 {
	switch m {
	case blink.ModeSolidOn:
		return 1
	case blink.ModeSolidOff:
		return 2
	case blink.ModeBlinking:
		return 3
	default:
		return 0
	}
}

// Encode converts a snapshot into the coil and register blocks.
func Encode(snap blink.Snapshot) ([]bool, []uint16) {
	coils := make([]bool, 0, 2*len(snap.Channels))
	regs := make([]uint16, 0, 3*len(snap.Channels))
	for _, c := range snap.Channels {
		coils = append(coils, c.Enabled, c.On)
		regs = append(regs, ModeCode(c.Mode), clamp16(c.OnMs), clamp16(c.OffMs))
	}
	return coils, regs
}

func clamp16(v uint32) uint16 {
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}

// Sync writes one snapshot. On error the connection is dropped so the
// next call redials.
func (m *Mirror) Sync(snap blink.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.w == nil {
		w, err := m.dial()
		if err != nil {
			return fmt.Errorf("mirror dial: %w", err)
		}
		m.w = w
		m.log.Info().Msg("mirror connected")
	}

	coils, regs := Encode(snap)
	if len(coils) == 0 {
		return nil
	}
	if err := m.w.WriteCoils(m.cfg.UnitID, m.cfg.CoilAddress, coils); err != nil {
		m.reset()
		return fmt.Errorf("mirror write coils: %w", err)
	}
	if err := m.w.WriteRegisters(m.cfg.UnitID, m.cfg.RegAddress, regs); err != nil {
		m.reset()
		return fmt.Errorf("mirror write registers: %w", err)
	}
	return nil
}

func (m *Mirror) reset() {
	if err := m.w.Close(); err != nil {
		m.log.Debug().Err(err).Msg("mirror close")
	}
	m.w = nil
}

// Close releases the connection, if any.
func (m *Mirror) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.w == nil {
		return nil
	}
	err := m.w.Close()
	m.w = nil
	return err
}
