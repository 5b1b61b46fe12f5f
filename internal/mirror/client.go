package mirror

import (
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// EndpointClient is a single Modbus TCP connection to one endpoint.
// Requests are serialized because the unit id is set per write.
type EndpointClient struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

// ClientConfig addresses one Modbus TCP endpoint.
type ClientConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// NewEndpointClient connects to cfg.Endpoint.
func NewEndpointClient(cfg ClientConfig) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("mirror: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &EndpointClient{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

func (c *EndpointClient) WriteCoils(unitID uint8, addr uint16, bits []bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID
	_, err := c.client.WriteMultipleCoils(addr, uint16(len(bits)), packBits(bits))
	return err
}

func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID
	_, err := c.client.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs))
	return err
}

// packBits packs coils LSB first, eight per byte.
func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// packRegisters encodes registers big-endian.
func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
