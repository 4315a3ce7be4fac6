package transport

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/muurk/projctl/internal/logging"
	"github.com/muurk/projctl/internal/protocol"
)

// port is the subset of serial.Port used by Serial.
type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// openPort is replaced in tests.
var openPort = func(name string, mode *serial.Mode) (port, error) {
	return serial.Open(name, mode)
}

// Serial is a serial port transport.
type Serial struct {
	name string
	port port

	mu      sync.Mutex
	timeout time.Duration // last read timeout applied to the port
	closed  bool
}

// Mode returns the fixed projector line settings.
func Mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: protocol.BaudRate,
		DataBits: protocol.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Open opens the named serial port with the projector line settings.
func Open(name string) (*Serial, error) {
	p, err := openPort(name, Mode())
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}

	logging.Info("Opened serial port",
		zap.String("port", name),
		zap.Int("baud", protocol.BaudRate),
	)
	return &Serial{name: name, port: p, timeout: -1}, nil
}

// Name returns the port name.
func (s *Serial) Name() string {
	return s.name
}

// Write writes p to the port.
func (s *Serial) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// ReadWithin waits up to timeout for data and reads what is available.
// It returns (0, nil) if nothing arrived in time.
func (s *Serial) ReadWithin(p []byte, timeout time.Duration) (int, error) {
	s.mu.Lock()
	if timeout != s.timeout {
		if err := s.port.SetReadTimeout(timeout); err != nil {
			s.mu.Unlock()
			return 0, fmt.Errorf("failed to set read timeout: %w", err)
		}
		s.timeout = timeout
	}
	s.mu.Unlock()

	return s.port.Read(p)
}

// Close closes the port. Closing twice is a no-op.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	logging.Debug("Closing serial port", zap.String("port", s.name))
	return s.port.Close()
}

// ListPorts returns the serial ports present on the system, sorted by name.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}
