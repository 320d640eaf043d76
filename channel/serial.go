package channel

import (
	"context"
	"sync"
	"time"

	"go.bug.st/serial"
)

// SerialConfig configures a Serial channel.
type SerialConfig struct {
	// PortName names the OS device, e.g. "/dev/ttyUSB0" or "COM3".
	PortName string
	BaudRate int
	// ReadTimeout bounds how long Transmit waits for the far end's
	// response before treating the frame as lost.
	ReadTimeout time.Duration
	// MaxResponse bounds how many bytes Transmit reads back per call.
	MaxResponse int
}

// DefaultSerialConfig returns a reasonable configuration for testing goarq
// against a physical or loopback serial link.
func DefaultSerialConfig(portName string) SerialConfig {
	return SerialConfig{
		PortName:    portName,
		BaudRate:    115200,
		ReadTimeout: 500 * time.Millisecond,
		MaxResponse: 4096,
	}
}

// Serial is a Channel that frames goarq traffic over a real serial port
// using go.bug.st/serial. Unlike Simulated it introduces no deliberate
// loss or corruption: the wire already does that for us. It is intended
// for bench testing goarq against a loopback cable or a second machine,
// not as the channel's normal production path.
type Serial struct {
	port serial.Port
	cfg  SerialConfig

	mu    sync.Mutex
	stats Stats
}

// NewSerial opens cfg.PortName at cfg.BaudRate and returns a Serial
// channel backed by it. The caller is responsible for calling Close.
func NewSerial(cfg SerialConfig) (*Serial, error) {
	mode := &serial.Mode{BaudRate: cfg.BaudRate}
	port, err := serial.Open(cfg.PortName, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, err
	}
	return &Serial{port: port, cfg: cfg}, nil
}

// Transmit writes f to the port, then reads back whatever arrives within
// cfg.ReadTimeout. An empty read is reported as loss (ok=false), matching
// the Channel contract's treatment of a frame that never arrived.
func (s *Serial) Transmit(ctx context.Context, f []byte) ([]byte, bool, error) {
	if _, err := s.port.Write(f); err != nil {
		return nil, false, err
	}

	buf := make([]byte, s.cfg.MaxResponse)
	n, err := s.port.Read(buf)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n == 0 {
		s.stats.Lost++
		return nil, false, nil
	}
	s.stats.Transmitted++
	return buf[:n], true, nil
}

// Stats implements Channel. Serial never detects corruption on its own
// (that's the job of the frame's CRC once deserialized upstream), so
// Stats().Corrupted is always zero.
func (s *Serial) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close releases the underlying serial port.
func (s *Serial) Close() error {
	return s.port.Close()
}
