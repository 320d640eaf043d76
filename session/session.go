// Package session composes the channel, sender, and receiver collaborators
// into a single Go-Back-N transfer driven by one call to Run.
package session

import (
	"bytes"
	"context"
	"time"

	"github.com/drunlade/goarq/arq"
	"github.com/drunlade/goarq/channel"
	"github.com/drunlade/goarq/frame"
	"github.com/drunlade/goarq/internal/logging"
)

// Config configures a Session: which channel backs it, and the sender and
// receiver policies layered over that channel.
type Config struct {
	// Channel, if set, is used as-is and UseSerial/Simulated/Serial below
	// are ignored. Leave nil to have New build one from the remaining
	// fields.
	Channel channel.Channel

	UseSerial bool
	Simulated channel.SimulatedConfig
	Serial    channel.SerialConfig

	Sender   arq.SenderConfig
	Receiver arq.ReceiverConfig

	Logger  logging.Logger
	Metrics *Metrics
}

// DefaultConfig returns a Session configuration backed by a mildly lossy
// simulated channel.
func DefaultConfig() Config {
	return Config{
		Simulated: channel.DefaultSimulatedConfig(),
		Sender:    arq.DefaultSenderConfig(),
		Receiver:  arq.DefaultReceiverConfig(),
		Logger:    logging.Noop{},
	}
}

// Report summarizes the outcome of one Session.Run call.
type Report struct {
	Stats         arq.SenderStats
	ReceiverStats arq.ReceiverStats
	ChannelStats  channel.Stats
	Success       bool
	AbandonedSeq  int
	Elapsed       time.Duration
}

// Session drives one message across a Channel using Go-Back-N.
type Session struct {
	cfg      Config
	ch       channel.Channel
	sender   *arq.Sender
	receiver *arq.Receiver
	metrics  *Metrics
}

// New builds a Session from cfg, opening a serial port if cfg.UseSerial is
// set and cfg.Channel is nil.
func New(cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Noop{}
	}

	ch := cfg.Channel
	if ch == nil {
		if cfg.UseSerial {
			s, err := channel.NewSerial(cfg.Serial)
			if err != nil {
				return nil, err
			}
			ch = s
		} else {
			ch = channel.NewSimulated(cfg.Simulated)
		}
	}

	recvCfg := cfg.Receiver
	recvCfg.Logger = logger
	receiver := arq.NewReceiver(ch, recvCfg)

	sendCfg := cfg.Sender
	sendCfg.Logger = logger
	sender := arq.NewSender(ch, receiver.Deliver, sendCfg)

	return &Session{cfg: cfg, ch: ch, sender: sender, receiver: receiver, metrics: cfg.Metrics}, nil
}

// Run fragments and transfers message over the Session's channel, driving
// the sender until every fragment is acknowledged or abandoned. It
// verifies the receiver's reassembled bytes equal message before reporting
// success.
func (s *Session) Run(ctx context.Context, message []byte) (Report, error) {
	stats, err := s.sender.Send(ctx, message)
	report := Report{
		Stats:         stats,
		ReceiverStats: s.receiver.Stats(),
		ChannelStats:  s.ch.Stats(),
		Elapsed:       stats.Duration,
		AbandonedSeq:  -1,
	}

	if err != nil {
		if arqErr, ok := err.(*arq.Error); ok {
			report.AbandonedSeq = arqErr.Seq
		}
		report.Success = false
		if s.metrics != nil {
			s.metrics.Observe(report)
		}
		return report, err
	}

	numFrames := len(frame.Fragment(message))
	report.Success = s.receiver.Complete(numFrames) && bytes.Equal(s.receiver.Reassemble(), message)
	if s.metrics != nil {
		s.metrics.Observe(report)
	}
	return report, nil
}

// Close releases the Session's underlying channel, if it implements
// io.Closer (channel.Serial does; channel.Simulated does not).
func (s *Session) Close() error {
	type closer interface{ Close() error }
	if c, ok := s.ch.(closer); ok {
		return c.Close()
	}
	return nil
}
