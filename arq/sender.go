package arq

import (
	"context"
	"time"

	"github.com/drunlade/goarq/channel"
	"github.com/drunlade/goarq/frame"
	"github.com/drunlade/goarq/internal/logging"
)

// ReceiveFunc hands a serialized data frame (already delivered across the
// forward channel) to whatever is playing receiver, and returns the bytes
// the sender gets back for the resulting ACK. ok is false when the ACK
// itself was lost on its way back. A Receiver's Deliver method has this
// exact shape.
type ReceiveFunc func(ctx context.Context, frame []byte) (ack []byte, ok bool, err error)

// SenderConfig configures a Sender's window, timers, and retry policy.
type SenderConfig struct {
	WindowSize    int
	Timeout       time.Duration
	MaxAttempts   int
	MaxPayload    int
	YieldInterval time.Duration
	Clock         Clock
	Logger        logging.Logger
}

// DefaultSenderConfig returns the conventional goarq defaults: a window of
// 5, a 250ms per-frame timeout, and 5 attempts before abandoning a frame.
func DefaultSenderConfig() SenderConfig {
	return SenderConfig{
		WindowSize:    5,
		Timeout:       250 * time.Millisecond,
		MaxAttempts:   5,
		MaxPayload:    frame.MaxPayload,
		YieldInterval: time.Millisecond,
		Clock:         RealClock{},
		Logger:        logging.Noop{},
	}
}

// Sender implements the Go-Back-N sender side: fragmentation, a sliding
// window, per-base timeouts, cumulative ACK handling, and
// retransmit-on-timeout.
type Sender struct {
	dataChannel channel.Channel
	deliver     ReceiveFunc
	cfg         SenderConfig
}

// NewSender creates a Sender that transmits data frames over dataChannel
// and hands delivered frames to deliver (typically a Receiver's Deliver
// method) to obtain the resulting ACK.
func NewSender(dataChannel channel.Channel, deliver ReceiveFunc, cfg SenderConfig) *Sender {
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop{}
	}
	return &Sender{dataChannel: dataChannel, deliver: deliver, cfg: cfg}
}

// Send fragments message with frame.Fragment into frames of at most
// frame.MaxPayload bytes (cfg.MaxPayload is not consulted) and drives them
// across dataChannel with Go-Back-N until every frame is acknowledged, a
// frame is abandoned after cfg.MaxAttempts transmissions without an ACK (a
// terminal failure — base never advances past an abandoned frame), or ctx
// is cancelled.
func (s *Sender) Send(ctx context.Context, message []byte) (SenderStats, error) {
	frames := frame.Fragment(message)
	n := len(frames)

	var stats SenderStats
	start := s.cfg.Clock.Now()
	finish := func() SenderStats {
		stats.Duration = s.cfg.Clock.Now().Sub(start)
		return stats
	}

	if n == 0 {
		return finish(), nil
	}

	attempts := make([]int, n)
	sendTime := make([]time.Time, n)
	ackSet := make(map[int]struct{})
	b := 0

	// advance moves b past every sequence number already present in
	// ackSet, then drops ackSet entries that have fallen outside the
	// window anchored at the new b.
	advance := func() {
		for b < n {
			if _, acked := ackSet[b]; !acked {
				break
			}
			delete(ackSet, b)
			b++
		}
		for k := range ackSet {
			if k < b || k >= b+s.cfg.WindowSize {
				delete(ackSet, k)
			}
		}
	}

	transmit := func(i int, retransmit bool) error {
		if attempts[i] >= s.cfg.MaxAttempts {
			return NewSeqError(ErrExhausted, "max retransmission attempts reached", i)
		}

		raw := frame.Serialize(uint8(i), frame.DATA, frames[i])
		attempts[i]++
		sendTime[i] = s.cfg.Clock.Now()
		if retransmit {
			stats.FramesRetransmitted++
		} else {
			stats.FramesSent++
		}
		s.cfg.Logger.Debug("sender: transmit seq=%d attempt=%d retransmit=%v", i, attempts[i], retransmit)

		received, ok, err := s.dataChannel.Transmit(ctx, raw)
		if err != nil {
			return err
		}
		if !ok {
			s.cfg.Logger.Debug("sender: frame seq=%d lost in transit", i)
			return nil
		}

		ackBytes, ackOK, err := s.deliver(ctx, received)
		if err != nil {
			return err
		}
		if !ackOK {
			return nil
		}

		ackFrame, crcValid, derr := frame.Deserialize(ackBytes)
		if derr != nil || !crcValid || ackFrame.Kind != frame.ACK {
			return nil
		}
		stats.AcksReceived++
		k := int(ackFrame.Seq)
		for j := b; j <= k && j < n; j++ {
			ackSet[j] = struct{}{}
			sendTime[j] = time.Time{}
		}
		return nil
	}

	for b < n {
		if err := ctx.Err(); err != nil {
			return finish(), NewError(ErrCancelled, err.Error())
		}

		end := b + s.cfg.WindowSize
		if end > n {
			end = n
		}

		timedOut := !sendTime[b].IsZero() && s.cfg.Clock.Now().Sub(sendTime[b]) > s.cfg.Timeout

		if !timedOut {
			for i := b; i < end; i++ {
				if !sendTime[i].IsZero() {
					continue // already in flight, awaiting ack or timeout
				}
				if err := transmit(i, false); err != nil {
					return finish(), err
				}
				advance()
			}
		}

		beforeAdvance := b
		advance()

		if timedOut {
			end = b + s.cfg.WindowSize
			if end > n {
				end = n
			}
			for i := b; i < end; i++ {
				if err := transmit(i, true); err != nil {
					return finish(), err
				}
			}
			advance()
		} else if b == beforeAdvance && s.cfg.YieldInterval > 0 {
			time.Sleep(s.cfg.YieldInterval)
		}
	}

	return finish(), nil
}
