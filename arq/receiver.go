package arq

import (
	"context"

	"github.com/drunlade/goarq/channel"
	"github.com/drunlade/goarq/frame"
	"github.com/drunlade/goarq/internal/logging"
)

// ReceiverConfig configures a Receiver.
type ReceiverConfig struct {
	Logger logging.Logger
}

// DefaultReceiverConfig returns the Receiver configuration used when none
// is supplied.
func DefaultReceiverConfig() ReceiverConfig {
	return ReceiverConfig{Logger: logging.Noop{}}
}

// Receiver implements the Go-Back-N receiver side: strict in-order frame
// acceptance, cumulative (duplicate-capable) acknowledgment, and message
// reassembly. A Receiver's ackChannel carries its outgoing ACKs back to
// the sender, so an ACK is itself subject to the channel's loss model.
type Receiver struct {
	ackChannel channel.Channel
	logger     logging.Logger

	lastAccepted int
	delivered    [][]byte
	stats        ReceiverStats
}

// NewReceiver creates a Receiver that sends its ACKs over ackChannel.
func NewReceiver(ackChannel channel.Channel, cfg ReceiverConfig) *Receiver {
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop{}
	}
	return &Receiver{
		ackChannel:   ackChannel,
		logger:       cfg.Logger,
		lastAccepted: -1,
	}
}

// Deliver processes one data frame that has already crossed the forward
// channel (raw is never empty: forward-channel loss is handled by the
// caller before Deliver is invoked). It returns the bytes the sender
// receives back for the resulting ACK, and whether that ACK itself
// survived the return trip.
//
// Deliver never emits a NAK. A frame that fails to deserialize or fails
// its CRC is rejected with no ACK at all. A CRC-valid frame that arrives
// out of order is rejected and — if at least one frame has ever been
// accepted — answered with a duplicate ACK of lastAccepted, giving the
// sender a cumulative hint without a dedicated negative acknowledgment.
func (r *Receiver) Deliver(ctx context.Context, raw []byte) (ackBytes []byte, ok bool, err error) {
	f, crcValid, derr := frame.Deserialize(raw)
	if derr != nil || !crcValid {
		r.stats.Rejected++
		r.logger.Debug("receiver: rejected frame (deserialize err=%v crcValid=%v)", derr, crcValid)
		return nil, false, nil
	}

	seq := int(f.Seq)
	if seq == r.lastAccepted+1 {
		r.delivered = append(r.delivered, f.Payload)
		r.lastAccepted = seq
		r.stats.Accepted++
		r.logger.Debug("receiver: accepted seq=%d", seq)
		return r.sendAck(ctx, f.Seq)
	}

	r.stats.Rejected++
	r.logger.Debug("receiver: out-of-order/duplicate seq=%d (lastAccepted=%d)", seq, r.lastAccepted)
	if r.lastAccepted < 0 {
		return nil, false, nil
	}
	return r.sendAck(ctx, uint8(r.lastAccepted))
}

func (r *Receiver) sendAck(ctx context.Context, seq uint8) ([]byte, bool, error) {
	ackFrame := frame.Serialize(seq, frame.ACK, nil)
	received, ok, err := r.ackChannel.Transmit(ctx, ackFrame)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		r.logger.Debug("receiver: ACK for seq=%d lost in transit", seq)
		return nil, false, nil
	}
	return received, true, nil
}

// LastAccepted returns the highest sequence number delivered in order so
// far, or -1 if none has been delivered yet.
func (r *Receiver) LastAccepted() int { return r.lastAccepted }

// Stats returns a snapshot of the receiver's accept/reject counters.
func (r *Receiver) Stats() ReceiverStats { return r.stats }

// Reassemble concatenates delivered payloads in sequence order. It should
// only be called once the sender has indicated it sent exactly numFrames
// frames and the receiver has accepted all of them.
func (r *Receiver) Reassemble() []byte {
	var total int
	for _, p := range r.delivered {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range r.delivered {
		out = append(out, p...)
	}
	return out
}

// Complete reports whether the receiver has delivered exactly numFrames
// frames in order (0..numFrames-1), meaning Reassemble's output is final.
func (r *Receiver) Complete(numFrames int) bool {
	return len(r.delivered) == numFrames
}
