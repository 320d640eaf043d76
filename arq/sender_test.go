package arq_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/drunlade/goarq/arq"
	"github.com/drunlade/goarq/channel"
	"github.com/drunlade/goarq/frame"
)

// fakeClock advances by step on every call to Now, letting timeout logic
// be exercised deterministically without sleeping in real time.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// lossyOnce drops the first transmission of every distinct sequence number
// it sees and passes every subsequent one through unchanged.
type lossyOnce struct {
	seen  map[uint8]bool
	stats channel.Stats
}

func newLossyOnce() *lossyOnce { return &lossyOnce{seen: make(map[uint8]bool)} }

func (c *lossyOnce) Transmit(_ context.Context, f []byte) ([]byte, bool, error) {
	seq := f[0]
	if !c.seen[seq] {
		c.seen[seq] = true
		c.stats.Lost++
		return nil, false, nil
	}
	c.stats.Transmitted++
	return f, true, nil
}
func (c *lossyOnce) Stats() channel.Stats { return c.stats }

// alwaysLoses never delivers a frame, forcing every attempt to exhaust.
type alwaysLoses struct{ stats channel.Stats }

func (c *alwaysLoses) Transmit(_ context.Context, _ []byte) ([]byte, bool, error) {
	c.stats.Lost++
	return nil, false, nil
}
func (c *alwaysLoses) Stats() channel.Stats { return c.stats }

func newTestSenderConfig(clock arq.Clock) arq.SenderConfig {
	cfg := arq.DefaultSenderConfig()
	cfg.WindowSize = 2
	cfg.Timeout = 50 * time.Millisecond
	cfg.MaxAttempts = 4
	cfg.YieldInterval = 0
	cfg.Clock = clock
	return cfg
}

func TestSenderDeliversAllFramesOverLosslessChannel(t *testing.T) {
	dataChannel := &loopback{}
	ackChannel := &loopback{}
	receiver := arq.NewReceiver(ackChannel, arq.DefaultReceiverConfig())

	cfg := newTestSenderConfig(&fakeClock{step: time.Millisecond})
	sender := arq.NewSender(dataChannel, receiver.Deliver, cfg)

	message := []byte("the quick brown fox jumps over the lazy dog")
	stats, err := sender.Send(context.Background(), message)
	require.NoError(t, err)

	assert.Equal(t, message, receiver.Reassemble())
	assert.True(t, receiver.Complete(len(frame.Fragment(message))))
	assert.Equal(t, 0, stats.FramesRetransmitted)
	assert.Greater(t, stats.FramesSent, 0)
}

func TestSenderRetransmitsAfterFrameLoss(t *testing.T) {
	dataChannel := newLossyOnce()
	ackChannel := &loopback{}
	receiver := arq.NewReceiver(ackChannel, arq.DefaultReceiverConfig())

	cfg := newTestSenderConfig(&fakeClock{step: 10 * time.Millisecond})
	sender := arq.NewSender(dataChannel, receiver.Deliver, cfg)

	message := []byte("0123456789ABCDEF")
	stats, err := sender.Send(context.Background(), message)
	require.NoError(t, err)

	assert.Equal(t, message, receiver.Reassemble())
	assert.Greater(t, stats.FramesRetransmitted, 0)
}

func TestSenderAbandonsAfterMaxAttempts(t *testing.T) {
	cfg := newTestSenderConfig(&fakeClock{step: 10 * time.Millisecond})
	cfg.MaxAttempts = 3

	receiver := arq.NewReceiver(&loopback{}, arq.DefaultReceiverConfig())
	sender := arq.NewSender(&alwaysLoses{}, receiver.Deliver, cfg)

	_, err := sender.Send(context.Background(), []byte("never arrives"))
	require.Error(t, err)
	assert.True(t, arq.IsExhausted(err))
}

func TestSenderRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	receiver := arq.NewReceiver(&loopback{}, arq.DefaultReceiverConfig())
	cfg := newTestSenderConfig(&fakeClock{step: time.Millisecond})
	sender := arq.NewSender(&alwaysLoses{}, receiver.Deliver, cfg)

	_, err := sender.Send(ctx, []byte("data"))
	require.Error(t, err)
}

func TestSenderRoundTripsArbitraryMessages(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		message := rapid.SliceOfN(rapid.Byte(), 0, 300).Draw(rt, "message")

		dataChannel := &loopback{}
		ackChannel := &loopback{}
		receiver := arq.NewReceiver(ackChannel, arq.DefaultReceiverConfig())
		cfg := newTestSenderConfig(&fakeClock{step: time.Millisecond})
		sender := arq.NewSender(dataChannel, receiver.Deliver, cfg)

		_, err := sender.Send(context.Background(), message)
		if err != nil {
			rt.Fatalf("Send failed: %v", err)
		}
		if string(receiver.Reassemble()) != string(message) {
			rt.Fatalf("reassembled message does not match original")
		}
	})
}
