// Package channel defines the transport collaborator goarq's sender and
// receiver talk through, plus two implementations: a simulated
// lossy/error-prone/delayed channel for testing and demos, and a serial
// channel for running goarq over a real link.
package channel

import "context"

// Channel is the sole external collaborator the Go-Back-N state machine
// depends on. It accepts a serialized frame and either returns the bytes
// that arrived at the other end (possibly bit-flipped), or reports loss.
type Channel interface {
	// Transmit sends frame and returns what the far end received. ok is
	// false when the frame was lost in transit; err reports a genuine
	// transport failure (only possible for a real, non-simulated channel).
	Transmit(ctx context.Context, frame []byte) (received []byte, ok bool, err error)

	// Stats returns a snapshot of the channel's transmit counters.
	Stats() Stats
}

// Stats holds transmit-level counters maintained by a Channel
// implementation.
type Stats struct {
	Transmitted int
	Lost        int
	Corrupted   int
}
