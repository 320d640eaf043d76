package arq

import "time"

// SenderStats reports what a Sender did over the course of a Send call.
type SenderStats struct {
	FramesSent          int
	FramesRetransmitted int
	AcksReceived        int
	Duration            time.Duration
}

// RetransmissionRate is FramesRetransmitted as a fraction of all frame
// transmissions (first sends plus retransmissions). It is zero when no
// frames were sent at all.
func (s SenderStats) RetransmissionRate() float64 {
	total := s.FramesSent + s.FramesRetransmitted
	if total == 0 {
		return 0
	}
	return float64(s.FramesRetransmitted) / float64(total)
}

// ReceiverStats reports what a Receiver did across its Deliver calls.
type ReceiverStats struct {
	Accepted int
	Rejected int
}
