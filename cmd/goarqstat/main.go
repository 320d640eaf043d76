// Command goarqstat runs one or more goarq transfers over a simulated
// channel and prints their summed sender/receiver counts and average
// duration, useful for quickly eyeballing
// retransmission behavior at a given loss/error rate.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/drunlade/goarq/channel"
	"github.com/drunlade/goarq/session"
)

var (
	size     = pflag.Int("size", 1000, "size in bytes of the synthetic message to send")
	pLoss    = pflag.Float64("p-loss", 0.1, "channel loss probability")
	pError   = pflag.Float64("p-error", 0.05, "channel corruption probability")
	maxDelay = pflag.Duration("max-delay", 50*time.Millisecond, "maximum per-transmit channel delay")
	seed     = pflag.Int64("seed", 1, "random seed for the channel and synthetic message")
	runs     = pflag.Int("runs", 1, "number of runs (counts are summed, duration is averaged)")
)

func main() {
	pflag.Parse()

	rnd := rand.New(rand.NewSource(*seed))
	message := make([]byte, *size)
	rnd.Read(message)

	var totalSent, totalRetransmitted, totalRejected, succeeded int
	var totalElapsed time.Duration

	for i := 0; i < *runs; i++ {
		cfg := session.DefaultConfig()
		cfg.Simulated = channel.SimulatedConfig{
			PLoss:    *pLoss,
			PError:   *pError,
			MaxDelay: *maxDelay,
			Rand:     rnd,
		}

		s, err := session.New(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "goarqstat: %v\n", err)
			os.Exit(1)
		}

		report, err := s.Run(context.Background(), message)
		if err != nil {
			fmt.Fprintf(os.Stderr, "goarqstat: run %d: %v\n", i, err)
			continue
		}

		totalSent += report.Stats.FramesSent
		totalRetransmitted += report.Stats.FramesRetransmitted
		totalRejected += report.ReceiverStats.Rejected
		totalElapsed += report.Elapsed
		if report.Success {
			succeeded++
		}
	}

	fmt.Printf("runs=%d succeeded=%d\n", *runs, succeeded)
	fmt.Printf("frames sent=%d retransmitted=%d rejected=%d\n", totalSent, totalRetransmitted, totalRejected)
	if *runs > 0 {
		fmt.Printf("avg duration=%v\n", totalElapsed/time.Duration(*runs))
	}
}
