// Command goarqd runs one Go-Back-N transfer of a message (read from stdin
// or a file) over a simulated or serial channel, and reports the outcome.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/drunlade/goarq/arq"
	"github.com/drunlade/goarq/bitstuff"
	"github.com/drunlade/goarq/channel"
	"github.com/drunlade/goarq/internal/logging"
	"github.com/drunlade/goarq/session"
)

var (
	configPath  = pflag.StringP("config", "c", "", "YAML session config file")
	inputPath   = pflag.StringP("input", "i", "", "file to send (default: read stdin)")
	windowSize  = pflag.Int("window", 0, "override window size (0 = use config default)")
	timeout     = pflag.Duration("timeout", 0, "override per-frame timeout (0 = use config default)")
	maxAttempts = pflag.Int("max-attempts", 0, "override max transmission attempts per frame (0 = use config default)")
	pLoss       = pflag.Float64("p-loss", -1, "override channel loss probability (-1 = use config default)")
	pError      = pflag.Float64("p-error", -1, "override channel corruption probability (-1 = use config default)")
	serialPort  = pflag.String("serial", "", "send over this serial port instead of the simulated channel")
	metricsAddr = pflag.String("metrics-addr", "", "address to serve Prometheus metrics on, e.g. :9090")
	hdlcDebug   = pflag.Bool("hdlc-debug", false, "show the HDLC bit-stuffed form of the first 8 input bytes and exit")
	verbose     = pflag.BoolP("verbose", "v", false, "enable debug logging")
)

func main() {
	pflag.Parse()

	var log logging.Logger = logging.Noop{}
	if *verbose {
		log = logging.Default("goarqd")
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "goarqd: %v\n", err)
		os.Exit(1)
	}
	applyFlagOverrides(&cfg)
	cfg.Logger = log

	message, err := readInput()
	if err != nil {
		fmt.Fprintf(os.Stderr, "goarqd: reading input: %v\n", err)
		os.Exit(1)
	}

	if *hdlcDebug {
		showHDLCDebug(message)
		return
	}

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		cfg.Metrics = session.NewMetrics(reg)
		go serveMetrics(*metricsAddr, reg)
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := session.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "goarqd: building session: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	report, err := s.Run(ctx, message)
	printReport(report)
	if err != nil {
		if arq.IsExhausted(err) {
			fmt.Fprintf(os.Stderr, "goarqd: abandoned frame %d after max attempts\n", report.AbandonedSeq)
		} else {
			fmt.Fprintf(os.Stderr, "goarqd: %v\n", err)
		}
		os.Exit(1)
	}
	if !report.Success {
		fmt.Fprintln(os.Stderr, "goarqd: transfer did not reproduce the input")
		os.Exit(1)
	}
}

func loadConfig() (session.Config, error) {
	if *configPath != "" {
		return session.LoadConfig(*configPath)
	}
	return session.DefaultConfig(), nil
}

func applyFlagOverrides(cfg *session.Config) {
	if *windowSize > 0 {
		cfg.Sender.WindowSize = *windowSize
	}
	if *timeout > 0 {
		cfg.Sender.Timeout = *timeout
	}
	if *maxAttempts > 0 {
		cfg.Sender.MaxAttempts = *maxAttempts
	}
	if *pLoss >= 0 {
		cfg.Simulated.PLoss = *pLoss
	}
	if *pError >= 0 {
		cfg.Simulated.PError = *pError
	}
	if *serialPort != "" {
		cfg.UseSerial = true
		cfg.Serial = channel.DefaultSerialConfig(*serialPort)
	}
}

func readInput() ([]byte, error) {
	if *inputPath != "" {
		return os.ReadFile(*inputPath)
	}
	return io.ReadAll(os.Stdin)
}

func printReport(r session.Report) {
	fmt.Fprintf(os.Stderr, "frames sent=%d retransmitted=%d acks=%d rejected=%d duration=%v success=%v\n",
		r.Stats.FramesSent, r.Stats.FramesRetransmitted, r.Stats.AcksReceived,
		r.ReceiverStats.Rejected, r.Elapsed, r.Success)
}

func showHDLCDebug(message []byte) {
	if len(message) == 0 {
		fmt.Fprintln(os.Stderr, "goarqd: --hdlc-debug needs a non-empty input")
		os.Exit(1)
	}
	raw := message
	if len(raw) > 8 {
		raw = raw[:8]
	}
	bitString := bitstuff.UnpackBytes(raw)
	stuffed := bitstuff.Stuff(bitString)
	framed := bitstuff.Frame(stuffed)
	fmt.Printf("raw bits:     %s\n", bitString)
	fmt.Printf("stuffed:      %s\n", stuffed)
	fmt.Printf("framed:       %s\n", framed)
	extracted, err := bitstuff.Extract(framed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract failed: %v\n", err)
		return
	}
	fmt.Printf("destuffed:    %s\n", bitstuff.Destuff(extracted))
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	_ = srv.ListenAndServe()
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}
