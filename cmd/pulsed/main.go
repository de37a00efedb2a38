// Command pulsed is a capture daemon: it reads interleaved int16 AM/FM
// sample pairs from stdin (or a file), runs them through the detector,
// analyzer, and line-code dispatch, and optionally renders raw/VCD dumps
// and serves Prometheus metrics. It fills the role the source's direwolf
// binary does for its own pipeline: the long-running process that wires
// the library together for real captures.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	rfpulse "github.com/n5dvx/rfpulse/src"
)

var (
	packetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rfpulse_packets_total",
		Help: "Pulse packets emitted by the detector, by modulation.",
	}, []string{"modulation"})
	noClueTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfpulse_no_clue_total",
		Help: "Packets the analyzer could not classify.",
	})
	ookLowGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rfpulse_ook_low_level",
		Help: "Current OOK low (noise floor) level estimate.",
	})
	ookHighGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rfpulse_ook_high_level",
		Help: "Current OOK high (carrier) level estimate.",
	})
)

func main() {
	configPath := pflag.StringP("config", "c", "", "YAML config file. Required.")
	input := pflag.StringP("input", "i", "-", "Input file of interleaved int16 AM/FM samples, or - for stdin.")
	chunkSamples := pflag.IntP("chunk-samples", "n", 16384, "Samples per Process() call.")
	help := pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pulsed detects, classifies, and dispatches pulse packets from a sample stream.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s -c config.yaml [OPTION]...\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help || *configPath == "" {
		pflag.Usage()
		os.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "pulsed"})

	cfg, err := rfpulse.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("loading config", "err", err)
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	r := io.Reader(os.Stdin)
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			logger.Fatal("opening input", "err", err)
		}
		defer f.Close()
		r = f
	}

	if err := run(cfg, bufio.NewReader(r), *chunkSamples, logger); err != nil {
		logger.Fatal("run failed", "err", err)
	}
}

func run(cfg *rfpulse.Config, r *bufio.Reader, chunkSamples int, logger *log.Logger) error {
	det := rfpulse.NewDetectorContext(cfg.SampleRate)
	analyzer := rfpulse.NewAnalyzer()
	decoders := rfpulse.NewLineDecoders()

	am := make([]int16, chunkSamples)
	fm := make([]int16, chunkSamples)
	var amBuf, fskBuf rfpulse.PulseBuffer
	var offset int64

	for {
		n, err := readSamples(r, am, fm)
		if n == 0 {
			if err == io.EOF {
				return nil
			}
			return err
		}

		// A single chunk can hold more than one completed packet (or a
		// packet followed by leftover samples still needing a detector
		// call): Process only returns early on a packet boundary, so
		// drive it to ResultNeedMoreData before moving on to the next
		// chunk or the rest of the current one would silently be dropped.
		for {
			result := det.Process(am[:n], fm[:n], cfg.LevelLimit, offset, &amBuf, &fskBuf)
			switch result {
			case rfpulse.ResultOOKReady:
				dispatch(&amBuf, analyzer, decoders, cfg, logger)
				continue
			case rfpulse.ResultFSKReady:
				dispatch(&fskBuf, analyzer, decoders, cfg, logger)
				continue
			}
			break
		}
		ookLowGauge.Set(float64(det.OOK.Low))
		ookHighGauge.Set(float64(det.OOK.High))
		offset += int64(n)

		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func dispatch(buf *rfpulse.PulseBuffer, analyzer *rfpulse.Analyzer, decoders map[string]rfpulse.LineDecoder, cfg *rfpulse.Config, logger *log.Logger) {
	desc := analyzer.Analyze(buf)
	packetsTotal.WithLabelValues(desc.Modulation).Inc()
	if desc.Modulation == "No clue" {
		noClueTotal.Inc()
	}
	fmt.Print(analyzer.Report(buf, cfg.SampleRate, desc, cfg.Station))
	renderDumps(buf, cfg, logger)
	rfpulse.Dispatch(decoders, buf, desc, logger)
}

// renderDumps writes the raw and/or VCD capture artifacts for buf when
// their respective config paths are set; each is a no-op otherwise.
func renderDumps(buf *rfpulse.PulseBuffer, cfg *rfpulse.Config, logger *log.Logger) {
	now := time.Now()
	if cfg.RawDumpPath != "" {
		writeRawDump(buf, cfg.RawDumpPath, now, logger)
	}
	if cfg.VCDPath != "" {
		writeVCDDump(buf, cfg.VCDPath, cfg.SampleRate, now, logger)
	}
}

func writeRawDump(buf *rfpulse.PulseBuffer, pattern string, t time.Time, logger *log.Logger) {
	name, err := rfpulse.DumpFilename(pattern, t)
	if err != nil {
		logger.Error("raw dump filename", "err", err, "pattern", pattern)
		return
	}
	total := 0
	for i := 0; i < buf.Num; i++ {
		total += buf.Pulse[i] + buf.Gap[i]
	}
	dst := make([]byte, total)
	n := rfpulse.DumpRaw(dst, buf)
	if err := os.WriteFile(name, dst[:n], 0o644); err != nil {
		logger.Error("writing raw dump", "err", err, "path", name)
	}
}

func writeVCDDump(buf *rfpulse.PulseBuffer, pattern string, fs int, t time.Time, logger *log.Logger) {
	name, err := rfpulse.DumpFilename(pattern, t)
	if err != nil {
		logger.Error("vcd dump filename", "err", err, "pattern", pattern)
		return
	}
	f, err := os.Create(name)
	if err != nil {
		logger.Error("creating vcd dump", "err", err, "path", name)
		return
	}
	defer f.Close()
	if err := rfpulse.WriteVCD(f, buf, fs); err != nil {
		logger.Error("writing vcd dump", "err", err, "path", name)
	}
}

// readSamples fills am/fm from r, returning the number of complete
// (am,fm) pairs read. A short final pair at EOF is discarded.
func readSamples(r *bufio.Reader, am, fm []int16) (int, error) {
	for i := 0; i < len(am); i++ {
		if err := binary.Read(r, binary.LittleEndian, &am[i]); err != nil {
			return i, err
		}
		if err := binary.Read(r, binary.LittleEndian, &fm[i]); err != nil {
			return i, err
		}
	}
	return len(am), nil
}
