package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	"github.com/sdrmodem/omnipod-modem/internal/modem"
	"github.com/sdrmodem/omnipod-modem/internal/netcontrol"
	"github.com/sdrmodem/omnipod-modem/internal/sdrhost"
	"github.com/sdrmodem/omnipod-modem/internal/txindicator"
	"github.com/sdrmodem/omnipod-modem/internal/ttydisplay"
)

// logDisplay adapts modem.Display onto a charmbracelet/log logger, so
// decoded payloads and status lines both end up in the structured log
// as well as wherever the operator's own Display (ttydisplay, or
// stdout) sends them.
type logDisplay struct {
	inner modem.Display
	log   *log.Logger
}

func (d logDisplay) DisplayData(line string) {
	d.log.Debug("rx burst", "line", line)
	if d.inner != nil {
		d.inner.DisplayData(line)
	}
}

func (d logDisplay) DisplayStatus(line string) {
	d.log.Info("status", "line", line)
	if d.inner != nil {
		d.inner.DisplayStatus(line)
	}
}

func main() {
	var configFile = pflag.StringP("config-file", "c", "", "Path to a YAML config file.")
	var sampleRate = pflag.Float64P("sample-rate", "r", 0, "Override the configured sample rate (Hz).")
	var monitor = pflag.BoolP("monitor", "m", false, "Start with continuous RX decoding on.")
	var ttyPath = pflag.StringP("tty", "t", "", "Raw terminal device to mirror decoded output to (e.g. /dev/tty). Unset disables ttydisplay.")
	var gpioChip = pflag.StringP("gpio-chip", "g", "", "GPIO chip for the TX indicator LED (e.g. gpiochip0). Unset disables the indicator.")
	var gpioLine = pflag.IntP("gpio-line", "G", 0, "GPIO line offset for the TX indicator LED.")
	var logDir = pflag.StringP("log-dir", "l", "", "Directory for a log file named by the start date. Unset logs to stderr only.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - half-duplex SDR modem for the insulin-pump PDA link.\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(1)
	}

	cfg := modem.DefaultConfig()
	if *configFile != "" {
		loaded, err := modem.LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: loading config file: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *sampleRate != 0 {
		cfg.SampleRate = *sampleRate
	}
	if *monitor {
		cfg.MonitorOnStart = true
	}

	logOut := io.Writer(os.Stderr)
	if *logDir != "" {
		pattern, err := strftime.New(*logDir + "/omnipod-modem-%Y%m%d.log")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: bad log-dir pattern: %v\n", err)
			os.Exit(1)
		}
		logPath := pattern.FormatString(time.Now())
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: opening log file %s: %v\n", logPath, err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = io.MultiWriter(os.Stderr, f)
	}

	logger := log.NewWithOptions(logOut, log.Options{ReportTimestamp: true})
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	var display modem.Display = stdoutDisplay{}
	if *ttyPath != "" {
		adapter, err := ttydisplay.Open(*ttyPath)
		if err != nil {
			logger.Fatal("opening ttydisplay", "err", err)
		}
		defer adapter.Close()
		logger.Info("ttydisplay ready", "pty", adapter.PtsName())
		display = adapter
	}
	wrapped := logDisplay{inner: display, log: logger}

	params := modem.NewParams(cfg.SampleRate)
	ctrl := modem.NewControlSurface(wrapped)
	ctrl.SetMonitor(cfg.MonitorOnStart)
	if cfg.InitialSecret != 0 {
		ctrl.SetSecret(cfg.InitialSecret)
	}
	if cfg.InitialSeqno != 0 {
		ctrl.SetSeqno(cfg.InitialSeqno)
	}

	blk := modem.NewBlock(params, ctrl, wrapped)

	if *gpioChip != "" {
		ind, err := txindicator.Open(*gpioChip, *gpioLine)
		if err != nil {
			logger.Error("tx indicator unavailable, continuing without it", "err", err)
		} else {
			defer ind.Close()
			blk.SetStateObserver(ind.Observe())
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	netSrv, err := netcontrol.Listen(ctx, ctrl, cfg.ControlListenAddr)
	if err != nil {
		logger.Error("networked control surface unavailable", "err", err)
	} else {
		logger.Info("control surface listening", "addr", netSrv.Addr())
		go func() {
			if err := netSrv.Serve(); err != nil {
				logger.Debug("control surface stopped", "err", err)
			}
		}()
		defer netSrv.Close()
	}

	host, err := sdrhost.Open(blk, params.SampleRate, 4096)
	if err != nil {
		logger.Fatal("opening audio host", "err", err)
	}
	defer host.Close()
	if err := host.Start(); err != nil {
		logger.Fatal("starting audio stream", "err", err)
	}

	logger.Info("omnipod-modem running", "sample_rate", params.SampleRate, "sps", params.SPS)
	<-ctx.Done()
	logger.Info("shutting down")
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

// stdoutDisplay is the default Display when no ttydisplay is wired.
type stdoutDisplay struct{}

func (stdoutDisplay) DisplayData(line string)   { fmt.Println(line) }
func (stdoutDisplay) DisplayStatus(line string) { fmt.Println("* " + line) }
