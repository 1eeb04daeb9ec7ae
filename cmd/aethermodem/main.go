// Command aethermodem is a line-based chat over the acoustic link: every line read
// from stdin is sent to the destination address and every text received is printed.
package main

import (
	"Aetherlink/cmd/aethermodem/config"
	"Aetherlink/internel/callbacks"
	"Aetherlink/internel/utils"
	"Aetherlink/pkg/capture"
	"Aetherlink/pkg/packet"
	"Aetherlink/pkg/radio"
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "Path to the yaml config.")
	deviceKind := pflag.StringP("device", "d", "", "Audio device: portaudio, asio or loopback.")
	address := pflag.IntP("address", "a", -1, "Address of this radio.")
	destination := pflag.IntP("to", "t", -1, "Destination address, 255 broadcasts.")
	demodulator := pflag.String("demod", "", "Demodulator: threshold or spectral.")
	metricsAddr := pflag.String("metrics-addr", "", "Serve prometheus metrics on this address.")
	pcapPath := pflag.String("pcap", "", "Write every frame to this pcap file.")
	recordPath := pflag.String("record", "", "Write captured float32 samples to this file on exit.")
	decodePath := pflag.String("decode", "", "Decode a recording made with --record and exit.")
	logLevel := pflag.String("log-level", "", "Log level.")
	pflag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			logrus.WithError(err).Fatal("failed to load config")
		}
	}
	if *deviceKind != "" {
		cfg.Device.Kind = *deviceKind
	}
	if a, ok, err := addressFlag("address", *address); err != nil {
		logrus.WithError(err).Fatal("invalid flag")
	} else if ok {
		cfg.DataLinkLayer.Address = a
	}
	if a, ok, err := addressFlag("to", *destination); err != nil {
		logrus.WithError(err).Fatal("invalid flag")
	} else if ok {
		cfg.DataLinkLayer.Destination = a
	}
	if *demodulator != "" {
		cfg.PhysicalLayer.Demodulator.Kind = *demodulator
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	log, err := config.CreateLogger(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("invalid log level")
	}

	if *decodePath != "" {
		if err := decode(cfg, *decodePath, log); err != nil {
			log.WithError(err).Fatal("decode failed")
		}
		return
	}

	if err := run(cfg, *pcapPath, *recordPath, log); err != nil {
		log.WithError(err).Fatal("aethermodem stopped")
	}
}

// addressFlag checks an address flag, where -1 means it was not given.
func addressFlag(name string, v int) (uint8, bool, error) {
	switch {
	case v == -1:
		return 0, false, nil
	case v < 0 || v > 255:
		return 0, false, fmt.Errorf("--%s %d is not an address in 0..255", name, v)
	default:
		return uint8(v), true, nil
	}
}

func decode(cfg *config.Config, path string, log *logrus.Logger) error {
	samples, err := utils.ReadBinary[float32](path)
	if err != nil {
		return err
	}
	rcfg := config.RadioConfig(cfg)
	rcfg.Logger = log
	packets, err := radio.Decode(rcfg, samples)
	if err != nil {
		return err
	}
	for _, p := range packets {
		fmt.Println(p)
	}
	log.WithField("frames", len(packets)).Info("decoded recording")
	return nil
}

func run(cfg *config.Config, pcapPath, recordPath string, log *logrus.Logger) error {
	dev, err := config.CreateDevice(cfg)
	if err != nil {
		return err
	}

	var opts []config.RadioOption
	if pcapPath != "" {
		file, err := os.Create(pcapPath)
		if err != nil {
			return err
		}
		defer file.Close()
		tap, err := capture.NewWriter(file)
		if err != nil {
			return err
		}
		opts = append(opts, config.WithTap(tap))
	}

	var recorder *callbacks.Recorder
	if recordPath != "" {
		// ten minutes at most
		recorder = callbacks.NewRecorder(cfg.Device.Channels, int(600*cfg.Device.SampleRate))
		opts = append(opts, config.WithHook(recorder.Update))
	}

	r, err := config.CreateRadio(cfg, dev, log, opts...)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(r.Registry(), promhttp.HandlerOpts{}))
		server := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server failed")
			}
		}()
		defer server.Close()
	}

	if err := r.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Printf("[aethermodem] address %d, sending to %d, Ctrl+C to quit\n", r.Address(), cfg.DataLinkLayer.Destination)
	poll := time.NewTicker(20 * time.Millisecond)
	defer poll.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				// stdin is done, give the queue time to drain
				waitDrained(ctx, r, cfg)
				break loop
			}
			if err := r.Transmit(line, cfg.DataLinkLayer.Destination); err != nil {
				log.WithError(err).Warn("transmit failed")
			}
		case <-poll.C:
			for {
				text, ok := r.Receive()
				if !ok {
					break
				}
				fmt.Println("<", text)
			}
		}
	}

	err = r.Close()
	if recorder != nil {
		if werr := utils.WriteBinary(recordPath, recorder.Track()); werr != nil {
			log.WithError(werr).Error("failed to write recording")
		} else {
			log.WithField("path", recordPath).Info("recording written")
		}
	}
	return err
}

// waitDrained blocks until no packet is queued and the one being played had time
// to finish.
func waitDrained(ctx context.Context, r *radio.Radio, cfg *config.Config) {
	symbol := time.Duration(float64(time.Second) * float64(cfg.Device.FramesPerBuffer) / cfg.Device.SampleRate)
	if cfg.PhysicalLayer.TickInterval > 0 {
		symbol = cfg.PhysicalLayer.TickInterval
	}
	frame := time.Duration(cfg.PhysicalLayer.Preamble.Length+8*packet.MaxFrameSize) * symbol

	for r.Pending() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(symbol):
		}
	}
	select {
	case <-ctx.Done():
	case <-time.After(frame):
	}
}
