package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gr-butler/vemat/calibration"
	"github.com/gr-butler/vemat/env"
	"github.com/gr-butler/vemat/led"
	"github.com/gr-butler/vemat/node"
	"github.com/gr-butler/vemat/rtc"
	"github.com/gr-butler/vemat/sensors"
	"github.com/gr-butler/vemat/telemetry"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	logger "github.com/sirupsen/logrus"
)

const version = "VEMAT-Node-1.0.0"

func main() {
	args, err := env.ParseArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		logger.Fatalf("Bad arguments [%v]", err)
	}
	if *args.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}
	logger.Infof("Starting VEMAT node [%v]", version)

	if err := run(args); err != nil {
		logger.Fatalf("Node stopped [%v]", err)
	}
	logger.Info("Exiting")
}

func run(args env.Args) error {
	cfg, err := env.Load(*args.ConfigPath)
	if err != nil {
		return err
	}
	if *args.Profile != "" {
		cfg.Profile = *args.Profile
	}

	table, err := loadTable(cfg.CalibrationFile)
	if err != nil {
		return err
	}
	profile, err := table.Profile(cfg.Profile)
	if err != nil {
		logger.Errorf("Known profiles %v", table.Names())
		return err
	}
	logger.Infof("Calibration profile [%v] %v", profile.Name, profile.Description)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Initialize sensors...")
	bank, adc, err := sensors.OpenADC(cfg.Hardware, profile)
	if err != nil {
		logger.Errorf("Failed to initialise sensors!! [%v]", err)
		return err
	}
	defer adc.Close()

	status := led.NewLED("status", cfg.Hardware.LEDPin, env.LEDFlashDuration)
	defer status.Off()

	clock := clockwork.NewRealClock()
	opts := node.Options{
		Identity: telemetry.Registration{
			NodeID:    cfg.Node.ID,
			Latitude:  cfg.Node.Latitude,
			Longitude: cfg.Node.Longitude,
		},
		Profile:            profile,
		Reader:             bank,
		Poster:             telemetry.NewClient(cfg.Endpoints.Registration, cfg.Endpoints.Telemetry, cfg.Endpoints.Timeout, "VEMAT/"+version),
		Timestamps:         rtc.NewSystemClock(clock, cfg.Clock.MinValid, cfg.Location()),
		Indicator:          status,
		Clock:              clock,
		ReportPeriod:       cfg.Timing.ReportPeriod,
		RegistrationRetry:  cfg.Timing.RegistrationRetry,
		StrictRegistration: cfg.Endpoints.StrictStatus,
		HistoryLength:      env.HistoryLength,
	}
	if !*args.Test {
		opts.Sinks = openSinks(ctx, cfg)
		defer closeSinks(opts.Sinks)
	}

	n, err := node.New(opts)
	if err != nil {
		return err
	}
	serveStatus(ctx, cfg.Status, n)

	if *args.Test {
		logger.Info("TEST MODE")
		err = n.Probe(ctx, cfg.Timing.ProbePeriod)
	} else {
		err = n.Run(ctx)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func loadTable(path string) (*calibration.Table, error) {
	if path == "" {
		return calibration.DefaultTable()
	}
	logger.Infof("Loading calibration table [%v]", path)
	return calibration.LoadTable(path)
}

func serveStatus(ctx context.Context, cfg env.StatusConfig, n snapshotter) {
	if cfg.Addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", statusHandler(n))
	if cfg.Metrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logger.Infof("Starting webservice on [%v]", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Status server stopped [%v]", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()
}
