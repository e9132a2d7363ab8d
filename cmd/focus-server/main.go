// Command focus-server serves the focus HTTP API and, when a serial port is
// given, scores a live gaze stream from an attached tracker.
//
//	focus-server -listen :8080 -db focus.db -serial /dev/ttyUSB0
//	focus-server -db focus.db migrate status
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/focus.report/internal/api"
	"github.com/banshee-data/focus.report/internal/config"
	"github.com/banshee-data/focus.report/internal/db"
	"github.com/banshee-data/focus.report/internal/ingest"
	"github.com/banshee-data/focus.report/internal/session"
	"github.com/banshee-data/focus.report/internal/version"
)

type options struct {
	listen        string
	dbPath        string
	configPath    string
	serialPath    string
	port          ingest.PortOptions
	calibrationID string
	showVersion   bool
	args          []string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("focus-server", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.listen, "listen", ":8080", "Listen address")
	fs.StringVar(&o.dbPath, "db", "focus.db", "SQLite database path")
	fs.StringVar(&o.configPath, "config", "", "Tuning config JSON (defaults built in)")
	fs.StringVar(&o.serialPath, "serial", "", "Serial port of a live gaze tracker (disabled when empty)")
	fs.IntVar(&o.port.BaudRate, "baud", ingest.DefaultBaudRate, "Serial baud rate")
	fs.IntVar(&o.port.DataBits, "data-bits", 8, "Serial data bits")
	fs.IntVar(&o.port.StopBits, "stop-bits", 1, "Serial stop bits")
	fs.StringVar(&o.port.Parity, "parity", "N", "Serial parity (N, E, O)")
	fs.StringVar(&o.calibrationID, "calibration-id", "", "Stored calibration applied to the live session, or 'latest'")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.listen == "" {
		return o, errors.New("listen address is required")
	}
	o.args = fs.Args()
	if len(o.args) > 0 && o.args[0] != "migrate" {
		return o, fmt.Errorf("unknown command %q", o.args[0])
	}
	if o.serialPath != "" {
		var err error
		if o.port, err = o.port.Normalize(); err != nil {
			return o, err
		}
	}
	return o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Printf("focus-server: %v", err)
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Println(version.String("focus-server"))
		return
	}
	if len(opts.args) > 0 {
		if err := db.RunMigrateCommand(opts.args[1:], opts.dbPath, os.Stdout); err != nil {
			if !errors.Is(err, db.ErrUsage) {
				log.Printf("migrate: %v", err)
			}
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := serve(ctx, opts); err != nil {
		log.Fatalf("focus-server: %v", err)
	}
	log.Printf("Graceful shutdown complete")
}

func serve(ctx context.Context, opts options) error {
	tuning := config.DefaultTuningConfig()
	if opts.configPath != "" {
		var err error
		if tuning, err = config.LoadTuningConfig(opts.configPath); err != nil {
			return err
		}
	}

	store, err := db.NewDB(opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	mux := http.NewServeMux()
	if err := store.AttachAdminRoutes(mux); err != nil {
		return err
	}

	var wg sync.WaitGroup
	var serverOpts []api.Option
	if opts.serialPath != "" {
		src, err := ingest.OpenSerial(opts.serialPath, opts.port)
		if err != nil {
			return err
		}
		defer src.Close()
		log.Printf("reading gaze samples from %s at %d baud", opts.serialPath, opts.port.BaudRate)

		live := api.NewLive(src)
		live.AttachAdminRoutes(mux)
		serverOpts = append(serverOpts, api.WithLive(live))

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := runLive(ctx, src, store, live, session.ConfigFromTuning(tuning), opts.calibrationID); err != nil {
				log.Printf("live session: %v", err)
			}
			log.Print("live session routine terminated")
		}()
	}

	apiMux := api.NewServer(store, tuning, serverOpts...).ServeMux()
	mux.Handle("/api/", apiMux)

	server := &http.Server{
		Addr:              opts.listen,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", opts.listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	wg.Wait()
	return nil
}

// liveStore is the part of the store a live session needs.
type liveStore interface {
	SaveSession(ctx context.Context, sum session.Summary) error
	api.CalibrationStore
}

// runLive scores samples from src until the stream ends or ctx is done, then
// saves the summary. A session that saw no samples is not saved.
func runLive(ctx context.Context, src *ingest.Source, store liveStore, live *api.Live, cfg session.Config, calibrationID string) error {
	var opts []session.Option
	if calibrationID != "" {
		res, err := api.FindCalibration(ctx, store, calibrationID)
		if err != nil {
			return fmt.Errorf("calibration %s: %w", calibrationID, err)
		}
		log.Printf("applying calibration %s (%s, accuracy %.1f)", res.ID, res.Transform.Model, res.Transform.Accuracy)
		opts = append(opts, session.WithMapper(res.Transform), session.WithCalibrationID(res.ID))
	}

	p := session.NewPipeline(cfg, opts...)
	live.Begin(p.ID())
	in, errc := src.Stream(ctx, 256)
	// Run only fails with ctx.Err(); shutdown is checked below.
	sum, _ := session.Run(ctx, p, in, live.Publish)
	// Unblock Monitor in case Run returned first.
	src.Close()
	readErr := <-errc
	live.End(sum)

	if sum.SampleCount > 0 {
		// ctx may already be cancelled; the final save still has to land.
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.SaveSession(saveCtx, sum); err != nil {
			return fmt.Errorf("save session %s: %w", sum.ID, err)
		}
		log.Printf("saved live session %s: %d samples, focus score %d", sum.ID, sum.SampleCount, sum.Metrics.FocusScore)
	}
	// Closing the port at shutdown surfaces as a read error.
	if readErr != nil && ctx.Err() == nil {
		return readErr
	}
	return nil
}
