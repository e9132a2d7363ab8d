// Command focus-replay scores a recorded gaze session and prints the result
// as JSON.
//
//	focus-replay -input session.csv -calibration cal.csv -db focus.db -plot out/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/banshee-data/focus.report/internal/api"
	"github.com/banshee-data/focus.report/internal/calibration"
	"github.com/banshee-data/focus.report/internal/config"
	"github.com/banshee-data/focus.report/internal/db"
	"github.com/banshee-data/focus.report/internal/gaze"
	"github.com/banshee-data/focus.report/internal/ingest"
	"github.com/banshee-data/focus.report/internal/report"
	"github.com/banshee-data/focus.report/internal/session"
	"github.com/banshee-data/focus.report/internal/version"
)

type options struct {
	configPath      string
	input           string
	calibrationPath string
	sessionID       string
	dbPath          string
	plotDir         string
	htmlPath        string
	uploadURL       string
	showVersion     bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("focus-replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "Tuning config JSON (defaults built in)")
	fs.StringVar(&o.input, "input", "-", "Recorded sample file, or - for stdin")
	fs.StringVar(&o.calibrationPath, "calibration", "", "Calibration file of target,x,y lines")
	fs.StringVar(&o.sessionID, "id", "", "Session ID (random when empty)")
	fs.StringVar(&o.dbPath, "db", "", "Persist the session to this SQLite database")
	fs.StringVar(&o.plotDir, "plot", "", "Write a gaze plot PNG into this directory")
	fs.StringVar(&o.htmlPath, "html", "", "Write an HTML report to this file")
	fs.StringVar(&o.uploadURL, "upload", "", "Also score the session on a focus-server at this URL")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

// output is what focus-replay prints.
type output struct {
	session.Summary
	Ingest      ingest.Stats        `json:"ingest"`
	Calibration *calibration.Result `json:"calibration,omitempty"`
	Plot        string              `json:"plot,omitempty"`
	HTML        string              `json:"html,omitempty"`
	RemoteID    string              `json:"remote_id,omitempty"`
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Printf("focus-replay: %v", err)
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Println(version.String("focus-replay"))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Fatalf("focus-replay: %v", err)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	tuning := config.DefaultTuningConfig()
	if opts.configPath != "" {
		var err error
		if tuning, err = config.LoadTuningConfig(opts.configPath); err != nil {
			return err
		}
	}

	var store *db.DB
	if opts.dbPath != "" {
		var err error
		if store, err = db.NewDB(opts.dbPath); err != nil {
			return err
		}
		defer store.Close()
	}

	var (
		out         output
		pipeOpts    []session.Option
		calSamples  []calibration.Sample
		calibConfig = calibration.ConfigFromTuning(tuning)
	)
	if opts.sessionID != "" {
		pipeOpts = append(pipeOpts, session.WithID(opts.sessionID))
	}
	if opts.calibrationPath != "" {
		res, samples, err := fitCalibrationFile(opts.calibrationPath, calibConfig)
		if err != nil {
			return err
		}
		log.Printf("calibration %s: %s model, %d targets, accuracy %.1f", res.ID, res.Transform.Model, res.Targets, res.Transform.Accuracy)
		if store != nil {
			if err := store.SaveCalibration(ctx, res); err != nil {
				return err
			}
		}
		out.Calibration = &res
		calSamples = samples
		pipeOpts = append(pipeOpts, session.WithMapper(res.Transform), session.WithCalibrationID(res.ID))
	}

	samples, stats, err := readRecording(ctx, opts.input)
	if err != nil {
		return err
	}
	log.Printf("read %d samples (%d malformed lines skipped)", stats.Samples, stats.Malformed)

	out.Summary = session.Replay(session.ConfigFromTuning(tuning), samples, pipeOpts...)
	out.Ingest = stats

	if store != nil {
		if err := store.SaveSession(ctx, out.Summary); err != nil {
			return err
		}
		log.Printf("saved session %s to %s", out.ID, opts.dbPath)
	}
	screen := calibConfig.Screen
	if opts.plotDir != "" {
		if out.Plot, err = report.SavePNG(opts.plotDir, out.Summary, screen); err != nil {
			return err
		}
	}
	if opts.htmlPath != "" {
		if err := writeHTML(opts.htmlPath, out.Summary, screen); err != nil {
			return err
		}
		out.HTML = opts.htmlPath
	}
	if opts.uploadURL != "" {
		if out.RemoteID, err = upload(ctx, api.NewClient(opts.uploadURL, nil), calibConfig, calSamples, samples); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func fitCalibrationFile(path string, cfg calibration.Config) (calibration.Result, []calibration.Sample, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return calibration.Result{}, nil, fmt.Errorf("open calibration: %w", err)
	}
	defer f.Close()

	samples, err := ingest.ReadCalibration(f)
	if err != nil {
		return calibration.Result{}, nil, err
	}
	engine := calibration.NewEngine(cfg)
	engine.Start()
	for _, s := range samples {
		engine.Add(s)
	}
	res := engine.Compute()
	if !res.Usable() {
		return res, nil, fmt.Errorf("calibration %s: %s", path, res.Status)
	}
	return res, samples, nil
}

func readRecording(ctx context.Context, path string) ([]gaze.Sample, ingest.Stats, error) {
	src, err := ingest.OpenFile(path)
	if err != nil {
		return nil, ingest.Stats{}, err
	}
	defer src.Close()

	in, errc := src.Stream(ctx, 256)
	var samples []gaze.Sample
	for s := range in {
		samples = append(samples, s)
	}
	return samples, src.Stats(), <-errc
}

func writeHTML(path string, sum session.Summary, screen calibration.ScreenSize) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	if err := report.WriteHTML(f, sum, screen); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// upload fits the calibration (if any) on the server and scores the samples
// there. The server assigns its own session ID.
func upload(ctx context.Context, c *api.Client, cfg calibration.Config, calSamples []calibration.Sample, samples []gaze.Sample) (string, error) {
	var calibrationID string
	if len(calSamples) > 0 {
		res, err := c.FitCalibration(ctx, api.CalibrationRequest{Layout: cfg.Layout, Mode: cfg.Mode, Samples: calSamples})
		if err != nil {
			return "", fmt.Errorf("upload calibration: %w", err)
		}
		calibrationID = res.ID
	}
	resp, err := c.ScoreSession(ctx, samples, calibrationID)
	if err != nil {
		return "", fmt.Errorf("upload session: %w", err)
	}
	log.Printf("uploaded session as %s (focus score %d)", resp.ID, resp.Metrics.FocusScore)
	return resp.ID, nil
}
