package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LdDl/perimeter-go/api"
	"github.com/LdDl/perimeter-go/config"
	"github.com/LdDl/perimeter-go/events"
	"github.com/LdDl/perimeter-go/internal/fps"
	"github.com/LdDl/perimeter-go/internal/log"
	"github.com/LdDl/perimeter-go/mot"
	"github.com/LdDl/perimeter-go/storage"
)

var (
	configPath   = flag.String("config", "", "Path to JSON configuration (defaults are used when empty)")
	framesPath   = flag.String("frames", "-", "Centroid frames file, one frame per line ('-' for stdin)")
	startAPI     = flag.Bool("api", true, "Run embedded events API")
	sinkKind     = flag.String("sink", "http", "Event sink: http, store or none")
	frameRate    = flag.Float64("rate", 0, "Replay frames at this rate per second (0 means as fast as possible)")
	motionEvents = flag.Bool("motion-events", false, "Emit motion_detected events when motion starts")
	statusEvery  = flag.Int("status-every", 100, "Log status every N frames (0 disables)")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg.ApplyEnv()
	}
	log.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	detector, err := cfg.NewDetector()
	if err != nil {
		return err
	}

	var store *storage.Store
	if *startAPI || *sinkKind == "store" {
		store, err = storage.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	if *startAPI {
		server := api.NewServer(store, cfg.APIListen)
		go func() {
			if err := server.Start(); err != nil {
				log.Error("events API stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warn("events API shutdown", "error", err)
			}
		}()
	}

	var sink events.Sink
	switch *sinkKind {
	case "http":
		sink = events.NewHTTPSink(cfg.APIURL, cfg.SinkTimeout())
	case "store":
		sink = store
	case "none":
		sink = events.SinkFunc(func(ctx context.Context, event events.Event) error { return nil })
	default:
		return fmt.Errorf("unknown sink %q", *sinkKind)
	}
	dispatcher := events.NewDispatcher(sink, cfg.DispatchQueueSize, cfg.SinkTimeout())
	defer func() {
		dispatcher.Close()
		stats := dispatcher.Stats()
		log.Info("event dispatcher stopped", "delivered", stats.Delivered, "failed", stats.Failed, "dropped", stats.Dropped)
	}()

	input := io.Reader(os.Stdin)
	if *framesPath != "-" {
		f, err := os.Open(*framesPath)
		if err != nil {
			return fmt.Errorf("cannot open frames source: %w", err)
		}
		defer f.Close()
		input = f
	}

	line := detector.Line()
	log.Info("perimeter intrusion detection started",
		"line", fmt.Sprintf("(%.0f,%.0f)-(%.0f,%.0f)", line.A.X, line.A.Y, line.B.X, line.B.Y),
		"cooldown", cfg.Cooldown(), "max_disappeared", cfg.MaxDisappeared, "max_tracking_distance", cfg.MaxTrackingDistance)

	opts := loopOptions{
		frameRate:    *frameRate,
		motionEvents: *motionEvents,
		statusEvery:  *statusEvery,
	}
	return processFrames(ctx, newFrameReader(input), detector, dispatcher, opts)
}

type loopOptions struct {
	frameRate    float64
	motionEvents bool
	statusEvery  int
}

// processFrames runs the frame loop until input is exhausted or ctx is cancelled.
// Unparsable or rejected frames are logged and skipped, a read failure stops the loop.
// Events are dispatched without waiting for delivery.
func processFrames(ctx context.Context, frames *frameReader, detector *mot.IntrusionDetector, dispatcher *events.Dispatcher, opts loopOptions) error {
	var ticker *time.Ticker
	if opts.frameRate > 0 {
		ticker = time.NewTicker(time.Duration(float64(time.Second) / opts.frameRate))
		defer ticker.Stop()
	}
	counter := fps.NewCounter()
	frameNo := 0
	motionBefore := false
	for {
		if ticker != nil {
			select {
			case <-ctx.Done():
				log.Info("stopping system")
				return nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			log.Info("stopping system")
			return nil
		}

		centroids, err := frames.Next()
		if errors.Is(err, io.EOF) {
			log.Info("end of frames")
			return nil
		}
		if errors.Is(err, errBadFrame) {
			log.Warn("skipping frame", "error", err)
			continue
		}
		if err != nil {
			return err
		}
		frameNo++

		crossing, err := detector.Update(centroids)
		if err != nil {
			log.Warn("frame rejected", "frame", frameNo, "error", err)
			continue
		}

		motion := len(centroids) > 0
		if opts.motionEvents && motion && !motionBefore {
			dispatcher.Dispatch(events.NewMotionEvent(time.Now(), len(centroids)))
		}
		motionBefore = motion

		if crossing.Crossed {
			log.Warn("intrusion detected", "object_id", crossing.ObjectID, "frame", frameNo)
			dispatcher.Dispatch(events.NewIntrusionEvent(crossing.At))
		}

		counter.Update()
		if opts.statusEvery > 0 && frameNo%opts.statusEvery == 0 {
			log.Info("status", "frame", frameNo, "tracking", detector.Tracker().Len(), "motion", motion, "fps", counter.FPS())
		}
	}
}
