package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"hindsight/internal/api"
	"hindsight/internal/capture"
	"hindsight/internal/catalog"
	"hindsight/internal/config"
	"hindsight/internal/fanout"
	"hindsight/internal/frame"
	"hindsight/internal/history"
	"hindsight/internal/ingest"
	"hindsight/internal/logging"
	"hindsight/internal/mux"
	"hindsight/internal/notifications"
	"hindsight/internal/preflight"
	"hindsight/internal/source"
	"hindsight/internal/textutil"
)

// Daemon coordinates the frame pipeline and enforces single-instance execution.
// It owns the ring buffer, fan-out registry, ingest loop, capture service,
// clip catalog, and the HTTP API surface.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *catalog.Store
	ring     *history.Ring
	registry *fanout.Registry
	ingestor *ingest.Ingestor
	capture  *capture.Service
	muxer    *mux.FFmpegCLI
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	apiSrv  *apiServer
	hotplug *hotplugMonitor

	running atomic.Bool
	mu      sync.Mutex
	src     source.Source
	ctx     context.Context
	cancel  context.CancelFunc
	pumpWG  sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	CatalogDBPath string
	LockFilePath  string
	SourceMode    string
	SourceActive  bool
	Ingest        ingest.Stats
	Buffer        BufferStats
	Cameras       []string
	Dependencies  []preflight.Result
}

// BufferStats summarizes the ring buffer state.
type BufferStats struct {
	Capacity  int
	Buffered  int
	Unbounded bool
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, catalog store, and logger")
	}

	ring := history.NewRing(cfg.Buffer.CapacityFrames)
	registry := fanout.NewRegistry()
	muxer := mux.NewFFmpegCLI(
		mux.WithBinary(cfg.FFmpegBinary()),
		mux.WithClipsDir(cfg.Paths.ClipsDir),
	)
	svc := capture.NewService(ring, registry, muxer, capture.Options{
		WaitTimeout:     time.Duration(cfg.Capture.WaitTimeoutSeconds) * time.Second,
		GraceMultiplier: cfg.Capture.GraceMultiplier,
		AllowUnbounded:  cfg.Buffer.AllowUnbounded,
		QueueDepth:      cfg.Buffer.SubscriberQueueDepth,
	}, logger)

	lockPath := filepath.Join(cfg.Paths.LogDir, "hindsightd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		ring:     ring,
		registry: registry,
		ingestor: ingest.New(ring, registry, logger),
		capture:  svc,
		muxer:    muxer,
		notifier: notifications.NewService(cfg),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.apiSrv = newAPIServer(cfg, d, logger)
	d.hotplug = newHotplugMonitor(cfg, logger)
	return d, nil
}

// Start acquires the daemon lock, attaches the configured frame source, and
// brings up the API server and hotplug monitor.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another hindsight daemon instance is already running")
	}

	d.mu.Lock()
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.mu.Unlock()

	if err := d.muxer.Probe(ctx); err != nil {
		// Clips cannot be produced without ffmpeg, but ingest still fills
		// history; triggers fail with the encoding-unavailable kind.
		d.logger.Warn("muxing backend unavailable", logging.Error(err))
	}

	if err := d.startSource(); err != nil {
		d.teardown()
		return err
	}
	if d.apiSrv != nil {
		if err := d.apiSrv.start(d.ctx); err != nil {
			d.teardown()
			return err
		}
	}
	if d.hotplug != nil {
		if err := d.hotplug.Start(d.ctx); err != nil {
			d.logger.Warn("hotplug monitor unavailable", logging.Error(err))
		}
	}

	d.running.Store(true)
	d.logger.Info("hindsight daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("buffer_capacity", d.ring.Capacity()),
		logging.Bool("unbounded", d.ring.Unbounded()),
	)
	return nil
}

func (d *Daemon) startSource() error {
	if d.cfg.Source.Mode != "synthetic" {
		return nil
	}
	src := source.NewSynthetic(d.ctx, source.SyntheticOptions{
		FPS:              d.cfg.Source.FPS,
		PayloadSize:      d.cfg.Source.PayloadBytes,
		KeyframeInterval: d.cfg.Source.KeyframeInterval,
	})
	d.mu.Lock()
	d.src = src
	d.mu.Unlock()

	d.pumpWG.Add(1)
	go func() {
		defer d.pumpWG.Done()
		if err := d.ingestor.Run(d.ctx, src); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("ingest loop exited", logging.Error(err))
			if notifyErr := d.notifier.NotifyError(context.Background(), err, "ingest"); notifyErr != nil {
				d.logger.Warn("error notification failed", logging.Error(notifyErr))
			}
		}
	}()
	return nil
}

func (d *Daemon) teardown() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	src := d.src
	d.src = nil
	d.ctx = nil
	d.mu.Unlock()

	if src != nil {
		_ = src.Close()
	}
	d.pumpWG.Wait()
	_ = d.lock.Unlock()
}

// Stop stops the pipeline and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.hotplug != nil {
		d.hotplug.Stop()
	}
	if d.apiSrv != nil {
		d.apiSrv.stop()
	}
	d.registry.Close()
	d.teardown()
	d.running.Store(false)
	d.logger.Info("hindsight daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon pipeline is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status returns aggregate daemon runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	sourceActive := d.src != nil
	d.mu.Unlock()

	status := Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		CatalogDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
		SourceMode:    d.cfg.Source.Mode,
		SourceActive:  sourceActive,
		Ingest:        d.ingestor.Stats(),
		Buffer: BufferStats{
			Capacity:  d.ring.Capacity(),
			Buffered:  d.ring.Len(),
			Unbounded: d.ring.Unbounded(),
		},
		Dependencies: preflight.RunAll(ctx, d.cfg),
	}
	if d.hotplug != nil {
		status.Cameras = d.hotplug.Devices()
	}
	return status
}

// ListClips returns catalog entries newest-first.
func (d *Daemon) ListClips(ctx context.Context, limit int) ([]*catalog.Clip, error) {
	return d.store.List(ctx, limit)
}

// Ingest feeds a single frame into the pipeline. Exposed for sources that
// push frames from outside the daemon's own pump loop.
func (d *Daemon) Ingest(f *frame.Frame) {
	d.ingestor.Ingest(f)
}

// TriggerCapture runs a clip extraction end to end: catalog bookkeeping,
// windowed collection, muxing, and notification. It blocks until the clip
// completes or fails.
func (d *Daemon) TriggerCapture(ctx context.Context, req api.CaptureRequest) (*catalog.Clip, error) {
	if !d.running.Load() {
		return nil, errors.New("daemon not running")
	}

	fps := req.FPS
	if fps <= 0 {
		fps = d.cfg.Capture.DefaultFPS
	}
	width := req.FrameWidth
	if width <= 0 {
		width = d.cfg.Capture.FrameWidth
	}
	height := req.FrameHeight
	if height <= 0 {
		height = d.cfg.Capture.FrameHeight
	}
	title := textutil.DeriveTitle(req.Title, time.Now())

	clip, err := d.store.NewClip(ctx, title, req.BeforeSeconds, req.AfterSeconds, fps, width, height)
	if err != nil {
		return nil, fmt.Errorf("record clip: %w", err)
	}
	_ = d.store.SetStatus(ctx, clip.ID, catalog.StatusCapturing)

	result, err := d.capture.Capture(ctx, capture.Request{
		BeforeSeconds: req.BeforeSeconds,
		AfterSeconds:  req.AfterSeconds,
		Title:         title,
		FPS:           fps,
		FrameWidth:    width,
		FrameHeight:   height,
		OnWindowClosed: func(int) {
			_ = d.store.SetStatus(ctx, clip.ID, catalog.StatusMuxing)
		},
	})
	if err != nil {
		_ = d.store.Fail(ctx, clip.ID, err.Error())
		if notifyErr := d.notifier.NotifyClipFailed(ctx, title, err); notifyErr != nil {
			d.logger.Warn("clip failure notification failed", logging.Error(notifyErr))
		}
		failed, getErr := d.store.GetByID(ctx, clip.ID)
		if getErr == nil {
			return failed, err
		}
		return clip, err
	}

	if updateErr := d.store.Complete(ctx, clip.ID, result.Path, artifactSize(result), result.Frames); updateErr != nil {
		d.logger.Error("catalog update failed", logging.Error(updateErr), logging.String("clip_id", clip.ID))
	}
	if notifyErr := d.notifier.NotifyClipReady(ctx, title, result.Path, artifactSize(result)); notifyErr != nil {
		d.logger.Warn("clip ready notification failed", logging.Error(notifyErr))
	}

	d.logger.Info("clip completed",
		logging.String("clip_id", clip.ID),
		logging.String("title", title),
		logging.Int("frames", result.Frames),
		logging.String("path", result.Path),
	)
	return d.store.GetByID(ctx, clip.ID)
}

func artifactSize(result mux.Result) int64 {
	if len(result.Bytes) > 0 {
		return int64(len(result.Bytes))
	}
	if result.Path == "" {
		return 0
	}
	info, err := os.Stat(result.Path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.notifier.TestNotification(ctx)
}
