package mux

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"hindsight/internal/frame"
)

var commandContext = exec.CommandContext

// Option configures the ffmpeg CLI muxer.
type Option func(*FFmpegCLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(m *FFmpegCLI) {
		if binary != "" {
			m.binary = binary
		}
	}
}

// WithClipsDir sets the durable directory artifacts are moved into when the
// caller asks for a path result.
func WithClipsDir(dir string) Option {
	return func(m *FFmpegCLI) {
		m.clipsDir = dir
	}
}

// FFmpegCLI muxes H.264 access units into an MP4 by shelling out to ffmpeg.
// The encoded bitstream is copied, not re-encoded.
type FFmpegCLI struct {
	binary   string
	clipsDir string
}

// NewFFmpegCLI constructs a CLI muxer using defaults.
func NewFFmpegCLI(opts ...Option) *FFmpegCLI {
	m := &FFmpegCLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Probe verifies the ffmpeg binary is present and runnable. A failed probe
// maps to the encoding-unavailable error kind upstream.
func (m *FFmpegCLI) Probe(ctx context.Context) error {
	if _, err := exec.LookPath(m.binary); err != nil {
		return fmt.Errorf("%w: %s not found on PATH", ErrUnavailable, m.binary)
	}
	cmd := commandContext(ctx, m.binary, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s -version: %v", ErrUnavailable, m.binary, err)
	}
	return nil
}

// Mux writes the frames as an Annex B elementary stream in a scoped temp
// directory, wraps them into an MP4, and either moves the artifact into the
// clips directory or reads it back as bytes. The temp directory is removed
// on every exit path.
func (m *FFmpegCLI) Mux(ctx context.Context, frames []*frame.Frame, geo Geometry, returnBytes bool) (Result, error) {
	if len(frames) == 0 {
		return Result{}, ErrNoFrames
	}
	if geo.FPS <= 0 {
		return Result{}, fmt.Errorf("mux: fps must be positive, got %d", geo.FPS)
	}

	tempDir, err := os.MkdirTemp("", "hindsight-mux-")
	if err != nil {
		return Result{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	name := uuid.NewString()
	esPath := filepath.Join(tempDir, name+".h264")
	mp4Path := filepath.Join(tempDir, name+".mp4")

	written, err := writeElementaryStream(esPath, frames)
	if err != nil {
		return Result{}, err
	}
	if written == 0 {
		return Result{}, ErrNoFrames
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "h264",
		"-r", strconv.Itoa(geo.FPS),
		"-i", esPath,
		"-c:v", "copy",
		mp4Path,
	}
	cmd := commandContext(ctx, m.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return Result{}, fmt.Errorf("ffmpeg mux failed: %v: %s", err, detail)
		}
		return Result{}, fmt.Errorf("ffmpeg mux failed: %w", err)
	}

	if returnBytes {
		data, err := os.ReadFile(mp4Path)
		if err != nil {
			return Result{}, fmt.Errorf("read muxed artifact: %w", err)
		}
		return Result{Bytes: data, Frames: written}, nil
	}

	destDir := m.clipsDir
	if destDir == "" {
		destDir = "."
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create clips dir: %w", err)
	}
	destPath := filepath.Join(destDir, name+".mp4")
	if err := moveFile(mp4Path, destPath); err != nil {
		return Result{}, err
	}
	return Result{Path: destPath, Frames: written}, nil
}

// writeElementaryStream concatenates frame payloads into the Annex B file and
// reports how many frames it actually wrote. Nil and empty-payload frames are
// skipped, so the count can be lower than len(frames).
func writeElementaryStream(path string, frames []*frame.Frame) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create elementary stream: %w", err)
	}
	written := 0
	for _, f := range frames {
		if f == nil || len(f.Payload) == 0 {
			continue
		}
		if _, err := file.Write(f.Payload); err != nil {
			file.Close()
			return written, fmt.Errorf("write elementary stream: %w", err)
		}
		written++
	}
	if err := file.Close(); err != nil {
		return written, fmt.Errorf("close elementary stream: %w", err)
	}
	return written, nil
}

// moveFile renames when possible and falls back to copy+remove for
// cross-device destinations (temp and clips dirs often sit on different
// filesystems).
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return os.Remove(src)
}

var _ Muxer = (*FFmpegCLI)(nil)
