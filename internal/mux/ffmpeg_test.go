package mux

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hindsight/internal/frame"
)

// stubFFmpeg reroutes ffmpeg invocations to the test binary's helper
// process. It returns the captured arguments and the path where the helper
// preserves the elementary stream (the real temp dir is scrubbed before
// assertions can run).
func stubFFmpeg(t *testing.T, mode string) (*[]string, string) {
	t.Helper()
	esCopy := filepath.Join(t.TempDir(), "es.bin")
	var capturedArgs []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		capturedArgs = append([]string(nil), args...)
		helperArgs := append([]string{"-test.run=TestHelperProcess", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], helperArgs...)
		cmd.Env = append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			"FFMPEG_HELPER_MODE="+mode,
			"FFMPEG_HELPER_ES_COPY="+esCopy,
		)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &capturedArgs, esCopy
}

func sampleFrames(n int) []*frame.Frame {
	frames := make([]*frame.Frame, 0, n)
	base := time.Unix(500, 0)
	for i := 0; i < n; i++ {
		frames = append(frames, frame.New(base.Add(time.Duration(i)*time.Second/30), []byte{0, 0, 0, 1, byte(i)}, i == 0))
	}
	return frames
}

func TestNewFFmpegCLIWithBinary(t *testing.T) {
	cli := NewFFmpegCLI(WithBinary("/opt/ffmpeg"))
	if cli.binary != "/opt/ffmpeg" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestMuxRejectsEmptyInput(t *testing.T) {
	cli := NewFFmpegCLI()
	if _, err := cli.Mux(context.Background(), nil, Geometry{FPS: 30}, false); !errors.Is(err, ErrNoFrames) {
		t.Fatalf("expected ErrNoFrames, got %v", err)
	}
}

func TestMuxRejectsNonPositiveFPS(t *testing.T) {
	cli := NewFFmpegCLI()
	if _, err := cli.Mux(context.Background(), sampleFrames(3), Geometry{FPS: 0}, false); err == nil {
		t.Fatal("expected error for zero fps")
	}
}

func TestMuxStreamCopiesIntoClipsDir(t *testing.T) {
	args, _ := stubFFmpeg(t, "success")
	clipsDir := filepath.Join(t.TempDir(), "clips")
	cli := NewFFmpegCLI(WithClipsDir(clipsDir))

	result, err := cli.Mux(context.Background(), sampleFrames(4), Geometry{FPS: 30, Width: 1920, Height: 1080}, false)
	if err != nil {
		t.Fatalf("Mux failed: %v", err)
	}
	if result.Frames != 4 {
		t.Fatalf("expected 4 frames, got %d", result.Frames)
	}
	if filepath.Dir(result.Path) != clipsDir {
		t.Fatalf("expected artifact under %s, got %s", clipsDir, result.Path)
	}
	if _, err := os.Stat(result.Path); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}

	captured := *args
	if idx := findArg(captured, "-c:v"); idx == -1 || captured[idx+1] != "copy" {
		t.Fatalf("expected stream copy without re-encoding, got args %v", captured)
	}
	if idx := findArg(captured, "-r"); idx == -1 || captured[idx+1] != "30" {
		t.Fatalf("expected frame rate flag, got args %v", captured)
	}
	if idx := findArg(captured, "-f"); idx == -1 || captured[idx+1] != "h264" {
		t.Fatalf("expected raw h264 input format, got args %v", captured)
	}
}

func TestMuxReturnBytesSkipsClipsDir(t *testing.T) {
	_, _ = stubFFmpeg(t, "success")
	clipsDir := filepath.Join(t.TempDir(), "clips")
	cli := NewFFmpegCLI(WithClipsDir(clipsDir))

	result, err := cli.Mux(context.Background(), sampleFrames(2), Geometry{FPS: 30}, true)
	if err != nil {
		t.Fatalf("Mux failed: %v", err)
	}
	if len(result.Bytes) == 0 {
		t.Fatal("expected artifact bytes")
	}
	if result.Path != "" {
		t.Fatalf("expected no durable path, got %q", result.Path)
	}
	if _, err := os.Stat(clipsDir); !os.IsNotExist(err) {
		t.Fatalf("clips dir should be untouched in bytes mode, stat err: %v", err)
	}
}

func TestMuxElementaryStreamConcatenatesPayloads(t *testing.T) {
	_, esCopy := stubFFmpeg(t, "success")
	cli := NewFFmpegCLI(WithClipsDir(t.TempDir()))

	frames := sampleFrames(3)
	if _, err := cli.Mux(context.Background(), frames, Geometry{FPS: 30}, true); err != nil {
		t.Fatalf("Mux failed: %v", err)
	}

	// The helper copies the elementary stream aside before the temp dir is
	// removed.
	data, err := os.ReadFile(esCopy)
	if err != nil {
		t.Fatalf("read elementary stream copy: %v", err)
	}
	var want bytes.Buffer
	for _, f := range frames {
		want.Write(f.Payload)
	}
	if !bytes.Equal(data, want.Bytes()) {
		t.Fatalf("elementary stream mismatch: got %d bytes, want %d", len(data), want.Len())
	}
}

func TestMuxCountsOnlyWrittenFrames(t *testing.T) {
	_, esCopy := stubFFmpeg(t, "success")
	cli := NewFFmpegCLI(WithClipsDir(t.TempDir()))

	frames := sampleFrames(3)
	frames = append(frames, nil, frame.New(time.Unix(501, 0), nil, false))

	result, err := cli.Mux(context.Background(), frames, Geometry{FPS: 30}, true)
	if err != nil {
		t.Fatalf("Mux failed: %v", err)
	}
	if result.Frames != 3 {
		t.Fatalf("expected 3 muxed frames, got %d", result.Frames)
	}

	data, err := os.ReadFile(esCopy)
	if err != nil {
		t.Fatalf("read elementary stream copy: %v", err)
	}
	var want bytes.Buffer
	for _, f := range frames[:3] {
		want.Write(f.Payload)
	}
	if !bytes.Equal(data, want.Bytes()) {
		t.Fatalf("elementary stream mismatch: got %d bytes, want %d", len(data), want.Len())
	}
}

func TestMuxRejectsAllEmptyPayloads(t *testing.T) {
	_, _ = stubFFmpeg(t, "success")
	cli := NewFFmpegCLI(WithClipsDir(t.TempDir()))

	frames := []*frame.Frame{nil, frame.New(time.Unix(500, 0), nil, true)}
	if _, err := cli.Mux(context.Background(), frames, Geometry{FPS: 30}, false); !errors.Is(err, ErrNoFrames) {
		t.Fatalf("expected ErrNoFrames, got %v", err)
	}
}

func TestMuxCleansTempDirOnFailure(t *testing.T) {
	args, _ := stubFFmpeg(t, "failure")
	cli := NewFFmpegCLI(WithClipsDir(t.TempDir()))

	_, err := cli.Mux(context.Background(), sampleFrames(2), Geometry{FPS: 30}, false)
	if err == nil {
		t.Fatal("expected mux failure")
	}
	if !strings.Contains(err.Error(), "ffmpeg mux failed") {
		t.Fatalf("unexpected error: %v", err)
	}

	captured := *args
	idx := findArg(captured, "-i")
	if idx == -1 {
		t.Fatalf("expected input arg, got %v", captured)
	}
	tempDir := filepath.Dir(captured[idx+1])
	if _, statErr := os.Stat(tempDir); !os.IsNotExist(statErr) {
		t.Fatalf("temp dir %s should be removed after failure", tempDir)
	}
}

func TestProbeMissingBinary(t *testing.T) {
	cli := NewFFmpegCLI(WithBinary(filepath.Join(t.TempDir(), "missing-ffmpeg")))
	if err := cli.Probe(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "success":
		// Find -i <input> and the trailing output path, preserve the input
		// for assertions, and fabricate the container.
		var input, output string
		for i, arg := range args {
			if arg == "-i" && i+1 < len(args) {
				input = args[i+1]
			}
		}
		if len(args) > 0 {
			output = args[len(args)-1]
		}
		if input != "" {
			if data, err := os.ReadFile(input); err == nil {
				_ = os.WriteFile(os.Getenv("FFMPEG_HELPER_ES_COPY"), data, 0o644)
			}
		}
		if output != "" {
			_ = os.WriteFile(output, []byte("fake-mp4"), 0o644)
		}
		os.Exit(0)
	case "failure":
		os.Stderr.WriteString("mux failed\n")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}

func findArg(args []string, target string) int {
	for i, arg := range args {
		if arg == target {
			return i
		}
	}
	return -1
}
