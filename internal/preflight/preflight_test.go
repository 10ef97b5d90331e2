package preflight_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"hindsight/internal/preflight"
	"hindsight/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Clips directory", dir)
	if !result.Passed {
		t.Fatalf("expected writable temp dir to pass: %s", result.Detail)
	}

	missing := preflight.CheckDirectoryAccess("Clips directory", filepath.Join(dir, "nope"))
	if missing.Passed {
		t.Fatal("expected missing directory to fail")
	}
	if !strings.Contains(missing.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", missing.Detail)
	}

	file := filepath.Join(dir, "afile")
	testsupport.WriteFile(t, file, 1)
	notDir := preflight.CheckDirectoryAccess("Clips directory", file)
	if notDir.Passed {
		t.Fatal("expected plain file to fail the directory check")
	}
}

func TestCheckFFmpegMissingBinary(t *testing.T) {
	result := preflight.CheckFFmpeg(context.Background(), "definitely-not-ffmpeg-binary")
	if result.Passed {
		t.Fatal("expected missing binary to fail")
	}
	if !strings.Contains(result.Detail, "not found") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestRunAllWithStubbedFFmpeg(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffmpeg"))

	results := preflight.RunAll(context.Background(), cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(results))
	}
	if !preflight.AllPassed(results) {
		for _, result := range results {
			t.Logf("%s: passed=%v detail=%s", result.Name, result.Passed, result.Detail)
		}
		t.Fatal("expected all checks to pass with stubbed ffmpeg")
	}
}
