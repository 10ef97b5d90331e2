package ingest_test

import (
	"context"
	"testing"
	"time"

	"hindsight/internal/fanout"
	"hindsight/internal/history"
	"hindsight/internal/ingest"
	"hindsight/internal/logging"
	"hindsight/internal/source"
	"hindsight/internal/testsupport"
)

func TestIngestAssignsSequenceAndStores(t *testing.T) {
	ring := history.NewRing(16)
	registry := fanout.NewRegistry()
	ing := ingest.New(ring, registry, logging.NewNop())

	sub := registry.Subscribe(8)
	defer sub.Close()

	frames := testsupport.FrameSeries(t, time.Unix(100, 0), 3, 30)
	for _, f := range frames {
		f.Sequence = 0
		ing.Ingest(f)
	}

	if got := ring.Len(); got != 3 {
		t.Fatalf("expected 3 buffered frames, got %d", got)
	}
	for i := 0; i < 3; i++ {
		f := <-sub.Frames()
		if f.Sequence != uint64(i+1) {
			t.Fatalf("frame %d: expected sequence %d, got %d", i, i+1, f.Sequence)
		}
	}

	stats := ing.Stats()
	if stats.Ingested != 3 {
		t.Fatalf("expected 3 ingested, got %d", stats.Ingested)
	}
	if want := uint64(3 * 5); stats.Bytes != want {
		t.Fatalf("expected %d ingested bytes, got %d", want, stats.Bytes)
	}
	if stats.Buffered != 3 {
		t.Fatalf("expected 3 buffered, got %d", stats.Buffered)
	}
	if stats.Subscribers != 1 {
		t.Fatalf("expected 1 subscriber, got %d", stats.Subscribers)
	}
	want := time.Unix(100, 0).Add(2 * time.Second / 30)
	if !stats.LastTimestamp.Equal(want) {
		t.Fatalf("expected last timestamp %v, got %v", want, stats.LastTimestamp)
	}
}

func TestRunDrainsSourceUntilCancelled(t *testing.T) {
	ring := history.NewRing(256)
	registry := fanout.NewRegistry()
	ing := ingest.New(ring, registry, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	src := source.NewSynthetic(ctx, source.SyntheticOptions{FPS: 100, PayloadSize: 8})

	done := make(chan error, 1)
	go func() {
		done <- ing.Run(ctx, src)
	}()

	deadline := time.After(2 * time.Second)
	for ing.Stats().Ingested < 5 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for frames to flow")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	_ = src.Close()
}

func TestRunStopsWhenSourceCloses(t *testing.T) {
	ring := history.NewRing(256)
	registry := fanout.NewRegistry()
	ing := ingest.New(ring, registry, logging.NewNop())

	ctx := context.Background()
	src := source.NewSynthetic(ctx, source.SyntheticOptions{FPS: 100, PayloadSize: 8})

	done := make(chan error, 1)
	go func() {
		done <- ing.Run(ctx, src)
	}()

	time.Sleep(50 * time.Millisecond)
	_ = src.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean exit on source close, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ingest loop did not stop after source close")
	}
}
