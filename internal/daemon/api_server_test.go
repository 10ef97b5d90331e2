package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"hindsight/internal/api"
	"hindsight/internal/capture"
	"hindsight/internal/catalog"
	"hindsight/internal/logging"
)

type clipStoreStub struct {
	clips []*catalog.Clip
}

func (s *clipStoreStub) List(context.Context, int) ([]*catalog.Clip, error) {
	return s.clips, nil
}

func (s *clipStoreStub) GetByID(_ context.Context, id string) (*catalog.Clip, error) {
	for _, clip := range s.clips {
		if clip.ID == id {
			return clip, nil
		}
	}
	return nil, fmt.Errorf("clip %s: %w", id, catalog.ErrNotFound)
}

func newStubServer(clips ...*catalog.Clip) *apiServer {
	return &apiServer{
		clipSvc: api.NewClipService(&clipStoreStub{clips: clips}),
		logger:  logging.NewNop(),
	}
}

func TestAPIServerListClips(t *testing.T) {
	srv := newStubServer(&catalog.Clip{ID: "c1", Title: "Last Lap", Status: catalog.StatusCompleted})

	req := httptest.NewRequest(http.MethodGet, "/api/clips", nil)
	w := httptest.NewRecorder()
	srv.handleClips(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.ClipListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Clips) != 1 {
		t.Fatalf("expected 1 clip, got %d", len(resp.Clips))
	}
	if resp.Clips[0].Title != "Last Lap" {
		t.Fatalf("unexpected title: %q", resp.Clips[0].Title)
	}
}

func TestAPIServerGetClip(t *testing.T) {
	srv := newStubServer(&catalog.Clip{ID: "c1", Title: "Last Lap"})

	req := httptest.NewRequest(http.MethodGet, "/api/clips/c1", nil)
	w := httptest.NewRecorder()
	srv.handleClip(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.ClipResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Clip.ID != "c1" {
		t.Fatalf("unexpected clip: %+v", resp.Clip)
	}
}

func TestAPIServerGetClipNotFound(t *testing.T) {
	srv := newStubServer()

	req := httptest.NewRequest(http.MethodGet, "/api/clips/missing", nil)
	w := httptest.NewRecorder()
	srv.handleClip(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAPIServerMethodNotAllowed(t *testing.T) {
	srv := newStubServer()

	req := httptest.NewRequest(http.MethodDelete, "/api/clips", nil)
	w := httptest.NewRecorder()
	srv.handleClips(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestCaptureStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{capture.ErrInvalidParameter, http.StatusBadRequest},
		{capture.ErrInsufficientHistory, http.StatusConflict},
		{capture.ErrTimeout, http.StatusGatewayTimeout},
		{capture.ErrCancelled, http.StatusRequestTimeout},
		{capture.ErrEncodingUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := captureStatusCode(tc.err); got != tc.want {
			t.Fatalf("captureStatusCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
