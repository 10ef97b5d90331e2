package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"hindsight/internal/api"
	"hindsight/internal/capture"
	"hindsight/internal/config"
	"hindsight/internal/logging"
)

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	clipSvc *api.ClipService

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	if cfg == nil || d == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	mux := http.NewServeMux()
	srv := &apiServer{
		bind:    bind,
		logger:  logging.NewComponentLogger(logger, "api"),
		daemon:  d,
		clipSvc: api.NewClipService(d.store),
	}

	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/clips", srv.handleClips)
	mux.HandleFunc("/api/clips/", srv.handleClip)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Capture requests block for the whole after-window plus grace.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	deps := make([]api.DependencyStatus, len(status.Dependencies))
	for i, dep := range status.Dependencies {
		deps[i] = api.DependencyStatus{
			Name:      dep.Name,
			Available: dep.Passed,
			Detail:    dep.Detail,
		}
	}
	payload := api.DaemonStatus{
		Running:       status.Running,
		PID:           status.PID,
		CatalogDBPath: status.CatalogDBPath,
		LockFilePath:  status.LockFilePath,
		SourceMode:    status.SourceMode,
		SourceActive:  status.SourceActive,
		Buffer: api.BufferStatus{
			CapacityFrames: status.Buffer.Capacity,
			BufferedFrames: status.Buffer.Buffered,
			Unbounded:      status.Buffer.Unbounded,
		},
		Ingest: api.IngestStatus{
			IngestedFrames: status.Ingest.Ingested,
			IngestedBytes:  status.Ingest.Bytes,
			LastTimestamp:  api.FormatTime(status.Ingest.LastTimestamp),
			Subscribers:    status.Ingest.Subscribers,
		},
		Cameras:      status.Cameras,
		Dependencies: deps,
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleClips(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listClips(w, r)
	case http.MethodPost:
		s.triggerClip(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) listClips(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	clips, err := s.clipSvc.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClipListResponse{Clips: clips})
}

func (s *apiServer) triggerClip(w http.ResponseWriter, r *http.Request) {
	var req api.CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	clip, err := s.daemon.TriggerCapture(r.Context(), req)
	if err != nil {
		status := captureStatusCode(err)
		if clip != nil {
			s.writeJSON(w, status, map[string]any{
				"error": err.Error(),
				"clip":  api.FromClip(clip),
			})
			return
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, api.ClipResponse{Clip: api.FromClip(clip)})
}

func (s *apiServer) handleClip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/clips/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "clip not found")
		return
	}
	clip, err := s.clipSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if clip == nil {
		s.writeError(w, http.StatusNotFound, "clip not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.ClipResponse{Clip: *clip})
}

// captureStatusCode maps extraction error kinds onto HTTP responses.
func captureStatusCode(err error) int {
	switch {
	case errors.Is(err, capture.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, capture.ErrInsufficientHistory):
		return http.StatusConflict
	case errors.Is(err, capture.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, capture.ErrCancelled):
		return http.StatusRequestTimeout
	case errors.Is(err, capture.ErrEncodingUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
