package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"class360/internal/api"
	"class360/internal/config"
	"class360/internal/logging"
	"class360/internal/services"
)

// apiServer exposes the HTTP control and observation surface: status, queue
// and recording control, split requests, and progress polling plus an SSE
// stream for live snapshots.
type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(srv.requestLogger)

	router.Get("/healthz", srv.handleHealth)
	router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(d.metrics.registry, promhttp.HandlerOpts{}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/status", srv.handleStatus)
		r.Post("/jobs", srv.handleEnqueue)
		r.Get("/queue", srv.handleQueue)
		r.Delete("/queue", srv.handleQueueClear)
		r.Get("/videos/{id}", srv.handleVideo)
		r.Get("/progress", srv.handleProgressList)
		r.Get("/progress/{id}", srv.handleProgress)
		r.Get("/progress/{id}/stream", srv.handleProgressStream)
		r.Post("/recordings/{classroom}/start", srv.handleRecordingStart)
		r.Post("/recordings/{classroom}/stop", srv.handleRecordingStop)
		r.Get("/recordings/{classroom}/status", srv.handleRecordingStatus)
		r.Post("/split", srv.handleSplit)
	})

	srv.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
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

// Addr returns the bound listen address, or empty before start.
func (s *apiServer) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// requestLogger tags each request context with a correlation id and logs the
// request with whatever identifiers accumulated on the context.
func (s *apiServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := services.WithRequestID(r.Context(), uuid.NewString())
		started := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		s.logger.LogAttrs(ctx, slog.LevelDebug, "api request",
			append(logging.ContextFields(ctx),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("elapsed", time.Since(started)),
			)...)
	})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.daemon.Status())
}

func (s *apiServer) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req api.EnqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.Wrap(services.ErrValidation, "", "enqueue", "invalid request body", err))
		return
	}
	id, err := s.daemon.Enqueue(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, api.EnqueueResponse{JobID: id})
}

func (s *apiServer) handleQueue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.daemon.QueueSummary())
}

func (s *apiServer) handleQueueClear(w http.ResponseWriter, _ *http.Request) {
	removed := s.daemon.ClearQueue()
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *apiServer) handleVideo(w http.ResponseWriter, r *http.Request) {
	video, err := s.daemon.Entity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (s *apiServer) handleProgressList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.daemon.ActiveSnapshots())
}

func (s *apiServer) handleProgress(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.daemon.LatestSnapshot(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, services.Wrap(services.ErrNotFound, "", "progress", chi.URLParam(r, "id"), nil))
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// handleProgressStream pushes snapshots as server-sent events until either
// side closes. The latest known snapshot is replayed immediately on connect.
func (s *apiServer) handleProgressStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	entityID := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.daemon.SubscribeProgress(entityID)
	defer s.daemon.UnsubscribeProgress(entityID, ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(snapshot)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func (s *apiServer) handleRecordingStart(w http.ResponseWriter, r *http.Request) {
	var req api.RecordingStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.Wrap(services.ErrValidation, "", "start recording", "invalid request body", err))
		return
	}
	info, err := s.daemon.StartRecording(r.Context(), chi.URLParam(r, "classroom"), req.Source)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *apiServer) handleRecordingStop(w http.ResponseWriter, r *http.Request) {
	result, err := s.daemon.StopRecording(r.Context(), chi.URLParam(r, "classroom"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *apiServer) handleRecordingStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.daemon.RecordingStatus(chi.URLParam(r, "classroom")))
}

func (s *apiServer) handleSplit(w http.ResponseWriter, r *http.Request) {
	var req api.SplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, services.Wrap(services.ErrValidation, "", "split", "invalid request body", err))
		return
	}
	segments, err := s.daemon.Split(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.SplitResponse{Segments: segments})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeError maps the services error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": services.Message(err)})
}
