package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DavidSilveraGabriel/MewAI/internal/config"
	"github.com/DavidSilveraGabriel/MewAI/internal/core/domain"
	"github.com/DavidSilveraGabriel/MewAI/internal/core/services"
)

// Server exposes the generation API: async submission, polling, SSE progress
// and static serving of generated images.
type Server struct {
	logger    *slog.Logger
	generator *services.GenerationService
	registry  *services.JobRegistry
	eventBus  *services.EventBus
	assetsDir string
}

func NewServer(
	logger *slog.Logger,
	generator *services.GenerationService,
	registry *services.JobRegistry,
	eventBus *services.EventBus,
) *Server {
	return &Server{
		logger:    logger,
		generator: generator,
		registry:  registry,
		eventBus:  eventBus,
		assetsDir: config.GeneratedImagesDir,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)

	r.Route("/api/generation", func(r chi.Router) {
		r.Post("/start", s.handleStart)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/events", s.handleEvents)
	})

	// The URL prefix and the save directory must stay in agreement with the
	// image tool; both read the mapping from the config package.
	fs := http.StripPrefix(config.GeneratedImagesURLPrefix, http.FileServer(http.Dir(s.assetsDir)))
	r.Get(config.GeneratedImagesURLPrefix+"*", fs.ServeHTTP)

	return r
}

type startRequest struct {
	Topic          string   `json:"topic"`
	Platforms      []string `json:"platforms"`
	Tone           string   `json:"tone"`
	Length         string   `json:"length"`
	GenerateImages *bool    `json:"generate_images"`
}

type startResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	settings := domain.DefaultSettings()
	if len(req.Platforms) > 0 {
		settings.Platforms = req.Platforms
	}
	if req.Tone != "" {
		settings.Tone = req.Tone
	}
	if req.Length != "" {
		settings.Length = req.Length
	}
	if req.GenerateImages != nil {
		settings.GenerateImages = *req.GenerateImages
	}

	id, err := s.generator.Submit(req.Topic, settings)
	if err != nil {
		s.logger.Error("failed to submit generation", "error", err)
		writeError(w, http.StatusServiceUnavailable, "generation queue is full")
		return
	}

	writeJSON(w, http.StatusAccepted, startResponse{
		ID:     string(id),
		Status: string(domain.JobStatusPending),
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := domain.JobID(chi.URLParam(r, "id"))

	job, err := s.registry.Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "generation job not found")
			return
		}
		s.logger.Error("failed to get job", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

// handleEvents streams job events over SSE until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.registry.Get(domain.JobID(id)); err != nil {
		writeError(w, http.StatusNotFound, "generation job not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events, unsub := s.eventBus.Subscribe(id)
	defer unsub()

	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", id)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
