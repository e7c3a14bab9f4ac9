package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmr/account-service/internal/config"
	"github.com/dmr/account-service/internal/repository"
)

const apiVersion = "1.0.0"

// maxBodyBytes caps inbound request bodies at 10mb.
const maxBodyBytes = 10 << 20

// SampleHandler serves the informational and scratch endpoints: the root
// index, health check, and the /api test routes.
type SampleHandler struct {
	users     repository.UserRepository
	cfg       *config.Config
	startedAt time.Time
}

func NewSampleHandler(users repository.UserRepository, cfg *config.Config) *SampleHandler {
	return &SampleHandler{users: users, cfg: cfg, startedAt: time.Now()}
}

func (h *SampleHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Account API Server",
		"version": apiVersion,
		"status":  "running",
		"endpoints": map[string]string{
			"health": "/health",
			"api":    "/api",
			"proxy":  "/proxy",
			"auth":   "/api/auth",
		},
	})
}

func (h *SampleHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Seconds(),
	})
}

func (h *SampleHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "API Routes",
		"availableRoutes": []string{
			"GET /api/test",
			"POST /api/data",
			"GET /api/status",
		},
	})
}

func (h *SampleHandler) Test(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Test endpoint working",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"query":     r.URL.Query(),
	})
}

func (h *SampleHandler) Data(w http.ResponseWriter, r *http.Request) {
	var body interface{}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      "Data received successfully",
		"receivedData": body,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *SampleHandler) Status(w http.ResponseWriter, r *http.Request) {
	userCount, err := h.users.Count(r.Context())
	if err != nil {
		respondServiceError(w, err, h.cfg.IsDevelopment())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"apiStatus":   "operational",
		"version":     apiVersion,
		"environment": h.cfg.Environment,
		"users":       userCount,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
