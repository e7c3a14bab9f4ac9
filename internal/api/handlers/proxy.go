package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
)

// ProxyHandler forwards requests to third-party APIs so the browser client
// never talks to them directly. Outbound calls carry the only explicit
// timeout in the system.
type ProxyHandler struct {
	client *http.Client
}

func NewProxyHandler(timeout time.Duration) *ProxyHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ProxyHandler{
		client: &http.Client{Timeout: timeout},
	}
}

var proxyBases = map[string]string{
	"jsonplaceholder": "https://jsonplaceholder.typicode.com",
	"httpbin":         "https://httpbin.org",
}

func (h *ProxyHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Proxy Routes for 3rd Party API Calls",
		"availableRoutes": []string{
			"GET /proxy/external/{service}",
			"POST /proxy/external/{service}",
			"GET /proxy/jsonplaceholder/{endpoint}",
			"GET /proxy/httpbin/{endpoint}",
		},
	})
}

// External proxies an arbitrary URL given as a query parameter.
func (h *ProxyHandler) External(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	target := r.URL.Query().Get("url")
	if target == "" {
		respondError(w, http.StatusBadRequest, "URL parameter is required")
		return
	}
	if _, err := url.ParseRequestURI(target); err != nil {
		respondError(w, http.StatusBadRequest, "URL parameter is not a valid URL")
		return
	}

	var body io.Reader
	if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Failed to read request body")
			return
		}
		body = bytes.NewReader(raw)
	}

	h.forward(w, r, service, r.Method, target, body)
}

// Named returns a handler that proxies to one of the allow-listed services.
func (h *ProxyHandler) Named(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base, ok := proxyBases[service]
		if !ok {
			respondError(w, http.StatusNotFound, "Unknown proxy service")
			return
		}

		endpoint := chi.URLParam(r, "endpoint")
		target := fmt.Sprintf("%s/%s", base, endpoint)
		h.forward(w, r, service, http.MethodGet, target, nil)
	}
}

func (h *ProxyHandler) forward(w http.ResponseWriter, r *http.Request, service, method, target string, body io.Reader) {
	req, err := http.NewRequestWithContext(r.Context(), method, target, body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to build proxy request")
		return
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Upstream request failed")
		return
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to read upstream response")
		return
	}

	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		// Upstream did not return JSON; pass it through as a string.
		data = string(raw)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": service,
		"status":  resp.StatusCode,
		"data":    data,
	})
}
