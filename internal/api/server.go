package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/chainchat/chainchat/internal/agent"
	"github.com/chainchat/chainchat/internal/intent"
	"github.com/chainchat/chainchat/internal/models"
	"github.com/chainchat/chainchat/internal/oneinch"
)

// chatTimeout bounds one full turn including model generation. Local models
// on modest hardware can take a while on long transcripts.
const chatTimeout = 120 * time.Second

// Server is the public HTTP surface: chat, raw intent detection, direct
// trace lookups and the network directory.
type Server struct {
	router  *mux.Router
	agent   *agent.Agent
	client  *oneinch.Client
	address string
	server  *http.Server
}

// NewServer creates the API server around an assembled agent and data client.
func NewServer(address string, chatAgent *agent.Agent, client *oneinch.Client) *Server {
	server := &Server{
		router:  mux.NewRouter(),
		agent:   chatAgent,
		client:  client,
		address: address,
	}

	server.setupRoutes()

	return server
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/chat", s.handleChat).Methods("POST")
	v1.HandleFunc("/chat/stream", s.handleChatStream).Methods("POST")
	v1.HandleFunc("/detect", s.handleDetect).Methods("POST")
	v1.HandleFunc("/trace", s.handleTrace).Methods("POST")
	v1.HandleFunc("/networks", s.handleNetworks).Methods("GET")
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleHealth returns the health status of the service
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "chainchat",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC(),
		"agent":     s.agent.Name(),
		"lookups":   s.client.IsAvailable(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleChat runs one buffered chat turn.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var request models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(request.Message) == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Message is required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), chatTimeout)
	defer cancel()

	response, err := s.agent.Chat(ctx, request, nil)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			s.writeErrorResponse(w, http.StatusRequestTimeout, "Chat turn timed out", err)
			return
		}
		s.writeErrorResponse(w, http.StatusBadGateway, "Failed to generate reply", err)
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleChatStream runs a chat turn over Server-Sent Events: token events
// while the model generates, then a done event carrying the final envelope.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	// Parse and validate before committing to the SSE content type.
	var request models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(request.Message) == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Message is required", nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeErrorResponse(w, http.StatusInternalServerError, "Streaming not supported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	stream := func(ctx context.Context, chunk []byte) error {
		payload, err := json.Marshal(map[string]string{"token": string(chunk)})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: token\ndata: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	ctx, cancel := context.WithTimeout(r.Context(), chatTimeout)
	defer cancel()

	response, err := s.agent.Chat(ctx, request, stream)
	if err != nil {
		log.Error().Err(err).Msg("streamed chat turn failed")
		payload, _ := json.Marshal(map[string]string{"error": "Failed to generate reply"})
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", payload)
		flusher.Flush()
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode chat envelope")
		payload = []byte(`{"error":"Failed to encode response"}`)
	}
	fmt.Fprintf(w, "event: done\ndata: %s\n\n", payload)
	flusher.Flush()
}

// handleDetect runs a raw detection pass without touching the model or the
// upstream API. A message that resolves to nothing is a normal outcome,
// not an error.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var request models.DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(request.Message) == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Message is required", nil)
		return
	}

	response := map[string]interface{}{"matched": false}
	if resolution, ok := intent.Resolve(request.Message); ok {
		response["matched"] = true
		response["intent"] = resolution
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleTrace fetches one transaction trace directly, bypassing detection.
func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	var request models.TraceRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if request.TxHash == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Transaction hash is required", nil)
		return
	}
	if request.BlockNumber == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "Block number is required", nil)
		return
	}

	chainID, ok := models.ChainIDForNetwork(request.Network)
	if !ok {
		chainID = models.DefaultChainID
	}

	trace, err := s.client.TransactionTrace(r.Context(), request.TxHash, request.BlockNumber, chainID)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadGateway, "Failed to fetch transaction trace", err)
		return
	}

	s.writeJSON(w, http.StatusOK, trace)
}

// handleNetworks returns the network directory.
func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request) {
	networks := models.SupportedNetworks()

	response := map[string]interface{}{
		"networks": networks,
		"count":    len(networks),
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeErrorResponse writes an error response in a consistent format
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	response := map[string]interface{}{
		"error":     message,
		"timestamp": time.Now().UTC(),
	}

	if err != nil {
		// Log the full error; the public payload only carries a sanitized
		// hint so upstream URLs and keys never leak.
		log.Error().Err(err).Str("message", message).Msg("API error")

		switch {
		case strings.Contains(err.Error(), "API request failed"):
			response["details"] = "External service error"
		case strings.Contains(err.Error(), "API key"):
			response["details"] = "Data lookups not configured"
		case strings.Contains(err.Error(), "context"):
			response["details"] = "Request timeout"
		case strings.Contains(err.Error(), "model"):
			response["details"] = "Model unavailable"
		default:
			response["details"] = "Internal processing error"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		log.Error().Err(encodeErr).Msg("failed to encode error response")
		w.Write([]byte(`{"error":"Internal server error - failed to encode response"}`))
	}
}

// recoveryMiddleware catches panics and returns proper JSON error responses
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("panic", err).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("panic in handler")

				if w.Header().Get("Content-Type") == "" {
					s.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", fmt.Errorf("panic: %v", err))
				}
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", wrapped.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code while
// still forwarding Flush for SSE responses.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.address,
		Handler: s.router,

		// Write timeout must cover a full streamed chat turn.
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      chatTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("address", s.address).Msg("starting API server")
	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("shutting down API server")

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
