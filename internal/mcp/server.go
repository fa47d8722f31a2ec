package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/chainchat/chainchat/internal/intent"
	"github.com/chainchat/chainchat/internal/models"
	"github.com/chainchat/chainchat/internal/oneinch"
)

// lookupTimeout bounds one upstream fetch issued through the MCP surface.
const lookupTimeout = 60 * time.Second

// Server is the Model Context Protocol side server. It exposes raw intent
// detection and data lookups to external model-context clients, bypassing
// the chat loop entirely.
type Server struct {
	router  *mux.Router
	client  *oneinch.Client
	address string
	server  *http.Server
}

// MCPRequest represents a Model Context Protocol request
type MCPRequest struct {
	Method string                 `json:"method"`
	Params map[string]interface{} `json:"params"`
	ID     interface{}            `json:"id"`
}

// MCPResponse represents a Model Context Protocol response
type MCPResponse struct {
	Result interface{} `json:"result,omitempty"`
	Error  *MCPError   `json:"error,omitempty"`
	ID     interface{} `json:"id"`
}

// MCPError represents an MCP error
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// NewServer creates a new MCP server around the shared 1inch client.
func NewServer(address string, client *oneinch.Client) *Server {
	server := &Server{
		router:  mux.NewRouter(),
		client:  client,
		address: address,
	}

	server.setupRoutes()

	return server
}

// setupRoutes configures the MCP server routes
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/mcp", s.handleMCPRequest).Methods("POST")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/capabilities", s.handleCapabilities).Methods("GET")
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleMCPRequest handles Model Context Protocol requests
func (s *Server) handleMCPRequest(w http.ResponseWriter, r *http.Request) {
	var request MCPRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeErrorResponse(w, request.ID, -32700, "Parse error", err.Error())
		return
	}

	switch request.Method {
	case "chainchat.detect":
		s.handleDetectMethod(w, &request)
	case "chainchat.lookup":
		s.handleLookupMethod(r.Context(), w, &request)
	case "chainchat.networks":
		s.handleNetworksMethod(w, &request)
	case "chainchat.capabilities":
		s.handleCapabilitiesMethod(w, &request)
	default:
		s.writeErrorResponse(w, request.ID, -32601, "Method not found", fmt.Sprintf("Unknown method: %s", request.Method))
	}
}

// handleDetectMethod runs the intent matchers over a message without
// touching the upstream API.
func (s *Server) handleDetectMethod(w http.ResponseWriter, request *MCPRequest) {
	message, ok := s.messageParam(w, request)
	if !ok {
		return
	}

	result := map[string]interface{}{"matched": false}
	if resolution, matched := intent.Resolve(message); matched {
		result["matched"] = true
		result["intent"] = resolution
	}

	s.writeResult(w, request.ID, result)
}

// handleLookupMethod resolves a message and fetches the backing data. A
// message that resolves to nothing returns matched=false, not an error.
func (s *Server) handleLookupMethod(ctx context.Context, w http.ResponseWriter, request *MCPRequest) {
	message, ok := s.messageParam(w, request)
	if !ok {
		return
	}

	resolution, matched := intent.Resolve(message)
	if !matched {
		s.writeResult(w, request.ID, map[string]interface{}{"matched": false})
		return
	}

	if s.client == nil || !s.client.IsAvailable() {
		s.writeErrorResponse(w, request.ID, -32001, "Lookups unavailable", "Data lookups not configured")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	data, err := s.client.Fetch(ctx, resolution)
	if err != nil {
		log.Error().Err(err).Str("intent", string(resolution.Intent)).Msg("MCP lookup failed")
		s.writeErrorResponse(w, request.ID, -32002, "Lookup failed", sanitizeError(err))
		return
	}

	s.writeResult(w, request.ID, map[string]interface{}{
		"matched": true,
		"intent":  resolution,
		"data":    data,
	})
}

// handleNetworksMethod handles network list requests
func (s *Server) handleNetworksMethod(w http.ResponseWriter, request *MCPRequest) {
	networks := models.SupportedNetworks()

	s.writeResult(w, request.ID, map[string]interface{}{
		"networks": networks,
		"count":    len(networks),
	})
}

// handleCapabilitiesMethod handles capabilities requests
func (s *Server) handleCapabilitiesMethod(w http.ResponseWriter, request *MCPRequest) {
	s.writeResult(w, request.ID, s.capabilities())
}

// messageParam extracts and validates the message parameter shared by the
// detect and lookup methods.
func (s *Server) messageParam(w http.ResponseWriter, request *MCPRequest) (string, bool) {
	message, ok := request.Params["message"].(string)
	if !ok || strings.TrimSpace(message) == "" {
		s.writeErrorResponse(w, request.ID, -32602, "Invalid params", "message is required")
		return "", false
	}
	return message, true
}

func (s *Server) capabilities() map[string]interface{} {
	return map[string]interface{}{
		"service": "chainchat",
		"version": "1.0.0",
		"methods": []string{
			"chainchat.detect",
			"chainchat.lookup",
			"chainchat.networks",
			"chainchat.capabilities",
		},
		"intents":  models.Intents,
		"networks": models.SupportedNetworks(),
		"lookups":  s.client != nil && s.client.IsAvailable(),
	}
}

// handleHealth returns health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "chainchat-mcp",
		"timestamp": time.Now().UTC(),
		"lookups":   s.client != nil && s.client.IsAvailable(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// handleCapabilities returns service capabilities
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(s.capabilities())
}

// writeResult writes a successful MCP response
func (s *Server) writeResult(w http.ResponseWriter, id, result interface{}) {
	response := MCPResponse{
		Result: result,
		ID:     id,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// writeErrorResponse writes an MCP error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, id interface{}, code int, message, data string) {
	response := MCPResponse{
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK) // MCP errors are still HTTP 200
	json.NewEncoder(w).Encode(response)
}

// sanitizeError maps internal fetch errors to a public hint. Upstream URLs,
// status bodies and keys never leave the process.
func sanitizeError(err error) string {
	switch {
	case errors.Is(err, oneinch.ErrNoAPIKey):
		return "Data lookups not configured"
	case strings.Contains(err.Error(), "API request failed"):
		return "External service error"
	case strings.Contains(err.Error(), "context"):
		return "Request timeout"
	default:
		return "Internal processing error"
	}
}

// loggingMiddleware logs MCP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("MCP request")
	})
}

// Start starts the MCP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.address,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: lookupTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("address", s.address).Msg("starting MCP server")
	return s.server.ListenAndServe()
}

// Stop gracefully stops the MCP server
func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("shutting down MCP server")

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown MCP server: %w", err)
		}
	}

	return nil
}
