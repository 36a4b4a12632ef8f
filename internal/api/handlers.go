package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// maxInvokeBytes caps the raw request body accepted by /v1/invoke.
const maxInvokeBytes = 1 << 20

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	entries, err := s.journal.Count(r.Context())
	if err != nil {
		s.logger.Error("failed to count journal entries", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to count journal entries")
		return
	}

	resp := HealthzResponse{
		Status:         "ok",
		UptimeSeconds:  int64(time.Since(s.startedAt).Seconds()),
		Namespaces:     len(s.registry.Namespaces()),
		JournalEntries: entries,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleNamespaces handles GET /v1/namespaces.
func (s *Server) handleNamespaces(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, NamespacesResponse{Namespaces: s.registry.Namespaces()})
}

// handleMethods handles GET /v1/namespaces/{namespace}/methods.
// An unknown namespace yields an empty list, mirroring the registry.
func (s *Server) handleMethods(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	s.writeJSON(w, http.StatusOK, MethodsResponse{
		Namespace: namespace,
		Methods:   s.registry.Methods(namespace),
	})
}

// handleInvoke handles POST /v1/invoke. The body is a raw bridge request;
// the response body is the raw bridge response. This is a loopback transport
// for development and smoke tests — dispatch never fails the HTTP exchange.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInvokeBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	out := s.bridge.ProcessRequest(r.Context(), string(body))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// handlePush handles POST /v1/push/{event}. The body is the event's data
// object; the response is the encoded push payload that would be handed to
// the embedded context's transport.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	event := chi.URLParam(r, "event")

	var data map[string]any
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			s.writeError(w, http.StatusBadRequest, "body must be a JSON object")
			return
		}
	}

	payload, err := s.bridge.CreateEventPayload(event, data)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(payload))
}

// handleJournal handles GET /v1/journal?limit=N.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			s.writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 1000")
			return
		}
		limit = n
	}

	entries, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read journal", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read journal")
		return
	}

	out := make([]JournalEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, JournalEntryResponse{
			ID:         e.ID,
			RequestID:  e.RequestID,
			Namespace:  e.Namespace,
			Method:     e.Method,
			Status:     string(e.Status),
			Error:      e.Error,
			DurationMS: e.Duration.Milliseconds(),
			CreatedAt:  e.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
