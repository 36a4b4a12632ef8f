package api

import "time"

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status         string `json:"status"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	Namespaces     int    `json:"namespaces"`
	JournalEntries int    `json:"journal_entries"`
}

// NamespacesResponse is returned by GET /v1/namespaces.
type NamespacesResponse struct {
	Namespaces []string `json:"namespaces"`
}

// MethodsResponse is returned by GET /v1/namespaces/{namespace}/methods.
type MethodsResponse struct {
	Namespace string   `json:"namespace"`
	Methods   []string `json:"methods"`
}

// JournalEntryResponse is one row of GET /v1/journal.
type JournalEntryResponse struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id,omitempty"`
	Namespace  string    `json:"namespace,omitempty"`
	Method     string    `json:"method,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
