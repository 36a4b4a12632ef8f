package protocol

import (
	"bytes"
	"encoding/json"
)

// Request is the call envelope sent by the embedded context. The id is
// assigned by the caller's stub and is opaque to the host: it may be a JSON
// string or number, so it is kept as a raw token and echoed back verbatim.
type Request struct {
	ID        json.RawMessage `json:"id,omitempty"`
	ClassName string          `json:"className"`
	Method    string          `json:"method"`
	Params    map[string]any  `json:"params,omitempty"`
}

// HasID reports whether the request carries a usable id. A literal JSON null
// does not count: the caller could never correlate a response against it.
func (r *Request) HasID() bool {
	return len(r.ID) > 0 && !bytes.Equal(bytes.TrimSpace(r.ID), []byte("null"))
}

// Response is the call result envelope returned to the embedded context.
// The id is echoed verbatim from the request and is absent only when the
// request could not be decoded at all. The error key is omitted entirely
// when empty, never encoded as null.
type Response struct {
	ID      json.RawMessage `json:"id,omitempty"`
	Success bool            `json:"success"`
	Data    map[string]any  `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// EventPayload is an unsolicited host-to-embedded push message. It carries no
// id and no success flag: it is not a response to any request.
type EventPayload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}
