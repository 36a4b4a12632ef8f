package protocol

import (
	"encoding/json"
	"fmt"
)

// DecodeRequest parses a raw bridge message into a Request. Unknown fields
// are ignored so callers on older or newer stub versions keep working.
// Field presence is NOT validated here: a decoded request may still be
// missing id, className, or method. That is the dispatcher's call to make,
// because it needs the partially-decoded id for the error response.
func DecodeRequest(raw []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

// EncodeResponse serializes a Response to its wire form.
func EncodeResponse(resp *Response) (string, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("encode response: %w", err)
	}
	return string(data), nil
}

// EncodeEvent serializes an event push payload. Nil data encodes as an empty
// object, not null, so the embedded side can always index into it.
func EncodeEvent(event string, data map[string]any) (string, error) {
	if event == "" {
		return "", fmt.Errorf("encode event: event name is empty")
	}
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(EventPayload{Event: event, Data: data})
	if err != nil {
		return "", fmt.Errorf("encode event %q: %w", event, err)
	}
	return string(raw), nil
}
