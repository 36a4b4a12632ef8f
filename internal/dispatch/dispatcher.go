// Package dispatch implements the bridge request/response engine.
//
// Request processing pipeline:
//
//	raw message → decode → validate → registry lookup
//	  → handler invocation raced against the method deadline
//	  → encoded response (every path produces one)
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattjoyce/minibridge/internal/events"
	"github.com/mattjoyce/minibridge/internal/journal"
	"github.com/mattjoyce/minibridge/internal/log"
	"github.com/mattjoyce/minibridge/internal/protocol"
	"github.com/mattjoyce/minibridge/internal/registry"
)

// DefaultMethodTimeout bounds handler execution when no timeout is configured.
const DefaultMethodTimeout = 30 * time.Second

// Caller-facing error messages. The embedded stub surfaces these verbatim,
// so their wording is part of the wire contract.
const (
	msgInvalidFormat = "Invalid request format"
	msgTimedOut      = "Method execution timed out"
)

// Dispatcher decodes serialized requests, resolves handlers against the
// registry, runs them under a deadline, and encodes responses. Processing
// never lets a failure escape: every branch ends in a well-formed response
// string.
type Dispatcher struct {
	registry *registry.Registry
	timeout  time.Duration
	logger   *slog.Logger
	journal  Journal
	hub      *events.Hub
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout sets the per-request handler deadline.
func WithTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) {
		if d > 0 {
			dp.timeout = d
		}
	}
}

// WithLogger sets the diagnostic logger sink.
func WithLogger(l *slog.Logger) Option {
	return func(dp *Dispatcher) {
		if l != nil {
			dp.logger = l
		}
	}
}

// WithJournal sets the dispatch journal sink.
func WithJournal(j Journal) Option {
	return func(dp *Dispatcher) {
		dp.journal = j
	}
}

// WithHub sets the event hub that receives dispatch activity.
func WithHub(h *events.Hub) Option {
	return func(dp *Dispatcher) {
		dp.hub = h
	}
}

// New creates a Dispatcher over the given registry.
func New(reg *registry.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		timeout:  DefaultMethodTimeout,
		logger:   log.WithComponent("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// handlerOutcome carries a handler's completion across the timeout race.
type handlerOutcome struct {
	res registry.Result
	err error
}

// ProcessRequest handles one serialized request and always returns a
// serialized response. Failures of any kind (malformed JSON, missing fields,
// unknown method, handler error or panic, deadline expiry) are reported
// inline in the response, never propagated.
//
// Known protocol gap, kept deliberately: when the raw message is not valid
// JSON the request id cannot be extracted, so the error response carries no
// id and the caller cannot correlate it. This matches the wire contract;
// the decode-failure response is the only shape without an id.
func (d *Dispatcher) ProcessRequest(ctx context.Context, raw string) string {
	started := time.Now()

	req, err := protocol.DecodeRequest([]byte(raw))
	if err != nil {
		d.logger.Warn("request decode failed", "error", err)
		resp := &protocol.Response{Success: false, Error: fmt.Sprintf("Invalid request: %v", err)}
		return d.finish(ctx, resp, journal.Entry{
			Status:   journal.StatusDecodeFailed,
			Error:    resp.Error,
			Duration: time.Since(started),
		})
	}

	if !req.HasID() || req.ClassName == "" || req.Method == "" {
		d.logger.Warn("invalid request format",
			"namespace", req.ClassName, "method", req.Method, "has_id", req.HasID())
		resp := &protocol.Response{Success: false, Error: msgInvalidFormat}
		if req.HasID() {
			// The id survived decoding even though other fields are missing;
			// echo it so the caller can settle the pending call.
			resp.ID = req.ID
		}
		return d.finish(ctx, resp, journal.Entry{
			RequestID: requestID(req),
			Namespace: req.ClassName,
			Method:    req.Method,
			Status:    journal.StatusInvalid,
			Error:     msgInvalidFormat,
			Duration:  time.Since(started),
		})
	}

	reqLogger := d.logger.With("request_id", requestID(req), "namespace", req.ClassName, "method", req.Method)

	params := req.Params
	if params == nil {
		params = map[string]any{}
	}

	handler, ok := d.registry.Lookup(req.ClassName, req.Method)
	if !ok {
		reqLogger.Warn("unknown method")
		resp := &protocol.Response{
			ID:      req.ID,
			Success: false,
			Error:   fmt.Sprintf("Unknown method: %s.%s", req.ClassName, req.Method),
		}
		return d.finish(ctx, resp, journal.Entry{
			RequestID: requestID(req),
			Namespace: req.ClassName,
			Method:    req.Method,
			Status:    journal.StatusUnknown,
			Error:     resp.Error,
			Duration:  time.Since(started),
		})
	}

	hctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	// The result channel is buffered so a handler that finishes after the
	// deadline parks its outcome and exits instead of blocking forever. The
	// late result is simply never read; the response has already been built.
	outCh := make(chan handlerOutcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				outCh <- handlerOutcome{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		res, err := handler(hctx, params)
		outCh <- handlerOutcome{res: res, err: err}
	}()

	var (
		resp   *protocol.Response
		status journal.Status
	)
	select {
	case <-hctx.Done():
		// Deadline expired (or the caller cancelled us). The handler keeps
		// running unawaited; only the wait is cancelled.
		reqLogger.Warn("method execution timed out", "timeout", d.timeout)
		resp = &protocol.Response{ID: req.ID, Success: false, Error: msgTimedOut}
		status = journal.StatusTimeout

	case out := <-outCh:
		switch {
		case out.err != nil:
			reqLogger.Warn("method execution failed", "error", out.err)
			resp = &protocol.Response{
				ID:      req.ID,
				Success: false,
				Error:   fmt.Sprintf("Method execution error: %v", out.err),
			}
			status = journal.StatusError
		default:
			resp = &protocol.Response{
				ID:      req.ID,
				Success: out.res.Success,
				Data:    out.res.Data,
				Error:   out.res.Err,
			}
			if out.res.Success {
				reqLogger.Debug("method executed", "duration", time.Since(started))
				status = journal.StatusOK
			} else {
				reqLogger.Warn("method returned failure", "error", out.res.Err)
				status = journal.StatusError
			}
		}
	}

	return d.finish(ctx, resp, journal.Entry{
		RequestID: requestID(req),
		Namespace: req.ClassName,
		Method:    req.Method,
		Status:    status,
		Error:     resp.Error,
		Duration:  time.Since(started),
	})
}

// CreateEventPayload encodes an unsolicited push message for the embedded
// context. The returned string is handed to the transport by the caller;
// the dispatcher only produces the payload.
func (d *Dispatcher) CreateEventPayload(event string, data map[string]any) (string, error) {
	payload, err := protocol.EncodeEvent(event, data)
	if err != nil {
		d.logger.Error("event payload encode failed", "event", event, "error", err)
		return "", err
	}

	d.logger.Debug("event payload created", "event", event)
	if d.hub != nil {
		d.hub.Publish(events.TypePush, map[string]any{"event": event})
	}
	return payload, nil
}

// finish records the outcome and encodes the response. Journal and hub
// failures are logged and swallowed; they must never affect the response.
func (d *Dispatcher) finish(ctx context.Context, resp *protocol.Response, e journal.Entry) string {
	if d.journal != nil {
		if err := d.journal.Append(ctx, e); err != nil {
			d.logger.Error("journal append failed", "error", err)
		}
	}
	if d.hub != nil {
		d.hub.Publish(events.TypeDispatch, map[string]any{
			"request_id":  e.RequestID,
			"namespace":   e.Namespace,
			"method":      e.Method,
			"status":      string(e.Status),
			"error":       e.Error,
			"duration_ms": e.Duration.Milliseconds(),
		})
	}
	return d.encode(resp)
}

// encode serializes the response, falling back to a minimal error envelope
// if the handler returned data that cannot be marshalled.
func (d *Dispatcher) encode(resp *protocol.Response) string {
	out, err := protocol.EncodeResponse(resp)
	if err == nil {
		return out
	}

	d.logger.Error("response encode failed", "error", err)
	fallback := &protocol.Response{ID: resp.ID, Success: false, Error: "Failed to encode response data"}
	out, err = protocol.EncodeResponse(fallback)
	if err != nil {
		// Only reachable if the echoed id itself is unmarshallable, which a
		// json.RawMessage from a decoded request cannot be.
		return `{"success":false,"error":"Failed to encode response data"}`
	}
	return out
}

// requestID renders the raw id token for logs and the journal.
func requestID(req *protocol.Request) string {
	if !req.HasID() {
		return ""
	}
	return string(req.ID)
}
