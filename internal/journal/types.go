package journal

import "time"

// Status classifies how a dispatch ended. The wire response carries the
// human-readable error; the journal keeps the machine-readable category.
type Status string

const (
	StatusOK           Status = "ok"
	StatusError        Status = "error"          // handler failure, app-level or execution
	StatusTimeout      Status = "timeout"        // deadline expired before the handler finished
	StatusUnknown      Status = "unknown_method" // no handler at (namespace, method)
	StatusInvalid      Status = "invalid"        // required fields missing
	StatusDecodeFailed Status = "decode_failed"  // raw message was not valid JSON
)

// Entry is one dispatch record. RequestID is empty for decode failures,
// where no id could be extracted.
type Entry struct {
	ID        string
	RequestID string
	Namespace string
	Method    string
	Status    Status
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}
