package dispatch

import (
	"context"

	"github.com/mattjoyce/minibridge/internal/journal"
)

//go:generate mockgen -destination=mocks/mock_journal.go -package=mocks github.com/mattjoyce/minibridge/internal/dispatch Journal

// Journal defines the dispatch-outcome sink used by the Dispatcher.
// Recording is best effort: Append errors are logged and swallowed.
type Journal interface {
	Append(ctx context.Context, e journal.Entry) error
}
