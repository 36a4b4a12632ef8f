// Package builtin registers the bridge's built-in "system" namespace:
// cheap methods every embedded context can rely on for smoke testing the
// channel before registering application namespaces.
package builtin

import (
	"context"
	"time"

	"github.com/mattjoyce/minibridge/internal/registry"
)

// Register installs the system namespace into reg. Existing handlers under
// "system" are replaced.
func Register(reg *registry.Registry, version string) error {
	handlers := map[string]registry.Handler{
		"ping":    ping,
		"time":    now,
		"version": versionHandler(version),
		"sleep":   sleep,
	}

	for name, h := range handlers {
		if err := reg.Register("system", name, h, true); err != nil {
			return err
		}
	}
	return nil
}

// ping echoes its params back, proving the round trip works.
func ping(ctx context.Context, params map[string]any) (registry.Result, error) {
	return registry.OK(map[string]any{"pong": true, "echo": params}), nil
}

func now(ctx context.Context, params map[string]any) (registry.Result, error) {
	return registry.OK(map[string]any{"now": time.Now().UTC().Format(time.RFC3339Nano)}), nil
}

func versionHandler(version string) registry.Handler {
	return func(ctx context.Context, params map[string]any) (registry.Result, error) {
		return registry.OK(map[string]any{"version": version}), nil
	}
}

// sleep blocks for params["ms"] milliseconds or until the request deadline.
// It exists to exercise timeout behavior end to end from the embedded side.
func sleep(ctx context.Context, params map[string]any) (registry.Result, error) {
	ms, ok := params["ms"].(float64)
	if !ok || ms < 0 {
		return registry.Fail("ms must be a non-negative number"), nil
	}

	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return registry.OK(map[string]any{"slept_ms": ms}), nil
	case <-ctx.Done():
		// The dispatcher already answered with a timeout; nothing to report.
		return registry.Fail("interrupted"), nil
	}
}
