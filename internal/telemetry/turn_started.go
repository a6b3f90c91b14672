package telemetry

import (
	"context"

	"github.com/petasbytes/go-assistant/internal/metrics"
)

// EmitTurnStarted records size features of the user's message. The raw text is
// never written.
func EmitTurnStarted(ctx context.Context, user string) {
	f := metrics.CountFeatures(user)
	Emit(ctx, "turn_started", map[string]any{
		"features_version": "1",
		"user": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
		},
	})
}
