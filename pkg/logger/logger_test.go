package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type ctxKey struct{}

func TestContextExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := newContextHandler(
		slog.NewJSONHandler(&buf, nil),
		func(ctx context.Context) (slog.Attr, bool) {
			id, ok := ctx.Value(ctxKey{}).(string)
			return slog.String("request_id", id), ok
		},
		nil, // nil extractors are filtered out
	)
	log := slog.New(handler)

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-123")
	log.InfoContext(ctx, "handled")
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)

	buf.Reset()
	log.Info("no context value")
	assert.NotContains(t, buf.String(), "request_id")
}
