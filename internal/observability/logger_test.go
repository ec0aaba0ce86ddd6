package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/justiceconnect/internal/observability"
)

func TestNewRejectsUnknownSettings(t *testing.T) {
	_, err := observability.New(&bytes.Buffer{}, "loud", "json")
	assert.Error(t, err)

	_, err = observability.New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := observability.New(&buf, "warn", "json")
	require.NoError(t, err)

	l.Info("dropped")
	l.Warn("kept", "key", "chat:u1:c1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "chat:u1:c1", rec["key"])
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := observability.WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", observability.RequestIDFromContext(ctx))
	assert.Equal(t, "", observability.RequestIDFromContext(context.Background()))
}

func TestWithFieldsTagsGlobalLogger(t *testing.T) {
	prev := observability.Logger()
	t.Cleanup(func() { observability.SetLogger(prev) })

	var buf bytes.Buffer
	l, err := observability.New(&buf, "info", "json")
	require.NoError(t, err)
	observability.SetLogger(l)

	observability.WithFields("component", "storage").Info("using in-memory history store")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "storage", rec["component"])
	assert.Equal(t, "using in-memory history store", rec["msg"])
}
