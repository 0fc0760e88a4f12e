// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, Init(ctx, Config{}, "fmri2bids", "test"))
	defer Shutdown(ctx)

	_, span := StartSpan(ctx, "noop")
	assert.False(t, span.SpanContext().IsValid())
	EndSpan(span, errors.New("ignored"))
}

func TestInit_ExportsSpans(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	require.NoError(t, Init(ctx, Config{Enabled: true, Writer: &buf}, "fmri2bids", "test"))
	t.Cleanup(func() {
		Shutdown(ctx)
		require.NoError(t, Init(ctx, Config{}, "", ""))
	})

	_, span := StartSpan(ctx, "fmri2bids.dcm2bids", attribute.String("runner", "native"))
	assert.True(t, span.SpanContext().IsValid())
	EndSpan(span, errors.New("converter exited with status 1"))

	out := buf.String()
	assert.Contains(t, out, "fmri2bids.dcm2bids")
	assert.Contains(t, out, "converter exited with status 1")
	assert.Contains(t, out, "native")
}

func TestShutdown_Idempotent(t *testing.T) {
	ctx := context.Background()
	Shutdown(ctx)
	Shutdown(ctx)
	assert.Empty(t, shutdownFns)
}
