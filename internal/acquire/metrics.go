// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"github.com/pdiddy/fmri2bids/internal/telemetry"
)

const scopeName = "github.com/pdiddy/fmri2bids/acquire"

func recordDownload(ctx context.Context, n int64) {
	c, err := telemetry.Meter(scopeName).Int64Counter("fmri2bids.download.bytes",
		metric.WithDescription("Bytes of dataset archive downloaded"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return
	}
	c.Add(ctx, n)
}
