package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func manualMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func TestCounter(t *testing.T) {
	mp, reader := manualMeter(t)
	ctx := context.Background()

	c, err := telemetry.NewCounter(mp.Meter("test"), "callbacks_total", "callbacks", "{callbacks}")
	require.NoError(t, err)
	c.Inc(ctx, telemetry.AttrRail.String("CARD"))
	c.Add(ctx, 4, telemetry.AttrRail.String("CARD"))
	c.Inc(ctx, telemetry.AttrRail.String("BANK_TRANSFER"))

	m := collect(t, reader)["callbacks_total"]
	assert.Equal(t, int64(5), sumFor(t, m, telemetry.AttrRail.String("CARD")))
	assert.Equal(t, int64(1), sumFor(t, m, telemetry.AttrRail.String("BANK_TRANSFER")))
}

func TestHistogram_RecordDuration(t *testing.T) {
	mp, reader := manualMeter(t)
	ctx := context.Background()

	h, err := telemetry.NewHistogram(mp.Meter("test"), telemetry.HistogramOpts{
		Name:       "gateway_call_seconds",
		Unit:       "s",
		Boundaries: telemetry.GatewayDurationBuckets,
	})
	require.NoError(t, err)
	h.RecordDuration(ctx, 300*time.Millisecond, attribute.String("rail", "MOBILE_MONEY"))
	h.Record(ctx, 12)

	hist, ok := collect(t, reader)["gateway_call_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
		assert.Equal(t, telemetry.GatewayDurationBuckets, dp.Bounds)
	}
	assert.Equal(t, uint64(2), count)
}

func TestGauge(t *testing.T) {
	mp, reader := manualMeter(t)
	ctx := context.Background()

	g, err := telemetry.NewGauge(mp.Meter("test"), "open_exceptions", "open", "{exceptions}")
	require.NoError(t, err)
	g.Record(ctx, 7)
	g.Record(ctx, 3)

	gauge, ok := collect(t, reader)["open_exceptions"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(3), gauge.DataPoints[0].Value)
}

func TestAttributeKeys(t *testing.T) {
	assert.Equal(t, "owner_id", string(telemetry.AttrOwnerID))
	assert.Equal(t, "http.route", string(telemetry.AttrHTTPRoute))
	assert.Equal(t, "db.operation", string(telemetry.AttrDBOperation))
	assert.Equal(t, "rail", string(telemetry.AttrRail))
	assert.Equal(t, "exception_kind", string(telemetry.AttrExceptionKind))
}
