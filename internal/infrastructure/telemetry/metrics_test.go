package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

// newTestMeter returns a meter backed by a manual reader.
func newTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider, reader
}

// collect gathers the named metric from the reader, failing the test if absent.
func collect(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %s not collected", name)
	return metricdata.Metrics{}
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	mp, err := NewMeterProvider(ctx, MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "movr-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestCounter_Add(t *testing.T) {
	provider, reader := newTestMeter(t)
	c, err := NewCounter(provider.Meter("test"), "movr_test_total", "test counter", "{events}")
	require.NoError(t, err)

	ctx := context.Background()
	c.Inc(ctx, AttrOperation.String("checkout"))
	c.Add(ctx, 4, AttrOperation.String("checkout"))

	sum, ok := collect(t, reader, "movr_test_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(5), sum.DataPoints[0].Value)
	assert.True(t, sum.IsMonotonic)
}

func TestHistogram_CustomBoundaries(t *testing.T) {
	provider, reader := newTestMeter(t)
	h, err := NewHistogram(provider.Meter("test"), HistogramOpts{
		Name:        "movr_test_km",
		Description: "test histogram",
		Unit:        "km",
		Boundaries:  TripDistanceBuckets,
	})
	require.NoError(t, err)

	h.Record(context.Background(), 3.2)
	h.Record(context.Background(), 0.05)

	hist, ok := collect(t, reader, "movr_test_km").Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(2), dp.Count)
	assert.Equal(t, TripDistanceBuckets, dp.Bounds)
	assert.InDelta(t, 3.25, dp.Sum, 1e-9)
}

func TestGauges_Record(t *testing.T) {
	provider, reader := newTestMeter(t)
	meter := provider.Meter("test")

	g, err := NewGauge(meter, "movr_test_gauge", "int gauge", "{vehicles}")
	require.NoError(t, err)
	fg, err := NewFloatGauge(meter, "movr_test_float_gauge", "float gauge", "%")
	require.NoError(t, err)

	ctx := context.Background()
	g.Record(ctx, 3)
	g.Record(ctx, 7)
	fg.Record(ctx, 42.5)

	ig, ok := collect(t, reader, "movr_test_gauge").Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Equal(t, int64(7), ig.DataPoints[0].Value)

	ff, ok := collect(t, reader, "movr_test_float_gauge").Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	assert.Equal(t, 42.5, ff.DataPoints[0].Value)
}

func TestBuckets_Ascending(t *testing.T) {
	for _, buckets := range [][]float64{TripDistanceBuckets, TripDurationBuckets, HTTPDurationBuckets} {
		for i := 1; i < len(buckets); i++ {
			assert.Less(t, buckets[i-1], buckets[i])
		}
	}
}
