package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, nil)
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresAddressAndName(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "movr"}, nil)
	assert.ErrorIs(t, err, errProfilerAddress)

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, nil)
	assert.ErrorIs(t, err, errProfilerAppName)
}

func TestProfilerConfig_ProfileTypes(t *testing.T) {
	assert.Empty(t, ProfilerConfig{}.profileTypes())

	types := DefaultProfilerConfig().profileTypes()
	assert.Contains(t, types, pyroscope.ProfileCPU)
	assert.Contains(t, types, pyroscope.ProfileInuseSpace)
	assert.Contains(t, types, pyroscope.ProfileGoroutines)
	assert.NotContains(t, types, pyroscope.ProfileMutexCount)

	all := ProfilerConfig{ProfileCPU: true, ProfileMemory: true, ProfileGoroutines: true, ProfileMutex: true, ProfileBlock: true}
	assert.Len(t, all.profileTypes(), 10)
}

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"route":      "/api/v1/rides/start",
		"method":     "POST",
		"request_id": "abc",
		"vehicle_id": "4b5c",
		"empty":      "",
		"operation":  strings.Repeat("x", 200),
	})

	require.Len(t, pairs, 6)
	assert.Equal(t, []string{"method", "POST", "operation"}, pairs[:3])
	assert.Len(t, pairs[3], MaxLabelValueLength)
	assert.Equal(t, []string{"route", "/api/v1/rides/start"}, pairs[4:])
}

func TestWithProfilingLabels(t *testing.T) {
	t.Run("labels are visible inside fn", func(t *testing.T) {
		var got string
		WithProfilingLabels(context.Background(), map[string]string{"route": "/vehicles"}, func(ctx context.Context) {
			got, _ = pprof.Label(ctx, "route")
		})
		assert.Equal(t, "/vehicles", got)
	})

	t.Run("no labels still runs fn", func(t *testing.T) {
		called := false
		WithProfilingLabels(context.Background(), map[string]string{"request_id": "r"}, func(ctx context.Context) {
			called = true
			_, ok := pprof.Label(ctx, "request_id")
			assert.False(t, ok)
		})
		assert.True(t, called)
	})
}
