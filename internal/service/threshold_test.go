package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

// stubThresholds returns a service whose DuckDB quantile query is replaced.
func stubThresholds(t *testing.T, breaks []float64, err error) *ThresholdService {
	t.Helper()
	dir := t.TempDir()
	writeSource(t, dir, "regions.geojson", regionsGeoJSON)

	conn, openErr := sql.Open("duckdb", "")
	require.NoError(t, openErr)
	t.Cleanup(func() { conn.Close() })

	s := NewThresholdService(NewSourceService(dir), conn)
	s.quantiles = func(context.Context, *sql.DB, string, string, int) ([]float64, error) {
		return breaks, err
	}
	return s
}

func TestThresholdService_SuggestUsesDB(t *testing.T) {
	logs := observeLogs(t)
	s := stubThresholds(t, []float64{10, 10, 40}, nil)

	got, err := s.Suggest(context.Background(), "regions.geojson", "density", MethodQuantile, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 40}, got)
	assert.Zero(t, logs.Len())
}

func TestThresholdService_EmptyDBResultFallsBack(t *testing.T) {
	logs := observeLogs(t)
	s := stubThresholds(t, []float64{-1, 0}, nil)

	got, err := s.Suggest(context.Background(), "regions.geojson", "density", MethodQuantile, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{82.5, 500}, got)

	assert.Zero(t, logs.FilterMessage("duckdb quantiles failed, computing in process").Len())
	require.Equal(t, 1, logs.FilterMessage("duckdb quantiles empty, computing in process").Len())
}

func TestThresholdService_DBErrorFallsBack(t *testing.T) {
	logs := observeLogs(t)
	s := stubThresholds(t, nil, errors.New("no spatial"))

	got, err := s.Suggest(context.Background(), "regions.geojson", "density", MethodQuantile, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{82.5, 500}, got)

	failed := logs.FilterMessage("duckdb quantiles failed, computing in process").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "no spatial", failed[0].ContextMap()["error"])
}
