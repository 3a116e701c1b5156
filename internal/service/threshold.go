package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/joeblew999/plat-heat/internal/db"
)

// ThresholdService suggests heatmap thresholds from source data.
type ThresholdService struct {
	sources   *SourceService
	conn      *sql.DB
	quantiles func(ctx context.Context, conn *sql.DB, path, property string, n int) ([]float64, error)
}

// NewThresholdService creates a threshold service. conn may be nil, in which
// case all breaks are computed in process.
func NewThresholdService(sources *SourceService, conn *sql.DB) *ThresholdService {
	return &ThresholdService{sources: sources, conn: conn, quantiles: db.Quantiles}
}

// Suggest returns up to n strictly ascending thresholds for property.
func (s *ThresholdService) Suggest(ctx context.Context, source, property, method string, n int) ([]float64, error) {
	if s.conn != nil && method == MethodQuantile {
		path, err := s.sources.Path(source)
		if err != nil {
			return nil, err
		}
		breaks, err := s.quantiles(ctx, s.conn, path, property, n)
		usable := Normalize(breaks)
		switch {
		case err != nil:
			zap.L().Warn("duckdb quantiles failed, computing in process",
				zap.String("source", source),
				zap.String("property", property),
				zap.Error(err),
			)
		case len(usable) == 0:
			zap.L().Info("duckdb quantiles empty, computing in process",
				zap.String("source", source),
				zap.String("property", property),
			)
		default:
			return usable, nil
		}
	}

	values, err := s.sources.Values(source, property)
	if err != nil {
		return nil, err
	}
	return Breaks(method, values, n)
}
