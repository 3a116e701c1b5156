package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-heat/internal/db"
	"github.com/joeblew999/plat-heat/internal/heatmap"
	"github.com/joeblew999/plat-heat/internal/service"
)

// toHumaError maps service errors onto HTTP status codes.
func toHumaError(err error) error {
	switch {
	case eris.Is(err, heatmap.ErrInvalidInput),
		eris.Is(err, service.ErrInvalidSource),
		eris.Is(err, db.ErrInvalidIdentifier):
		return huma.Error422UnprocessableEntity(err.Error())
	case eris.Is(err, service.ErrLayerNotFound),
		eris.Is(err, service.ErrSourceNotFound):
		return huma.Error404NotFound(err.Error())
	case eris.Is(err, service.ErrLayerExists):
		return huma.Error409Conflict(err.Error())
	}
	zap.L().Error("request failed", zap.String("error", eris.ToString(err, true)))
	return huma.Error500InternalServerError("internal error")
}
