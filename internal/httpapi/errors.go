package httpapi

import (
	"errors"
	"net/http"

	"github.com/apertium/apertium-apy/internal/modes"
	"github.com/apertium/apertium-apy/internal/pipeline"
	"github.com/apertium/apertium-apy/internal/translate"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeTranslateError maps a Translate error onto the HTTP error kinds of
// spec.md §7 and logs at the level that section prescribes.
func writeTranslateError(c *gin.Context, log *zap.Logger, err error) {
	var notFound *modes.NotFoundError
	var deadline *pipeline.DeadlineExceeded
	var broken *pipeline.PipeBroken
	var spawn *pipeline.SpawnError
	var decode *pipeline.DecodeError

	switch {
	case errors.As(err, &notFound):
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "unknown pair", err.Error())
	case translate.DeadlineExceeded(err), errors.As(err, &deadline):
		log.Warn("translation deadline exceeded", zap.Error(err))
		writeError(c, http.StatusRequestTimeout, http.StatusRequestTimeout, "translation timed out", "the translation did not complete within the configured time budget")
	case errors.As(err, &broken):
		log.Error("pipe broken", zap.Error(err))
		writeError(c, http.StatusInternalServerError, http.StatusInternalServerError, "translation pipeline failed", err.Error())
	case errors.As(err, &spawn):
		log.Error("pipeline spawn failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, http.StatusInternalServerError, "translation pipeline failed to start", err.Error())
	case errors.As(err, &decode):
		log.Error("pipeline output decode failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, http.StatusInternalServerError, "translation produced invalid output", err.Error())
	default:
		log.Error("translate failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, http.StatusInternalServerError, "translation failed", err.Error())
	}
}
