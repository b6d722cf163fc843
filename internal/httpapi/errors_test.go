package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apertium/apertium-apy/internal/modes"
	"github.com/apertium/apertium-apy/internal/pipeline"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestWriteTranslateError_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &modes.NotFoundError{Path: "x"}, http.StatusBadRequest},
		{"deadline exceeded", &pipeline.DeadlineExceeded{DebugID: 1}, http.StatusRequestTimeout},
		{"pipe broken", &pipeline.PipeBroken{DebugID: 1, Err: errors.New("boom")}, http.StatusInternalServerError},
		{"spawn error", &pipeline.SpawnError{Program: "p", Err: errors.New("boom")}, http.StatusInternalServerError},
		{"decode error", &pipeline.DecodeError{DebugID: 1}, http.StatusInternalServerError},
		{"unknown error", errors.New("mystery"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			writeTranslateError(c, zap.NewNop(), tc.err)

			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}
