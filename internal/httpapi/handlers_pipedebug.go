package httpapi

import (
	"bytes"
	"net/http"

	"github.com/apertium/apertium-apy/internal/translate"
	"github.com/apertium/apertium-apy/pkg/fmtt"
	"github.com/davecgh/go-spew/spew"
	"github.com/gin-gonic/gin"
)

// handlePipeDebug dumps the live state of one pair's pool entry for
// diagnostics: a go-spew dump of the pool's bookkeeping. If the probe
// translate below fails, the response only notes it; the full unwrapped
// error chain is printed to the server's stdout.
func (s *Server) handlePipeDebug(c *gin.Context) {
	pair, err := parseLangPair(c.Query("langpair"))
	if err != nil {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "invalid langpair", err.Error())
		return
	}

	var buf bytes.Buffer
	cfg := spew.ConfigState{Indent: "  ", DisableMethods: true}
	cfg.Fdump(&buf, struct {
		Pair         string
		RunningPipes int
		HoldingPipes int
		UseCount     int64
	}{
		Pair:         pair.String(),
		RunningPipes: s.pool.RunningPipes(pair),
		HoldingPipes: s.pool.HoldingCount(),
		UseCount:     s.stats.UseCount(pair),
	})

	if _, probeErr := s.svc.Translate(c.Request.Context(), pair, "", translate.Options{}); probeErr != nil {
		buf.WriteString("\nprobe translate failed; full error chain printed to server stdout\n")
		fmtt.PrintErrChain(probeErr)
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}
