package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleOutOfCoreStub answers the analyzer/generator/coverage/locale family
// of routes spec.md §6 lists as out of core scope: acknowledged as real
// routes (so callers get a structured response, not a bare 404) but
// reporting that no backing analyzer pipeline is wired up.
func (s *Server) handleOutOfCoreStub(c *gin.Context) {
	writeError(c, http.StatusNotFound, http.StatusNotFound, "not implemented",
		c.FullPath()+" is outside this gateway's core scope (translation pairs only)")
}
