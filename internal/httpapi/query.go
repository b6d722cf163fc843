package httpapi

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// queryInt parses an integer query parameter, falling back to def on
// absence or malformed input.
func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// queryBoolish parses spec.md §6's loose truthy query convention
// (markUnknown ∈ {yes,true,1,…}) — any of a small set of case-insensitive
// affirmative tokens.
func queryBoolish(c *gin.Context, key string) bool {
	switch strings.ToLower(c.Query(key)) {
	case "yes", "true", "1", "y", "on":
		return true
	default:
		return false
	}
}
