package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// envelope is the standard JSON response shape for every route in
// spec.md §6: {responseData, responseDetails, responseStatus}.
type envelope struct {
	ResponseData    any `json:"responseData"`
	ResponseDetails any `json:"responseDetails"`
	ResponseStatus  int `json:"responseStatus"`
}

// errorBody is the standard error shape: {status, code, message, explanation}.
type errorBody struct {
	Status      string `json:"status"`
	Code        int    `json:"code"`
	Message     string `json:"message"`
	Explanation string `json:"explanation"`
}

// writeOK emits a 200 envelope, honoring JSONP via the `callback` query
// parameter (spec.md §6).
func writeOK(c *gin.Context, data any) {
	writeEnvelope(c, http.StatusOK, data, nil)
}

func writeEnvelope(c *gin.Context, status int, data, details any) {
	body := envelope{ResponseData: data, ResponseDetails: details, ResponseStatus: status}

	if cb := c.Query("callback"); cb != "" {
		writeJSONP(c, status, cb, body)
		return
	}
	c.JSON(status, body)
}

// writeError emits the standard error envelope and maps it onto the HTTP
// status spec.md §7 assigns to each error kind.
func writeError(c *gin.Context, status int, code int, message, explanation string) {
	body := errorBody{Status: "error", Code: code, Message: message, Explanation: explanation}

	if cb := c.Query("callback"); cb != "" {
		writeJSONP(c, status, cb, body)
		return
	}
	c.JSON(status, body)
}

// writeJSONP wraps body as callback(<json>) per spec.md §6, served as
// application/javascript regardless of the wrapped payload's own status.
func writeJSONP(c *gin.Context, status int, callback string, body any) {
	c.Status(status)
	c.Header("Content-Type", "application/javascript; charset=utf-8")
	buf, err := json.Marshal(body)
	if err != nil {
		c.String(http.StatusInternalServerError, "")
		return
	}
	fmt.Fprintf(c.Writer, "%s(%s)", callback, buf)
}
