package httpapi

import (
	"net/http"

	"github.com/apertium/apertium-apy/pkg/jsonx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// suggestRequest is the expected body of POST /suggest: a correction
// suggestion for one source-language surface form.
type suggestRequest struct {
	LangPair       string `json:"langpair"`
	Source         string `json:"source"`
	Target         string `json:"target"`
	Context        string `json:"context"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// handleSuggest accepts linguistic correction suggestions. Out of core
// scope per spec.md §6 beyond CSRF-gated acceptance and strict body
// validation: suggestions are logged for manual curation, not persisted to
// a queue (no suggestion-review backend exists in this gateway).
func (s *Server) handleSuggest(c *gin.Context) {
	var req suggestRequest
	if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.LangPair == "" || req.Source == "" {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "missing argument", "langpair and source are required")
		return
	}

	if s.cfg.RecaptchaSecret != "" {
		ok, err := verifyRecaptcha(c.Request.Context(), s.cfg.RecaptchaSecret, req.RecaptchaToken, c.ClientIP())
		if err != nil {
			writeError(c, http.StatusInternalServerError, http.StatusInternalServerError, "recaptcha verification unavailable", err.Error())
			return
		}
		if !ok {
			writeError(c, http.StatusBadRequest, http.StatusBadRequest, "failed ReCAPTCHA", "the reCAPTCHA response could not be verified")
			return
		}
	}

	s.log.Info("suggestion received",
		zap.String("langpair", req.LangPair),
		zap.String("source", req.Source),
		zap.String("target", req.Target),
	)

	writeOK(c, gin.H{"accepted": true})
}
