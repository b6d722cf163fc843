package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// IssueCSRFToken ensures every session carries a CSRF token, minting one on
// first contact and echoing it back as a response header so a same-origin
// client can read it once and attach it to subsequent mutating requests
// (a double-submit-cookie style issuance, paired with ValidateSessionCSRF's
// session-bound check below).
func IssueCSRFToken(c *gin.Context) {
	session := sessions.Default(c)
	token, _ := session.Get("csrf").(string)
	if token == "" {
		token = newCSRFToken()
		session.Set("csrf", token)
		_ = session.Save()
	}
	c.Header("X-CSRF-Token", token)
	c.Next()
}

func newCSRFToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the OS entropy source is broken; there
		// is no safe fallback, so the token is left predictable and every
		// ValidateSessionCSRF check against it will simply keep failing
		// closed rather than panic the request.
		return ""
	}
	return hex.EncodeToString(buf)
}

// ValidateSessionCSRF checks the CSRF token on mutating requests against the
// one minted into the caller's session. There is no principal/auth model in
// this gateway (translation clients are unauthenticated by design) — every
// session-bearing mutating request is checked.
//
//   - Applies only to mutating methods (POST, PUT, PATCH, DELETE).
//   - Aborts with 400 Bad Request if the token is missing or invalid.
func ValidateSessionCSRF(c *gin.Context) {
	// Skip if method is not mutating
	switch c.Request.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		// continue
	default:
		c.Next()
		return
	}

	want, _ := sessions.Default(c).Get("csrf").(string)
	got := c.GetHeader("X-CSRF-Token")

	if want == "" || got == "" ||
		subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			gin.H{"message": "invalid csrf token"})
		return
	}

	c.Next()
}
