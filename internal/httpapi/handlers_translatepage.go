package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/apertium/apertium-apy/pkg/hostutil"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"
)

const translatePageTimeout = 20 * time.Second

var pageFetchGroup singleflight.Group

// linkAttrRe rewrites href/src attributes that point at the *original*
// page's own host so relative-looking links keep resolving after the page
// is served back translated from this gateway, rather than from the
// source site. A best-effort regex rewrite, not a full HTML parse — the
// teacher's/pack's stack carries no HTML parser dependency to ground a
// DOM-based rewrite on.
var linkAttrRe = regexp.MustCompile(`(?i)(href|src)=(["'])(/[^"']*)(["'])`)

// handleTranslatePage serves GET /translatePage: fetches url (20s timeout),
// rewrites root-relative links to absolute ones against the original host,
// and translates the result as HTML.
func (s *Server) handleTranslatePage(c *gin.Context) {
	pair, err := parseLangPair(c.Query("langpair"))
	if err != nil {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "invalid langpair", err.Error())
		return
	}
	if !s.cache.Known(pair) {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "unknown pair", pair.String()+" is not an installed pair")
		return
	}

	rawURL := c.Query("url")
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "invalid url", "url must be an absolute http(s) URL")
		return
	}
	if err := hostutil.ValidateHost(u.Hostname()); err != nil {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "invalid url host", err.Error())
		return
	}

	// Concurrent requests for the same URL share one fetch.
	body, err, _ := pageFetchGroup.Do(rawURL, func() (any, error) {
		return fetchPage(c.Request.Context(), rawURL)
	})
	if err != nil {
		writeError(c, http.StatusInternalServerError, http.StatusInternalServerError, "page fetch failed", err.Error())
		return
	}

	html := linkAttrRe.ReplaceAllString(string(body.([]byte)), "$1=$2"+u.Scheme+"://"+u.Host+"$3$4")

	opts := s.optionsFromQuery(c)
	opts.Format = "html"

	out, err := s.svc.Translate(c.Request.Context(), pair, html, opts)
	if err != nil {
		writeTranslateError(c, s.log, err)
		return
	}

	writeOK(c, translatedTextResponse{TranslatedText: out})
}

func fetchPage(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, translatePageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(io.LimitReader(resp.Body, maxDocBytes))
}
