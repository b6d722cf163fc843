package httpapi

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/apertium/apertium-apy/internal/translate"
	"github.com/gin-gonic/gin"
)

const maxDocBytes = 32 << 20 // 32 MB, per spec.md §6/§7

var allowedDocMIMEs = map[string]bool{
	"text/plain":      true,
	"text/html":       true,
	"application/rtf": true,
}

// translatedTextResponse is /translate's responseData shape.
type translatedTextResponse struct {
	TranslatedText string `json:"translatedText"`
}

func (s *Server) optionsFromQuery(c *gin.Context) translate.Options {
	format := c.Query("format")
	if format == "" {
		format = c.Query("deformat")
	}
	return translate.Options{
		Format:      format,
		MarkUnknown: queryBoolish(c, "markUnknown"),
		Nosplit:     queryBoolish(c, "nosplit"),
		TrackUnseen: true,
	}
}

// handleTranslate serves GET /translate.
func (s *Server) handleTranslate(c *gin.Context) {
	pair, err := parseLangPair(c.Query("langpair"))
	if err != nil {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "invalid langpair", err.Error())
		return
	}
	if !s.cache.Known(pair) {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "unknown pair", pair.String()+" is not an installed pair")
		return
	}

	q := c.Query("q")
	out, err := s.svc.Translate(c.Request.Context(), pair, q, s.optionsFromQuery(c))
	if err != nil {
		writeTranslateError(c, s.log, err)
		return
	}

	writeOK(c, translatedTextResponse{TranslatedText: out})
}

// handleTranslateRaw serves GET /translateRaw: same inputs as /translate,
// but the response body is the raw translated text (still content-type
// JSON, per spec.md §6 — it is a bare JSON string, not an envelope).
func (s *Server) handleTranslateRaw(c *gin.Context) {
	pair, err := parseLangPair(c.Query("langpair"))
	if err != nil {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "invalid langpair", err.Error())
		return
	}
	if !s.cache.Known(pair) {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "unknown pair", pair.String()+" is not an installed pair")
		return
	}

	out, err := s.svc.Translate(c.Request.Context(), pair, c.Query("q"), s.optionsFromQuery(c))
	if err != nil {
		writeTranslateError(c, s.log, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// handleTranslateDoc serves POST /translateDoc: a multipart file upload
// capped at maxDocBytes, MIME-sniffed against a fixed allow-list.
func (s *Server) handleTranslateDoc(c *gin.Context) {
	pair, err := parseLangPair(c.PostForm("langpair"))
	if err != nil {
		pair, err = parseLangPair(c.Query("langpair"))
	}
	if err != nil {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "invalid langpair", err.Error())
		return
	}
	if !s.cache.Known(pair) {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "unknown pair", pair.String()+" is not an installed pair")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDocBytes)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "missing file", err.Error())
		return
	}
	if fileHeader.Size > maxDocBytes {
		writeError(c, http.StatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge, "document too large", "documents are capped at 32 MB")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "unreadable file", err.Error())
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxDocBytes+1))
	if err != nil {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "unreadable file", err.Error())
		return
	}
	if len(raw) > maxDocBytes {
		writeError(c, http.StatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge, "document too large", "documents are capped at 32 MB")
		return
	}

	sniffed := mime.TypeByExtension(filepath.Ext(fileHeader.Filename))
	if sniffed == "" {
		sniffed = http.DetectContentType(raw)
	}
	mediaType, _, _ := mime.ParseMediaType(sniffed)
	if !allowedDocMIMEs[mediaType] {
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "unsupported MIME type", mediaType+" is not an allowed document type")
		return
	}

	opts := s.optionsFromQuery(c)
	if opts.Format == "" && mediaType == "text/html" {
		opts.Format = "html"
	}

	out, err := s.svc.Translate(c.Request.Context(), pair, string(raw), opts)
	if err != nil {
		writeTranslateError(c, s.log, err)
		return
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(out))
}
