// Package httpapi is the HTTP request façade: route table, middleware, and
// handlers translating spec.md §6's external interface onto the
// Translation Service, mode cache, and stats collaborators.
package httpapi

import (
	"net/http"
	"time"

	"github.com/apertium/apertium-apy/internal/config"
	"github.com/apertium/apertium-apy/internal/http/middleware"
	"github.com/apertium/apertium-apy/internal/modes"
	"github.com/apertium/apertium-apy/internal/pool"
	"github.com/apertium/apertium-apy/internal/stats"
	"github.com/apertium/apertium-apy/internal/translate"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server is the shared collaborator every handler closes over: it replaces
// the class-level mutable state a dynamic-dispatch port would otherwise
// carry (spec.md §9's "global mutable state becomes a Server record").
type Server struct {
	log   *zap.Logger
	cfg   *config.Config
	cache *modes.Cache
	inv   *modes.Inventory
	pool  *pool.PairPool
	svc   *translate.Service
	stats *stats.Stats
}

// New constructs a Server. inv carries the analyzer/generator/tagger
// listings Discover produced alongside the pairs already seeded into cache.
func New(log *zap.Logger, cfg *config.Config, cache *modes.Cache, inv *modes.Inventory, p *pool.PairPool, svc *translate.Service, st *stats.Stats) *Server {
	return &Server{log: log.Named("httpapi"), cfg: cfg, cache: cache, inv: inv, pool: p, svc: svc, stats: st}
}

// Router builds the gin.Engine with every route and middleware wired.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	_ = r.SetTrustedProxies(nil)

	r.Use(gin.Recovery())
	r.Use(secure.New(secure.Config{
		SSLRedirect:          s.cfg.SSLCert != "",
		STSSeconds:           31536000,
		STSIncludeSubdomains: true,
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-CSRF-Token", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestID())
	r.Use(zapLogger(s.log))
	r.Use(middleware.CapConcurrentRequests(512))

	store := cookie.NewStore(csrfSessionSecret())
	r.Use(sessions.Sessions("apy_session", store))
	r.Use(middleware.IssueCSRFToken)

	// /translateDoc and /translatePage do meaningfully more work than
	// acquiring one pooled pipe (full-body buffering, a remote fetch), so
	// they get their own tighter concurrency cap on top of the global one.
	heavyOp := middleware.CapConcurrentRequests(16)

	r.GET("/list", s.handleList)
	r.GET("/listPairs", s.handleList)
	r.GET("/stats", s.handleStats)
	r.GET("/translate", s.handleTranslate)
	r.POST("/translateDoc", heavyOp, s.handleTranslateDoc)
	r.GET("/translatePage", heavyOp, s.handleTranslatePage)
	r.GET("/translateRaw", s.handleTranslateRaw)
	r.POST("/suggest", middleware.ValidateSessionCSRF, s.handleSuggest)
	r.GET("/pipedebug", s.handlePipeDebug)

	for _, route := range []string{"/analyze", "/analyse", "/generate", "/perWord", "/calcCoverage", "/identifyLang", "/listLanguageNames", "/getLocale"} {
		r.GET(route, s.handleOutOfCoreStub)
	}

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, http.StatusNotFound, "route not found", "no handler is registered for this path")
	})

	return r
}

// csrfSessionSecret is a process-lifetime secret; sessions never need to
// survive a restart since CSRF tokens are minted and consumed within a
// single client interaction.
func csrfSessionSecret() []byte {
	return []byte(time.Now().Format(time.RFC3339Nano))
}

// zapLogger is the Zap-backed access-log middleware, ported from the
// teacher's cmd/zmux-server/main.go ZapLogger function.
func zapLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", latency),
			zap.String("request_id", middleware.GetRequestID(c)),
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
