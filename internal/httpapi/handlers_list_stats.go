package httpapi

import (
	"net/http"

	"github.com/apertium/apertium-apy/internal/modes"
	"github.com/gin-gonic/gin"
)

// pairListing is one entry of /list?q=pairs' responseData.
type pairListing struct {
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

// modeListing is one entry of /list?q=analyzers|generators|taggers.
type modeListing struct {
	Lang string `json:"lang"`
	Mode string `json:"mode"`
}

// handleList serves /list and /listPairs. q selects which inventory the
// caller wants; spec.md §6 accepts a couple of British/American spelling
// variants as synonyms.
func (s *Server) handleList(c *gin.Context) {
	q := c.Query("q")

	switch q {
	case "pairs":
		pairs := s.cache.Pairs()
		out := make([]pairListing, 0, len(pairs))
		for _, p := range pairs {
			out = append(out, pairListing{SourceLanguage: p.Src, TargetLanguage: p.Tgt})
		}
		writeOK(c, out)
	case "analyzers", "analysers":
		writeOK(c, modeListings(s.inv.Analyzers))
	case "generators":
		writeOK(c, modeListings(s.inv.Generators))
	case "taggers", "disambiguators":
		writeOK(c, modeListings(s.inv.Taggers))
	default:
		writeError(c, http.StatusBadRequest, http.StatusBadRequest, "invalid q parameter",
			`q must be one of: pairs, analyzers, generators, taggers, analysers, disambiguators`)
	}
}

func modeListings(entries []modes.ModeEntry) []modeListing {
	out := make([]modeListing, 0, len(entries))
	for _, e := range entries {
		out = append(out, modeListing{Lang: e.Lang, Mode: e.ModeName})
	}
	return out
}

// statsResponse is /stats' responseData shape (spec.md §4.7).
type statsResponse struct {
	Uptime        float64          `json:"uptime"`
	UseCount      map[string]int64 `json:"useCount"`
	RunningPipes  map[string]int   `json:"runningPipes"`
	HoldingPipes  int              `json:"holdingPipes"`
	Requests      int              `json:"requests"`
	TotalChars    int64            `json:"totalChars"`
	CharsPerSec   float64          `json:"charsPerSec"`
	OldestAgeSecs float64          `json:"oldestAgeSecs"`
}

func (s *Server) handleStats(c *gin.Context) {
	n := queryInt(c, "requests", 1000)

	useCounts := s.stats.UseCounts()
	useCount := make(map[string]int64, len(useCounts))
	runningPipes := make(map[string]int, len(useCounts))
	for pair, count := range useCounts {
		useCount[pair.String()] = count
		runningPipes[pair.String()] = s.pool.RunningPipes(pair)
	}

	agg := s.stats.PeriodAggregate(n)

	writeOK(c, statsResponse{
		Uptime:        s.stats.Uptime().Seconds(),
		UseCount:      useCount,
		RunningPipes:  runningPipes,
		HoldingPipes:  s.pool.HoldingCount(),
		Requests:      agg.Requests,
		TotalChars:    agg.TotalChars,
		CharsPerSec:   agg.CharsPerSec,
		OldestAgeSecs: agg.OldestAgeSecs,
	})
}
