package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestContext(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return c
}

func TestQueryInt(t *testing.T) {
	cases := []struct {
		query string
		key   string
		def   int
		want  int
	}{
		{"n=42", "n", 0, 42},
		{"", "n", 7, 7},
		{"n=not-a-number", "n", 7, 7},
	}
	for _, tc := range cases {
		c := newTestContext(tc.query)
		if got := queryInt(c, tc.key, tc.def); got != tc.want {
			t.Errorf("queryInt(%q, %q, %d) = %d, want %d", tc.query, tc.key, tc.def, got, tc.want)
		}
	}
}

func TestQueryBoolish(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"markUnknown=yes", true},
		{"markUnknown=TRUE", true},
		{"markUnknown=1", true},
		{"markUnknown=on", true},
		{"markUnknown=no", false},
		{"", false},
	}
	for _, tc := range cases {
		c := newTestContext(tc.query)
		if got := queryBoolish(c, "markUnknown"); got != tc.want {
			t.Errorf("queryBoolish(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}
