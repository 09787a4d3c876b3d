package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func preflight(r *gin.Engine, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/exam/sessions", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowsLocalDevOriginsByDefault(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	origins := []string{
		"http://localhost:5173",
		"http://127.0.0.1:3000",
	}

	for _, origin := range origins {
		origin := origin
		t.Run(origin, func(t *testing.T) {
			t.Parallel()
			r := gin.New()
			r.Use(CORS())
			r.OPTIONS("/api/exam/sessions", func(c *gin.Context) {
				c.Status(http.StatusNoContent)
			})

			rec := preflight(r, origin)
			if rec.Code != http.StatusNoContent {
				t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusNoContent)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
				t.Fatalf("unexpected allow-origin header: got=%q want=%q", got, origin)
			}
		})
	}
}

func TestCORSConfiguredOrigins(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(CORS(" https://portal.example.com ", ""))
	r.OPTIONS("/api/exam/sessions", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	rec := preflight(r, "https://portal.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://portal.example.com" {
		t.Fatalf("configured origin: got=%q", got)
	}
	rec = preflight(r, "http://localhost:5173")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("dev origin with explicit list: got=%d want=%d", rec.Code, http.StatusForbidden)
	}
}
