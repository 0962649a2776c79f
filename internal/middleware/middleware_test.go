package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/auth"
	"github.com/justsurfingit/InternConnect/internal/logging"
	"github.com/justsurfingit/InternConnect/internal/models"
	"github.com/justsurfingit/InternConnect/internal/ratelimit"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logging.Setup("error")
	os.Exit(m.Run())
}

func issue(t *testing.T, tokens *auth.TokenIssuer, id string, role models.Role) string {
	t.Helper()
	token, _, err := tokens.Issue(models.User{Base: models.Base{ID: id}, Email: id + "@example.com", Role: role})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	r := gin.New()
	r.GET("/me", Authenticate(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUserID(c), "role": CurrentRole(c)})
	})

	student := issue(t, tokens, "u1", models.RoleStudent)
	cases := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+student) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: student}) }, http.StatusOK},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+student) }, http.StatusUnauthorized},
		{"other secret", func(r *http.Request) {
			other := auth.NewTokenIssuer("different", time.Hour)
			r.Header.Set("Authorization", "Bearer "+issue(t, other, "u1", models.RoleStudent))
		}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Errorf("status = %d, want %d (%s)", w.Code, tc.status, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	r := gin.New()
	r.GET("/admin-only", Authenticate(tokens), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for role, want := range map[models.Role]int{
		models.RoleAdmin:    http.StatusNoContent,
		models.RoleStudent:  http.StatusForbidden,
		models.RoleEmployer: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, tokens, "u-"+string(role), role))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("%s: status = %d, want %d", role, w.Code, want)
		}
	}
}

func TestGuardPages(t *testing.T) {
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	r := gin.New()
	r.Use(GuardPages(tokens))
	ok := func(c *gin.Context) { c.String(http.StatusOK, "page") }
	r.GET("/", ok)
	r.GET("/students-guide", ok)
	r.GET("/student/dashboard", ok)
	r.GET("/employer/jobs", ok)
	r.GET("/admin", ok)

	student := issue(t, tokens, "s1", models.RoleStudent)
	cases := []struct {
		path     string
		token    string
		status   int
		location string
	}{
		{"/", "", http.StatusOK, ""},
		{"/students-guide", "", http.StatusOK, ""},
		{"/student/dashboard", "", http.StatusFound, "/login?next=%2Fstudent%2Fdashboard"},
		{"/student/dashboard", "broken", http.StatusFound, "/login?next=%2Fstudent%2Fdashboard"},
		{"/student/dashboard", student, http.StatusOK, ""},
		{"/employer/jobs", student, http.StatusFound, "/forbidden"},
		{"/admin", student, http.StatusFound, "/forbidden"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.token != "" {
			req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: tc.token})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Errorf("%s: status = %d, want %d", tc.path, w.Code, tc.status)
		}
		if got := w.Header().Get("Location"); got != tc.location {
			t.Errorf("%s: location = %q, want %q", tc.path, got, tc.location)
		}
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(ratelimit.NewMemory(), "login", 2, time.Minute, ByClientIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	for i := 0; i < 2; i++ {
		if w := send("10.0.0.1:1234"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, w.Code)
		}
	}
	w := send("10.0.0.1:1234")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
	if w := send("10.0.0.2:1234"); w.Code != http.StatusOK {
		t.Errorf("other client limited: %d", w.Code)
	}
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string, int, time.Duration) bool { return false }

func TestRateLimit_EmptyKeyPassesThrough(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimit(denyAll{}, "x", 1, time.Minute, ByUser), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("missing generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc" {
		t.Errorf("request id = %q, want abc", got)
	}
}
