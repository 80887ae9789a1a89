package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securityRouter(opt SecurityOptions, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(pre...)
	r.Use(SecurityHeaders(opt))
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/api/v1/roadmaps", ok)
	r.GET("/api/v1/credits", ok)
	r.GET("/swagger/*any", ok)
	return r
}

func serve(r http.Handler, req *http.Request) http.Header {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	h := serve(securityRouter(SecurityOptions{}), httptest.NewRequest(http.MethodGet, "/api/v1/roadmaps", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "no-referrer",
		"Content-Security-Policy": apiCSP,
	}
	for k, v := range want {
		if h.Get(k) != v {
			t.Fatalf("%s = %q; want %q", k, h.Get(k), v)
		}
	}
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Strict-Transport-Security", "Access-Control-Expose-Headers"} {
		if h.Get(k) != "" {
			t.Fatalf("unexpected %s: %q", k, h.Get(k))
		}
	}
}

func TestSecurityHeaders_DocsPrefixSkipsCSP(t *testing.T) {
	r := securityRouter(SecurityOptions{DocsPrefix: "/swagger"})

	if h := serve(r, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)); h.Get("Content-Security-Policy") != "" {
		t.Fatalf("docs should not get the API CSP")
	}
	if h := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/roadmaps", nil)); h.Get("Content-Security-Policy") != apiCSP {
		t.Fatalf("API route lost its CSP")
	}
}

func TestSecurityHeaders_NoStore(t *testing.T) {
	r := securityRouter(SecurityOptions{NoStorePaths: []string{"/api/v1/credits", " "}})

	h := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/credits", nil))
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("listed route not marked no-store: %#v", h)
	}
	if h := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/roadmaps", nil)); h.Get("Cache-Control") != "" {
		t.Fatalf("unlisted route marked no-store")
	}

	all := securityRouter(SecurityOptions{NoStore: true})
	if h := serve(all, httptest.NewRequest(http.MethodGet, "/api/v1/roadmaps", nil)); h.Get("Cache-Control") != "no-store" {
		t.Fatalf("NoStore should apply everywhere")
	}
}

func TestSecurityHeaders_Policy(t *testing.T) {
	h := serve(securityRouter(SecurityOptions{EnablePolicy: true}), httptest.NewRequest(http.MethodGet, "/api/v1/roadmaps", nil))
	if h.Get("Permissions-Policy") != featurePolicy || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %#v", h)
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	cases := []struct {
		name   string
		maxAge time.Duration
		tls    bool
		proto  string
		want   string
	}{
		{"plain http", time.Hour, false, "", ""},
		{"tls", time.Hour, true, "", "max-age=3600; includeSubDomains; preload"},
		{"proxy https", 2 * time.Hour, false, "HTTPS", "max-age=7200; includeSubDomains; preload"},
		{"default max age", 0, true, "", "max-age=15552000; includeSubDomains; preload"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := securityRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: tc.maxAge})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/roadmaps", nil)
			if tc.tls {
				req.TLS = &tls.ConnectionState{}
			}
			if tc.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tc.proto)
			}
			if got := serve(r, req).Get("Strict-Transport-Security"); got != tc.want {
				t.Fatalf("HSTS = %q; want %q", got, tc.want)
			}
		})
	}

	off := securityRouter(SecurityOptions{HSTSMaxAge: time.Hour})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/roadmaps", nil)
	req.TLS = &tls.ConnectionState{}
	if serve(off, req).Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS sent while disabled")
	}
}

func TestSecurityHeaders_ExposesRequestID(t *testing.T) {
	setRID := func(c *gin.Context) { c.Header(requestIDHeader, "rid-1"); c.Next() }

	h := serve(securityRouter(SecurityOptions{}, setRID), httptest.NewRequest(http.MethodGet, "/api/v1/roadmaps", nil))
	if got := h.Get("Access-Control-Expose-Headers"); got != requestIDHeader {
		t.Fatalf("expose = %q", got)
	}

	withExisting := func(c *gin.Context) { c.Header("Access-Control-Expose-Headers", "ETag"); c.Next() }
	h = serve(securityRouter(SecurityOptions{}, setRID, withExisting), httptest.NewRequest(http.MethodGet, "/api/v1/roadmaps", nil))
	if got := h.Get("Access-Control-Expose-Headers"); got != "ETag, X-Request-ID" {
		t.Fatalf("expose = %q", got)
	}

	already := func(c *gin.Context) { c.Header("Access-Control-Expose-Headers", "x-request-id, ETag"); c.Next() }
	h = serve(securityRouter(SecurityOptions{}, setRID, already), httptest.NewRequest(http.MethodGet, "/api/v1/roadmaps", nil))
	if got := h.Get("Access-Control-Expose-Headers"); got != "x-request-id, ETag" {
		t.Fatalf("expose duplicated: %q", got)
	}
}

func TestIsHTTPS(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTTPS(r) {
		t.Fatal("plain request reported as https")
	}
	r.Header.Set("X-Forwarded-Proto", "http")
	if isHTTPS(r) {
		t.Fatal("forwarded http reported as https")
	}
	r.TLS = &tls.ConnectionState{}
	if !isHTTPS(r) {
		t.Fatal("tls request not reported as https")
	}
}
