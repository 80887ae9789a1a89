// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// SecurityHeaders attaches hardening headers for a JSON API sitting behind a
// reverse proxy. HSTS is opt-in and only sent on HTTPS requests. Responses
// that carry per-user state (credit balances, fresh generations) can be
// marked no-store by route template.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultHSTSMaxAge = 180 * 24 * time.Hour
	apiCSP            = "default-src 'none'; frame-ancestors 'none'"
	featurePolicy     = "geolocation=(), microphone=(), camera=(), payment=()"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS requests. Only
	// enable it when the hop between proxy and app is HTTPS too.
	EnableHSTS bool
	// HSTSMaxAge defaults to 180 days when not positive.
	HSTSMaxAge time.Duration
	// NoStore marks every response as non-cacheable.
	NoStore bool
	// NoStorePaths marks responses of these route templates as
	// non-cacheable, e.g. "/api/v1/credits".
	NoStorePaths []string
	// EnablePolicy adds Permissions-Policy and X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool
	// DocsPrefix exempts a path prefix (the Swagger UI) from the API CSP,
	// which would otherwise block its scripts and styles.
	DocsPrefix string
}

// SecurityHeaders returns the hardening middleware.
//
// Always set: X-Content-Type-Options, X-Frame-Options, Referrer-Policy and,
// outside DocsPrefix, a deny-all Content-Security-Policy. X-Request-ID is
// added to Access-Control-Expose-Headers when present.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = defaultHSTSMaxAge
	}
	hsts := "max-age=" + strconv.FormatInt(int64(maxAge/time.Second), 10) + "; includeSubDomains; preload"

	noStore := make(map[string]struct{}, len(opt.NoStorePaths))
	for _, p := range opt.NoStorePaths {
		if p = strings.TrimSpace(p); p != "" {
			noStore[p] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.DocsPrefix == "" || !strings.HasPrefix(c.Request.URL.Path, opt.DocsPrefix) {
			h.Set("Content-Security-Policy", apiCSP)
		}
		if opt.EnablePolicy {
			h.Set("Permissions-Policy", featurePolicy)
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		_, listed := noStore[c.FullPath()]
		if opt.NoStore || listed {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if h.Get(requestIDHeader) != "" {
			exposeHeader(h, requestIDHeader)
		}

		c.Next()
	}
}

// exposeHeader appends name to Access-Control-Expose-Headers once.
func exposeHeader(h http.Header, name string) {
	const key = "Access-Control-Expose-Headers"
	cur := h.Get(key)
	switch {
	case cur == "":
		h.Set(key, name)
	case !strings.Contains(strings.ToLower(cur), strings.ToLower(name)):
		h.Set(key, cur+", "+name)
	}
}

// isHTTPS reports whether the request arrived over TLS, directly or through a
// proxy that set X-Forwarded-Proto.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
