// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger mounted by the
// router. It never logs bodies. Before anything is written it:
//
//   - masks credential query parameters (apiKey, api_key, plus custom ones),
//     since callers may pass their own model key on the generate endpoint
//   - fully masks sensitive headers (Authorization, Cookie, Set-Cookie, plus custom)
//   - pattern-redacts UUIDs, emails and phone numbers elsewhere
//
// It also attaches a request-scoped zerolog.Logger (request_id, user_id) to
// the Gin context and to the request context, so handlers use LoggerFrom and
// services use zerolog.Ctx with the correlation ID already set.
//
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders:     []string{"X-Api-Key"},
//	    MaskQueryParams: []string{"token"},
//	}))
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxQueryLogLength caps the logged query string.
const maxQueryLogLength = 2048

// RedactOptions extends the built-in masks. Matching is case-insensitive.
type RedactOptions struct {
	// MaskHeaders are replaced with "[REDACTED]" in addition to
	// Authorization, Cookie and Set-Cookie.
	MaskHeaders []string
	// MaskQueryParams have their values replaced with "[REDACTED]" in
	// addition to apiKey and api_key.
	MaskQueryParams []string
}

// UUIDs are redacted before phone numbers; the phone pattern would otherwise
// match their digit groups.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redactor holds the compiled masks for one RedactingLogger.
type redactor struct {
	headers map[string]struct{}
	params  *regexp.Regexp
}

func newRedactor(opts RedactOptions) *redactor {
	headers := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			headers[h] = struct{}{}
		}
	}
	params := []string{"apikey", "api_key"}
	for _, p := range opts.MaskQueryParams {
		if p = strings.TrimSpace(p); p != "" {
			params = append(params, regexp.QuoteMeta(p))
		}
	}
	return &redactor{
		headers: headers,
		params:  regexp.MustCompile(`(?i)(^|&)(` + strings.Join(params, "|") + `)=[^&]*`),
	}
}

// text redacts identifiers that look like PII.
func (r *redactor) text(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// query masks credential parameters, then redacts PII, then truncates.
func (r *redactor) query(raw string) string {
	masked := r.params.ReplaceAllString(raw, "${1}${2}=[REDACTED]")
	return truncate(r.text(masked), maxQueryLogLength)
}

// headerDict renders request headers with masks applied.
func (r *redactor) headerDict(c *gin.Context) *zerolog.Event {
	d := zerolog.Dict()
	for k, vv := range c.Request.Header {
		if _, ok := r.headers[strings.ToLower(k)]; ok {
			d.Str(k, "[REDACTED]")
			continue
		}
		d.Str(k, r.text(strings.Join(vv, ", ")))
	}
	return d
}

// userIDOf mirrors the identity resolution of the handlers without the
// demo-user fallback, so anonymous traffic logs an empty user.
func userIDOf(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s := asString(v); s != "" {
			return s
		}
	}
	return c.GetHeader("X-User-ID")
}

// RedactingLogger returns the access-log middleware. Each request yields one
// "http_request" event at info, warn for 4xx, or error for 5xx or when
// handlers attached gin errors.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	red := newRedactor(opts)

	return func(c *gin.Context) {
		start := time.Now()
		query := red.query(c.Request.URL.RawQuery)
		headers := red.headerDict(c)

		scoped := log.With().
			Str("request_id", requestIDOf(c)).
			Str("user_id", userIDOf(c)).
			Logger()
		c.Set(loggerKey, &scoped)
		c.Request = c.Request.WithContext(scoped.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case len(c.Errors) > 0 || status >= 500:
			ev = scoped.Error()
		case status >= 400:
			ev = scoped.Warn()
		default:
			ev = scoped.Info()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		ev.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", status).
			Int64("bytes_in", c.Request.ContentLength).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Str("remote_ip", c.ClientIP()).
			Bool("replay", IsReplay(c)).
			Dict("headers", headers).
			Msg("http_request")
	}
}
