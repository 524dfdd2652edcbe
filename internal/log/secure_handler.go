package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// sensitiveKeys are attribute keys (lowercased) whose values are always masked.
var sensitiveKeys = map[string]bool{
	// HTTP headers
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"cookies":             true,

	// Account
	"password": true,
	"passwd":   true,
	"username": true,
	"email":    true,
	"account":  true,

	// Google session cookies
	"sid":     true,
	"hsid":    true,
	"ssid":    true,
	"apisid":  true,
	"sapisid": true,
	"gaps":    true,
	"lsid":    true,
	"nid":     true,
	"galx":    true,

	// Raw positions
	"latitude":  true,
	"longitude": true,
	"lat":       true,
	"lon":       true,
	"lng":       true,
	"latlng":    true,

	// API keys
	"key":     true,
	"api_key": true,
	"apikey":  true,
}

// sensitiveKeywords mask any key containing them.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "cookie", "credential", "api_key",
}

// sensitivePatterns mask string values regardless of their key.
var sensitivePatterns = []*regexp.Regexp{
	// Cookie header or Set-Cookie value carrying a Google session cookie.
	regexp.MustCompile(`(?:^|;\s*)(?:__Secure-[\w-]+|__Host-[\w-]+|SID|HSID|SSID|APISID|SAPISID|GAPS|LSID|NID)=`),

	// E-mail address.
	regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[A-Za-z]{2,}$`),

	// Google API key.
	regexp.MustCompile(`^AIza[0-9A-Za-z_-]{35}$`),

	// Bearer tokens.
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Long opaque tokens.
	regexp.MustCompile(`^[A-Za-z0-9_-]{40,}$`),
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// SecureHandler wraps an slog.Handler and masks sensitive attributes before
// the wrapped handler sees them.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs masks attrs and returns a handler carrying them.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup returns a handler that nests attributes under name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr masks one attribute, descending into groups.
func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if isSensitiveValue(a.Value.String()) {
			return slog.String(a.Key, MaskValue)
		}
	case slog.KindAny:
		// Header slices such as resp.Header.Values("Set-Cookie").
		if values, ok := a.Value.Any().([]string); ok {
			for _, v := range values {
				if isSensitiveValue(v) {
					return slog.String(a.Key, MaskValue)
				}
			}
		}
	}

	return a
}

// isSensitiveKey reports whether key names a secret.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if sensitiveKeys[lower] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// isSensitiveValue reports whether value looks like a secret.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// NewSecureLogger creates a text logger writing to w with masking.
// verbose selects Debug level; otherwise Warn.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
