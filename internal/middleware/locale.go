package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// LocaleKey carries the resolved response language through the request
// context. AuthJWT may overwrite it from the token's locale claim since the
// middleware runs later in the chain.
const LocaleKey contextKey = "locale"

const defaultLocale = "en"

// Locale resolves the language generated content should be written in.
// Precedence: X-Locale header, then Accept-Language, then English.
func Locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := strings.TrimSpace(r.Header.Get("X-Locale"))
		if locale == "" {
			locale = localeFromAcceptLanguage(r.Header.Get("Accept-Language"))
		}
		if locale == "" {
			locale = defaultLocale
		}
		ctx := context.WithValue(r.Context(), LocaleKey, locale)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func localeFromAcceptLanguage(header string) string {
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	base, conf := tags[0].Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok && v != "" {
		return v
	}
	return defaultLocale
}
