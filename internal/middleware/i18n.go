// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/ideamarket-backend/internal/i18n"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", negotiateLanguage(c.Query("lang"), c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// negotiateLanguage picks the first supported language from an explicit
// query value or an Accept-Language header such as "en-US,en;q=0.9,ko;q=0.8".
func negotiateLanguage(explicit, header string) string {
	if lang := normalizeLanguage(explicit); lang != "" && i18n.Supported(lang) {
		return lang
	}

	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		if lang := normalizeLanguage(tag); lang != "" && i18n.Supported(lang) {
			return lang
		}
	}
	return i18n.DefaultLang
}

func normalizeLanguage(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return ""
	}
	// Convert common language codes
	switch {
	case strings.HasPrefix(tag, "ko"):
		return "ko"
	case strings.HasPrefix(tag, "en"):
		return "en"
	}
	return tag
}
