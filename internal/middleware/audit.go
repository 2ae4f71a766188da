package middleware

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/mentorloop/reviewhub/internal/services"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const auditBodyLimit = 2000

// AuditLog records write requests (POST/PUT/PATCH/DELETE) to system_logs.
// Multipart bodies are not captured; the import service audits uploads itself.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut &&
			method != http.MethodPatch && method != http.MethodDelete {
			c.Next()
			return
		}

		var bodySnippet string
		if c.Request.Body != nil && strings.HasPrefix(c.ContentType(), "application/json") {
			bodyBytes, _ := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
			c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			bodySnippet = truncateBody(maskSensitiveFields(string(bodyBytes)), auditBodyLimit)
		}

		c.Next()

		userID := GetUserID(c)
		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)
		message := formatAuditMessage(GetEmail(c), method, c.Request.URL.Path, status)

		var uid *uint
		if userID > 0 {
			uid = &userID
		}

		services.LogInfo(module, action, message, uid, c.ClientIP(), c.Request.UserAgent(), map[string]interface{}{
			"method":     method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"body":       bodySnippet,
			"request_id": c.GetString("request_id"),
			"audit":      true,
		})
	}
}

// parseRouteInfo maps "/api/submissions/:id/review" + POST to ("Submissions", "Create").
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")
	module = strings.SplitN(path, "/", 2)[0]
	if module == "" {
		module = "unknown"
	} else {
		module = cases.Title(language.Und).String(strings.ReplaceAll(module, "-", " "))
	}

	switch method {
	case http.MethodPost:
		action = "Create"
	case http.MethodPut, http.MethodPatch:
		action = "Update"
	case http.MethodDelete:
		action = "Delete"
	default:
		action = method
	}
	return module, action
}

// truncateBody cuts s to at most limit bytes on a rune boundary.
func truncateBody(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...[truncated]"
}

func formatAuditMessage(actor, method, path string, status int) string {
	result := "Failed"
	if status >= 200 && status < 300 {
		result = "OK"
	}
	if actor == "" {
		actor = "anonymous"
	}
	return "[Audit] " + actor + " " + method + " " + path + " -> " + result
}

var sensitiveValue = regexp.MustCompile(`(?i)("(?:password|secret|token|access_token|api_key)"\s*:\s*")[^"]*(")`)

// maskSensitiveFields replaces quoted values of sensitive JSON keys with ***.
func maskSensitiveFields(body string) string {
	return sensitiveValue.ReplaceAllString(body, "${1}***${2}")
}
