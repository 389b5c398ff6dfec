package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"villagefund/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuditMiddleware records every mutating request by a logged-in user.
// Reads are not audited. Request bodies are stored with credential fields
// blanked out so the audit table can never leak a password.
func AuditMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" {
			c.Next()
			return
		}

		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		c.Next()

		user := CurrentUser(c)
		if user == nil {
			return
		}

		action := c.Request.Method + " " + c.Request.URL.Path
		if len(bodyBytes) > 0 && len(bodyBytes) < 2000 {
			action += " " + redactBody(bodyBytes)
		}

		entry := models.AuditLog{
			UserID:    &user.ID,
			Path:      c.Request.URL.Path,
			Method:    c.Request.Method,
			Action:    action,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		_ = db.Create(&entry).Error
	}
}

const redactedValue = "[REDACTED]"

// redactBody blanks the values of credential fields in a JSON request body.
// Bodies that do not parse as a JSON object are dropped entirely rather
// than stored verbatim.
func redactBody(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}

	changed := false
	for key := range fields {
		if strings.Contains(strings.ToLower(key), "password") {
			fields[key] = json.RawMessage(`"` + redactedValue + `"`)
			changed = true
		}
	}
	if !changed {
		return string(body)
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(out)
}
