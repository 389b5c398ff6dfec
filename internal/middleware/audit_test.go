package middleware

import (
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"villagefund/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func auditTestEngine(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("currentUser", &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin})
	}, AuditMiddleware(db))
	r.POST("/api/auth/users", func(c *gin.Context) { c.Status(200) })
	return r
}

func TestAuditRedactsPasswords(t *testing.T) {
	db := newAuditTestDB(t)
	r := auditTestEngine(db)

	body := `{"username":"somsri","password":"Sup3rSecret"}`
	req := httptest.NewRequest("POST", "/api/auth/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry models.AuditLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("load audit entry: %v", err)
	}
	if strings.Contains(entry.Action, "Sup3rSecret") {
		t.Errorf("audit action stores plaintext password: %q", entry.Action)
	}
	if !strings.Contains(entry.Action, redactedValue) {
		t.Errorf("audit action missing redaction marker: %q", entry.Action)
	}
	if !strings.Contains(entry.Action, "somsri") {
		t.Errorf("audit action lost non-credential fields: %q", entry.Action)
	}
}

func TestRedactBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains string
		excludes string
	}{
		{"password", `{"username":"a","password":"hunter2"}`, redactedValue, "hunter2"},
		{"confirm_password", `{"confirm_password":"hunter2"}`, redactedValue, "hunter2"},
		{"no credentials", `{"name":"Wanpen","amount":"500"}`, "Wanpen", ""},
		{"not json", `password=hunter2`, "", "hunter2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redactBody([]byte(tt.body))
			if tt.contains != "" && !strings.Contains(got, tt.contains) {
				t.Errorf("redactBody(%q) = %q, want it to contain %q", tt.body, got, tt.contains)
			}
			if tt.excludes != "" && strings.Contains(got, tt.excludes) {
				t.Errorf("redactBody(%q) = %q, must not contain %q", tt.body, got, tt.excludes)
			}
		})
	}
}
