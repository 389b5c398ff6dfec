package handler

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"villagefund/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newScopeTestDB builds a two-member fixture with transactions for both,
// for checking that member-role logins only see their own rows.
func newScopeTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "scope.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Member{}, &models.Transaction{}, &models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	join := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	members := []models.Member{
		{Code: "M001", Name: "Jakkrapob", JoinDate: join, Status: "ACTIVE", Balance: 200000},
		{Code: "M002", Name: "Saksit", JoinDate: join, Status: "ACTIVE", Balance: 350000},
	}
	for i := range members {
		if err := db.Create(&members[i]).Error; err != nil {
			t.Fatalf("create member: %v", err)
		}
	}
	txs := []models.Transaction{
		{ID: "t1", MemberCode: "M001", MemberName: "Jakkrapob", Amount: 50000, Kind: "DEPOSIT", Date: join},
		{ID: "t2", MemberCode: "M002", MemberName: "Saksit", Amount: 70000, Kind: "DEPOSIT", Date: join},
	}
	for i := range txs {
		if err := db.Create(&txs[i]).Error; err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}
	return db
}

func scopedContext(t *testing.T, target string, user *models.User) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", target, nil)
	if user != nil {
		c.Set("currentUser", user)
	}
	return c, w
}

func memberUser(code string) *models.User {
	return &models.User{ID: 2, Username: "member", Role: models.RoleMember, MemberCode: code}
}

func adminUser() *models.User {
	return &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin}
}

func TestMemberListScopedToOwnRow(t *testing.T) {
	db := newScopeTestDB(t)
	h := NewMemberHandler(db, nil, "", 20)

	c, w := scopedContext(t, "/members", memberUser("M001"))
	h.List(c)

	body := w.Body.String()
	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, body)
	}
	if !strings.Contains(body, "M001") {
		t.Errorf("own row missing from response: %s", body)
	}
	if strings.Contains(body, "M002") {
		t.Errorf("member login can see another member's row: %s", body)
	}

	var resp struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.Total != 1 {
		t.Errorf("total = %d, want 1", resp.Data.Total)
	}
}

func TestMemberListAdminSeesAll(t *testing.T) {
	db := newScopeTestDB(t)
	h := NewMemberHandler(db, nil, "", 20)

	c, w := scopedContext(t, "/members", adminUser())
	h.List(c)

	body := w.Body.String()
	if !strings.Contains(body, "M001") || !strings.Contains(body, "M002") {
		t.Errorf("admin should see every member: %s", body)
	}
}

func TestMemberGetForbiddenForOtherMember(t *testing.T) {
	db := newScopeTestDB(t)
	h := NewMemberHandler(db, nil, "", 20)

	c, w := scopedContext(t, "/members/M002", memberUser("M001"))
	c.Params = gin.Params{{Key: "code", Value: "M002"}}
	h.Get(c)

	if w.Code != 403 {
		t.Errorf("status = %d, want 403; body %s", w.Code, w.Body.String())
	}

	c, w = scopedContext(t, "/members/M001", memberUser("M001"))
	c.Params = gin.Params{{Key: "code", Value: "M001"}}
	h.Get(c)
	if w.Code != 200 {
		t.Errorf("own row: status = %d, want 200; body %s", w.Code, w.Body.String())
	}
}
