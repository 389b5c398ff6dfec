package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"villagefund/internal/middleware"
	"villagefund/internal/models"
	"villagefund/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BackupHandler writes encrypted snapshots of the whole fund dataset to
// disk. Restore is deliberately not exposed over HTTP; recovery runs
// against the backup file directly.
type BackupHandler struct {
	DB         *gorm.DB
	EncryptKey string
	BackupDir  string
}

func NewBackupHandler(db *gorm.DB, encryptKey, backupDir string) *BackupHandler {
	return &BackupHandler{DB: db, EncryptKey: encryptKey, BackupDir: backupDir}
}

// backupData is the snapshot file layout. The transaction log alone would
// suffice to rebuild balances, but members and welfare records carry data
// the log does not.
type backupData struct {
	Created        time.Time              `json:"created"`
	Fund           models.FundState       `json:"fund"`
	Members        []models.Member        `json:"members"`
	Transactions   []models.Transaction   `json:"transactions"`
	WelfareRecords []models.WelfareRecord `json:"welfare_records"`
	Events         []models.CalendarEvent `json:"events"`
}

// Create writes an encrypted snapshot file and records it.
func (h *BackupHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return
	}

	data := backupData{Created: time.Now()}
	if err := h.DB.First(&data.Fund, 1).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load fund state")
		return
	}
	if err := h.DB.Order("code ASC").Find(&data.Members).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load members")
		return
	}
	if err := h.DB.Order("date ASC, created_at ASC").Find(&data.Transactions).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transactions")
		return
	}
	if err := h.DB.Order("id ASC").Find(&data.WelfareRecords).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load welfare records")
		return
	}
	if err := h.DB.Order("id ASC").Find(&data.Events).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load events")
		return
	}

	raw, err := json.MarshalIndent(&data, "", "  ")
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to serialize snapshot")
		return
	}
	enc, err := util.EncryptAES(h.EncryptKey, raw)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to encrypt snapshot")
		return
	}

	if err := os.MkdirAll(h.BackupDir, 0o755); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create backup dir")
		return
	}

	fileName := fmt.Sprintf("fund-%s-%s.bin", time.Now().Format("20060102"), uuid.New().String())
	filePath := filepath.Join(h.BackupDir, fileName)
	if err := os.WriteFile(filePath, enc, 0o600); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to write backup file")
		return
	}
	info, _ := os.Stat(filePath)

	backup := models.Backup{
		UserID:   user.ID,
		FileName: fileName,
		FilePath: filePath,
		Size:     info.Size(),
	}
	if err := h.DB.Create(&backup).Error; err != nil {
		_ = os.Remove(filePath)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to record backup")
		return
	}

	util.Success(c, util.Response{
		"backup": gin.H{
			"id":         backup.ID,
			"file_name":  backup.FileName,
			"size":       backup.Size,
			"created_at": backup.CreatedAt,
		},
	})
}

// List returns all recorded backups, newest first.
func (h *BackupHandler) List(c *gin.Context) {
	var list []models.Backup
	if err := h.DB.Order("created_at DESC").Find(&list).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load backups")
		return
	}

	views := make([]util.Response, 0, len(list))
	for _, b := range list {
		views = append(views, util.Response{
			"id":         b.ID,
			"file_name":  b.FileName,
			"size":       b.Size,
			"created_at": b.CreatedAt,
		})
	}
	util.Success(c, util.Response{"backups": views})
}

// Download streams one backup file. The payload stays encrypted.
func (h *BackupHandler) Download(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid backup id")
		return
	}

	var backup models.Backup
	if err := h.DB.First(&backup, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "backup not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load backup")
		}
		return
	}

	if _, err := os.Stat(backup.FilePath); err != nil {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "backup file missing on disk")
		return
	}
	c.FileAttachment(backup.FilePath, backup.FileName)
}
