package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"villagefund/internal/models"
	"villagefund/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler streams the transaction log as CSV or XLSX.
type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

var exportHeaders = []string{"Date", "Code", "Member", "Kind", "Subtype", "Amount (baht)", "Description"}

func (h *ExportHandler) loadRows(c *gin.Context) ([]models.Transaction, bool) {
	q := h.DB.Model(&models.Transaction{})
	if code := c.Query("member_code"); code != "" {
		q = q.Where("member_code = ?", code)
	}
	if from := c.Query("from"); from != "" {
		if d, err := util.ValidateDate(from); err == nil {
			q = q.Where("date >= ?", d)
		}
	}
	if to := c.Query("to"); to != "" {
		if d, err := util.ValidateDate(to); err == nil {
			q = q.Where("date <= ?", d)
		}
	}

	var rows []models.Transaction
	if err := q.Order("date ASC, created_at ASC").Find(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transactions")
		return nil, false
	}
	return rows, true
}

func exportSubtype(t models.Transaction) string {
	if t.WelfareType != "" {
		return t.WelfareType
	}
	if t.IncomeType != "" {
		return t.IncomeType
	}
	return ""
}

// CSV exports the transaction log as CSV.
func (h *ExportHandler) CSV(c *gin.Context) {
	rows, ok := h.loadRows(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.csv\"",
		time.Now().Format("20060102")))

	// UTF-8 BOM so Excel renders Thai names correctly.
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeaders)
	for _, t := range rows {
		writer.Write([]string{
			t.Date.Format("2006-01-02"),
			t.MemberCode,
			t.MemberName,
			t.Kind,
			exportSubtype(t),
			util.FormatSatangToBaht(t.Amount),
			t.Description,
		})
	}
}

// XLSX exports the transaction log as an Excel workbook.
func (h *ExportHandler) XLSX(c *gin.Context) {
	rows, ok := h.loadRows(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	sheetName := "Transactions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create sheet")
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, h := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, h)
	}

	for idx, t := range rows {
		row := idx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), t.Date.Format("2006-01-02"))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), t.MemberCode)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), t.MemberName)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), t.Kind)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), exportSubtype(t))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), util.FormatSatangToBaht(t.Amount))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), t.Description)
	}

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 8)
	f.SetColWidth(sheetName, "C", "C", 20)
	f.SetColWidth(sheetName, "D", "E", 18)
	f.SetColWidth(sheetName, "F", "F", 14)
	f.SetColWidth(sheetName, "G", "G", 30)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}
