package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"villagefund/internal/fund"
	"villagefund/internal/ledger"
	"villagefund/internal/middleware"
	"villagefund/internal/models"
	"villagefund/internal/registry"
	"villagefund/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MemberHandler serves the member registry. PII fields are encrypted at
// rest and only decrypted for admins or the member themselves.
type MemberHandler struct {
	DB         *gorm.DB
	Fund       *fund.Service
	EncryptKey string
	PageSize   int
}

func NewMemberHandler(db *gorm.DB, f *fund.Service, encryptKey string, pageSize int) *MemberHandler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &MemberHandler{DB: db, Fund: f, EncryptKey: encryptKey, PageSize: pageSize}
}

type createMemberReq struct {
	Name            string `json:"name" binding:"required,max=128"`
	JoinDate        string `json:"join_date"`        // YYYY-MM-DD, default today
	InitialDeposit  string `json:"initial_deposit"`  // baht, e.g. "2000" or "2000.50"
	RegistrationFee string `json:"registration_fee"` // baht
	BirthDate       string `json:"birth_date"`
	IDNumber        string `json:"id_number"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	Beneficiary     string `json:"beneficiary"`
}

// Create registers a new member. The code is allocated automatically and
// the opening deposit / registration fee go through the ledger.
func (h *MemberHandler) Create(c *gin.Context) {
	var req createMemberReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	joinDate := time.Now().Truncate(24 * time.Hour)
	if req.JoinDate != "" {
		d, err := util.ValidateDate(req.JoinDate)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "join_date must be YYYY-MM-DD")
			return
		}
		joinDate = d
	}

	deposit, err := parseOptionalBaht(req.InitialDeposit)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid initial_deposit")
		return
	}
	fee, err := parseOptionalBaht(req.RegistrationFee)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid registration_fee")
		return
	}

	details, err := h.encryptDetails(req)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to encrypt member details")
		return
	}

	member, txs, err := h.Fund.Register(registry.Registration{
		Name:            strings.TrimSpace(req.Name),
		JoinDate:        joinDate,
		InitialDeposit:  deposit,
		RegistrationFee: fee,
	}, details)
	if err != nil {
		writeLedgerError(c, err)
		return
	}

	util.Success(c, util.Response{
		"member":       memberView(member, false, h.EncryptKey),
		"transactions": transactionViews(txs),
	})
}

// encryptDetails prepares the PII columns before registration so the member
// row commits with them in one transaction.
func (h *MemberHandler) encryptDetails(req createMemberReq) (fund.MemberDetails, error) {
	var details fund.MemberDetails
	if req.BirthDate != "" {
		if d, err := util.ValidateDate(req.BirthDate); err == nil {
			details.BirthDate = &d
		}
	}
	var err error
	if details.IDNumberEnc, err = util.EncryptField(h.EncryptKey, req.IDNumber); err != nil {
		return fund.MemberDetails{}, err
	}
	if details.PhoneEnc, err = util.EncryptField(h.EncryptKey, req.Phone); err != nil {
		return fund.MemberDetails{}, err
	}
	if details.AddressEnc, err = util.EncryptField(h.EncryptKey, req.Address); err != nil {
		return fund.MemberDetails{}, err
	}
	if details.BeneficiaryEnc, err = util.EncryptField(h.EncryptKey, req.Beneficiary); err != nil {
		return fund.MemberDetails{}, err
	}
	return details, nil
}

// List returns members with optional status filter and name search,
// paginated. Member-role logins only ever see their own row.
func (h *MemberHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.PageSize)))
	if pageSize < 1 || pageSize > 100 {
		pageSize = h.PageSize
	}

	q := h.DB.Model(&models.Member{})
	if user := middleware.CurrentUser(c); user != nil && user.Role != models.RoleAdmin {
		q = q.Where("code = ?", user.MemberCode)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", strings.ToUpper(status))
	}
	if name := c.Query("q"); name != "" {
		q = q.Where("name LIKE ?", "%"+name+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to count members")
		return
	}

	var members []models.Member
	if err := q.Order("code ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&members).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load members")
		return
	}

	views := make([]util.Response, 0, len(members))
	for _, m := range members {
		views = append(views, memberView(m, false, h.EncryptKey))
	}
	util.Success(c, util.Response{
		"members":   views,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Get returns one member by code. Member-role logins can only fetch their
// own row; PII is included only for admins and for the member's own login.
func (h *MemberHandler) Get(c *gin.Context) {
	code := c.Param("code")
	if user := middleware.CurrentUser(c); user != nil && user.Role != models.RoleAdmin && user.MemberCode != code {
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "insufficient permissions")
		return
	}

	var member models.Member
	if err := h.DB.Where("code = ?", code).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "member not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load member")
		}
		return
	}

	withPII := false
	if user := middleware.CurrentUser(c); user != nil {
		withPII = user.Role == models.RoleAdmin || user.MemberCode == code
	}
	util.Success(c, util.Response{"member": memberView(member, withPII, h.EncryptKey)})
}

// Deactivate flips a member to INACTIVE. Their history stays; new
// member-scoped transactions are rejected until reactivation.
func (h *MemberHandler) Deactivate(c *gin.Context) {
	h.setStatus(c, ledger.StatusInactive)
}

func (h *MemberHandler) Reactivate(c *gin.Context) {
	h.setStatus(c, ledger.StatusActive)
}

func (h *MemberHandler) setStatus(c *gin.Context, status ledger.MemberStatus) {
	code := c.Param("code")
	if err := h.Fund.SetMemberStatus(code, status); err != nil {
		if errors.Is(err, ledger.ErrMemberNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "member not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to update member")
		}
		return
	}
	util.Success(c, util.Response{"code": code, "status": string(status)})
}

func memberView(m models.Member, withPII bool, encryptKey string) util.Response {
	v := util.Response{
		"code":         m.Code,
		"name":         m.Name,
		"join_date":    m.JoinDate.Format("2006-01-02"),
		"status":       m.Status,
		"balance":      util.FormatSatangToBaht(m.Balance),
		"loan_balance": util.FormatSatangToBaht(m.LoanBalance),
	}
	if m.LastPaymentDate != nil {
		v["last_payment_date"] = m.LastPaymentDate.Format("2006-01-02")
	}
	if withPII {
		if m.BirthDate != nil {
			v["birth_date"] = m.BirthDate.Format("2006-01-02")
		}
		v["id_number"] = util.DecryptField(encryptKey, m.IDNumberEnc)
		v["phone"] = util.DecryptField(encryptKey, m.PhoneEnc)
		v["address"] = util.DecryptField(encryptKey, m.AddressEnc)
		v["beneficiary"] = util.DecryptField(encryptKey, m.BeneficiaryEnc)
	}
	return v
}

func parseOptionalBaht(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return util.ParseBahtToSatang(s)
}
