package router

import (
	"net/http"

	"villagefund/internal/config"
	"villagefund/internal/fund"
	"villagefund/internal/handler"
	"villagefund/internal/insight"
	"villagefund/internal/loan"
	"villagefund/internal/middleware"
	"villagefund/internal/models"
	"villagefund/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the gin engine and every API route.
// insightSvc is nil when the AI service is disabled.
func SetupRouter(cfg *config.Config, db *gorm.DB, fundSvc *fund.Service, insightSvc *insight.Service) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.ExpireHours, cfg.Security.BcryptCost)
	api.POST("/auth/login", authHandler.Login)

	// Everything below needs a login. Mutations are additionally audited,
	// and committee-only routes sit behind the ADMIN gate.
	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AuditMiddleware(db),
	)
	admin := protected.Group("")
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	protected.GET("/me", func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		util.Success(c, util.Response{
			"id":           user.ID,
			"username":     user.Username,
			"display_name": user.DisplayName,
			"role":         user.Role,
			"member_code":  user.MemberCode,
		})
	})
	admin.POST("/auth/users", authHandler.CreateUser)

	policy := loan.NewPolicy(cfg.Fund.LoanYearlyRate, cfg.Fund.LoanRiskMultiple)

	memberHandler := handler.NewMemberHandler(db, fundSvc, cfg.Security.EncryptionKey, cfg.App.PageSize)
	protected.GET("/members", memberHandler.List)
	protected.GET("/members/:code", memberHandler.Get)
	admin.POST("/members", memberHandler.Create)
	admin.POST("/members/:code/deactivate", memberHandler.Deactivate)
	admin.POST("/members/:code/reactivate", memberHandler.Reactivate)

	txHandler := handler.NewTransactionHandler(db, fundSvc, cfg.App.PageSize)
	protected.GET("/transactions", txHandler.List)
	admin.POST("/transactions", txHandler.Create)

	loanHandler := handler.NewLoanHandler(db, fundSvc, policy)
	protected.POST("/loans/preview", loanHandler.Preview)
	admin.POST("/loans/disburse", loanHandler.Disburse)
	admin.POST("/loans/repay", loanHandler.Repay)

	welfareHandler := handler.NewWelfareHandler(db, fundSvc)
	protected.GET("/welfare/records", welfareHandler.List)
	admin.POST("/welfare/payout", welfareHandler.Payout)

	eventHandler := handler.NewEventHandler(db)
	protected.GET("/events", eventHandler.List)
	admin.POST("/events", eventHandler.Create)
	admin.PUT("/events/:id", eventHandler.Update)
	admin.DELETE("/events/:id", eventHandler.Delete)

	reportHandler := handler.NewReportHandler(db, fundSvc)
	protected.GET("/reports/summary", reportHandler.Summary)
	protected.GET("/reports/monthly", reportHandler.Monthly)
	protected.GET("/fund", reportHandler.FundOverview)
	admin.POST("/fund/rebuild", reportHandler.Rebuild)

	exportHandler := handler.NewExportHandler(db)
	admin.GET("/export/csv", exportHandler.CSV)
	admin.GET("/export/xlsx", exportHandler.XLSX)

	insightHandler := handler.NewInsightHandler(db, fundSvc, insightSvc)
	admin.GET("/insight", insightHandler.FundInsight)
	admin.POST("/insight/slip", insightHandler.VerifySlip)
	admin.POST("/insight/reminder/:code", insightHandler.Reminder)

	auditHandler := handler.NewAuditHandler(db, cfg.App.PageSize)
	admin.GET("/audit", auditHandler.List)

	backupHandler := handler.NewBackupHandler(db, cfg.Security.EncryptionKey, cfg.Backup.Dir)
	admin.POST("/backups", backupHandler.Create)
	admin.GET("/backups", backupHandler.List)
	admin.GET("/backups/:id/download", backupHandler.Download)

	return r
}
