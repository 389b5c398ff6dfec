package fund

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"villagefund/internal/ledger"
	"villagefund/internal/models"
	"villagefund/internal/registry"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func baht(n int64) int64 { return n * 100 }

func newTestService(t *testing.T, seed int64) *Service {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "fund.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Member{}, &models.Transaction{}, &models.FundState{}, &models.WelfareRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Create(&models.FundState{ID: 1, SeedBalance: seed, TotalBalance: seed}).Error; err != nil {
		t.Fatalf("seed fund state: %v", err)
	}
	return NewService(db, zerolog.Nop())
}

func TestRegisterAndSubmit(t *testing.T) {
	svc := newTestService(t, baht(100000))

	member, txs, err := svc.Register(registry.Registration{
		Name:            "Jakkrapob",
		JoinDate:        date("2024-01-15"),
		InitialDeposit:  baht(2000),
		RegistrationFee: baht(100),
	}, MemberDetails{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if member.Code != "M001" {
		t.Fatalf("member code = %s, want M001", member.Code)
	}
	if len(txs) != 2 {
		t.Fatalf("registration transactions = %d, want 2", len(txs))
	}

	if _, err := svc.Submit(ledger.Deposit{
		MemberCode: "M001", Amount: baht(500), Date: date("2024-02-01"),
	}); err != nil {
		t.Fatalf("Submit deposit: %v", err)
	}

	state, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got := state.MemberByCode("M001").Balance; got != baht(2500) {
		t.Errorf("member balance = %d, want %d", got, baht(2500))
	}
	if state.Fund.TotalBalance != baht(102600) {
		t.Errorf("fund balance = %d, want %d", state.Fund.TotalBalance, baht(102600))
	}
	if state.Fund.TotalMembers != 1 {
		t.Errorf("total members = %d, want 1", state.Fund.TotalMembers)
	}
}

func TestSubmitRejectionLeavesNothingBehind(t *testing.T) {
	svc := newTestService(t, baht(100000))
	if _, _, err := svc.Register(registry.Registration{
		Name: "Saksit", JoinDate: date("2024-01-15"), InitialDeposit: baht(1000),
	}, MemberDetails{}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := svc.Submit(ledger.Withdraw{
		MemberCode: "M001", Amount: baht(5000), Date: date("2024-02-01"),
	})
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}

	var count int64
	if err := svc.db.Model(&models.Transaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("transaction rows = %d, want only the opening deposit", count)
	}
	state, _ := svc.Snapshot()
	if got := state.MemberByCode("M001").Balance; got != baht(1000) {
		t.Errorf("balance after rejection = %d, want %d", got, baht(1000))
	}
}

func TestWelfarePayoutWritesRecord(t *testing.T) {
	svc := newTestService(t, baht(100000))
	if _, _, err := svc.Register(registry.Registration{
		Name: "Wanpen", JoinDate: date("2022-03-01"), InitialDeposit: baht(8000),
	}, MemberDetails{}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tx, err := svc.Submit(ledger.WelfarePayout{
		MemberCode: "M001",
		Amount:     baht(3000),
		Date:       date("2024-05-10"),
		Welfare:    ledger.WelfareHospital,
	})
	if err != nil {
		t.Fatalf("Submit payout: %v", err)
	}

	var rec models.WelfareRecord
	if err := svc.db.Where("transaction_id = ?", tx.ID).First(&rec).Error; err != nil {
		t.Fatalf("load welfare record: %v", err)
	}
	if rec.Type != string(ledger.WelfareHospital) || rec.Amount != baht(3000) {
		t.Errorf("welfare record = %+v", rec)
	}
}

func TestRebuildMatchesLiveState(t *testing.T) {
	svc := newTestService(t, baht(50000))
	if _, _, err := svc.Register(registry.Registration{
		Name: "Jakkrapob", JoinDate: date("2024-01-15"), InitialDeposit: baht(2000), RegistrationFee: baht(100),
	}, MemberDetails{}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	intents := []ledger.Intent{
		ledger.Deposit{MemberCode: "M001", Amount: baht(700), Date: date("2024-02-01")},
		ledger.LoanDisbursement{MemberCode: "M001", Amount: baht(6000), Date: date("2024-03-01"), TermMonths: 6},
		ledger.LoanRepayment{MemberCode: "M001", Amount: baht(1000), Date: date("2024-04-01")},
		ledger.FundIncome{Amount: baht(250), Date: date("2024-04-15"), Income: ledger.IncomeDonation},
	}
	for _, in := range intents {
		if _, err := svc.Submit(in); err != nil {
			t.Fatalf("Submit %s: %v", in.Kind(), err)
		}
	}

	before, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	// Corrupt the projections, then rebuild from the log.
	if err := svc.db.Model(&models.Member{}).Where("code = ?", "M001").
		Update("balance", 0).Error; err != nil {
		t.Fatalf("corrupt member: %v", err)
	}
	if err := svc.db.Model(&models.FundState{}).Where("id = ?", 1).
		Update("total_balance", 1).Error; err != nil {
		t.Fatalf("corrupt fund: %v", err)
	}

	if err := svc.Rebuild(); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	after, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if after.Fund != before.Fund {
		t.Errorf("fund after rebuild = %+v, want %+v", after.Fund, before.Fund)
	}
	m := after.MemberByCode("M001")
	w := before.MemberByCode("M001")
	if m.Balance != w.Balance || m.LoanBalance != w.LoanBalance {
		t.Errorf("member after rebuild = %+v, want %+v", m, w)
	}
}

func TestSetMemberStatus(t *testing.T) {
	svc := newTestService(t, baht(10000))
	if _, _, err := svc.Register(registry.Registration{
		Name: "Saksit", JoinDate: date("2024-01-15"),
	}, MemberDetails{}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.SetMemberStatus("M001", ledger.StatusInactive); err != nil {
		t.Fatalf("SetMemberStatus: %v", err)
	}
	if _, err := svc.Submit(ledger.Deposit{
		MemberCode: "M001", Amount: baht(100), Date: date("2024-02-01"),
	}); !errors.Is(err, ledger.ErrMemberInactive) {
		t.Errorf("deposit to inactive member: err = %v, want ErrMemberInactive", err)
	}

	if err := svc.SetMemberStatus("M999", ledger.StatusActive); !errors.Is(err, ledger.ErrMemberNotFound) {
		t.Errorf("unknown member: err = %v, want ErrMemberNotFound", err)
	}
}

func TestRegisterCommitsDetailsWithRow(t *testing.T) {
	svc := newTestService(t, baht(10000))

	details := MemberDetails{
		IDNumberEnc:    "enc-id",
		PhoneEnc:       "enc-phone",
		AddressEnc:     "enc-address",
		BeneficiaryEnc: "enc-beneficiary",
	}
	member, _, err := svc.Register(registry.Registration{
		Name: "Wanpen", JoinDate: date("2024-01-15"), InitialDeposit: baht(500),
	}, details)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	var row models.Member
	if err := svc.db.Where("code = ?", member.Code).First(&row).Error; err != nil {
		t.Fatalf("load member: %v", err)
	}
	if row.IDNumberEnc != "enc-id" || row.PhoneEnc != "enc-phone" ||
		row.AddressEnc != "enc-address" || row.BeneficiaryEnc != "enc-beneficiary" {
		t.Errorf("member row missing details: %+v", row)
	}
	if row.Balance != baht(500) {
		t.Errorf("balance = %d, want %d", row.Balance, baht(500))
	}
}
