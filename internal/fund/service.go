// Package fund owns the live ledger snapshot. The engine in internal/ledger
// is pure and assumes at most one in-flight mutation, so every write comes
// through here: a mutex serializes writers and a gorm transaction makes the
// member row, fund row and appended transaction land atomically.
package fund

import (
	"fmt"
	"sync"
	"time"

	"villagefund/internal/ledger"
	"villagefund/internal/models"
	"villagefund/internal/registry"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log zerolog.Logger
	mu  sync.Mutex
}

func NewService(db *gorm.DB, log zerolog.Logger) *Service {
	return &Service{db: db, log: log}
}

// Submit validates and applies one transaction intent. On success the
// returned row has been committed; on error nothing was written.
func (s *Service) Submit(in ledger.Intent) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var row models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		state, fundRow, memberRows, err := loadState(tx)
		if err != nil {
			return err
		}

		next, applied, err := ledger.Apply(state, in)
		if err != nil {
			return err
		}

		row = toTransactionRow(applied)
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("append transaction: %w", err)
		}

		if applied.Kind == ledger.KindWelfarePayout {
			rec := models.WelfareRecord{
				TransactionID: applied.ID,
				MemberCode:    applied.MemberCode,
				MemberName:    applied.MemberName,
				Type:          string(applied.Welfare),
				Amount:        applied.Amount,
				Date:          applied.Date,
				Note:          applied.Description,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("record welfare claim: %w", err)
			}
		}

		if err := persistState(tx, next, fundRow, memberRows); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return models.Transaction{}, err
	}

	s.log.Info().
		Str("kind", row.Kind).
		Str("member", row.MemberCode).
		Int64("amount", row.Amount).
		Msg("transaction applied")
	return row, nil
}

// MemberDetails are the already-encrypted personal columns written onto
// the member row at registration.
type MemberDetails struct {
	BirthDate      *time.Time
	IDNumberEnc    string
	PhoneEnc       string
	AddressEnc     string
	BeneficiaryEnc string
}

// Register creates a member and applies the opening deposit / registration
// fee through the same engine path as any other transaction. The member
// row, its personal details and the opening transactions commit together.
func (s *Service) Register(reg registry.Registration, details MemberDetails) (models.Member, []models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var memberRow models.Member
	var txRows []models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		state, fundRow, memberRows, err := loadState(tx)
		if err != nil {
			return err
		}

		next, member, txs, err := registry.Register(state, reg)
		if err != nil {
			return err
		}

		memberRow = models.Member{
			Code:           member.Code,
			Name:           member.Name,
			JoinDate:       member.JoinDate,
			Status:         string(member.Status),
			Balance:        member.Balance,
			BirthDate:      details.BirthDate,
			IDNumberEnc:    details.IDNumberEnc,
			PhoneEnc:       details.PhoneEnc,
			AddressEnc:     details.AddressEnc,
			BeneficiaryEnc: details.BeneficiaryEnc,
		}
		if err := tx.Create(&memberRow).Error; err != nil {
			return fmt.Errorf("create member: %w", err)
		}
		memberRows[member.Code] = &memberRow

		for _, applied := range txs {
			row := toTransactionRow(applied)
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("append transaction: %w", err)
			}
			txRows = append(txRows, row)
		}

		return persistState(tx, next, fundRow, memberRows)
	})
	if err != nil {
		return models.Member{}, nil, err
	}

	s.log.Info().
		Str("member", memberRow.Code).
		Str("name", memberRow.Name).
		Msg("member registered")
	return memberRow, txRows, nil
}

// SetMemberStatus flips a member ACTIVE/INACTIVE. No money moves, but it
// still runs under the writer lock so it cannot race a transaction.
func (s *Service) SetMemberStatus(code string, status ledger.MemberStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.Model(&models.Member{}).Where("code = ?", code).Update("status", string(status))
	if res.Error != nil {
		return fmt.Errorf("update member status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ledger.ErrMemberNotFound
	}
	return nil
}

// Snapshot returns the current ledger state for read-side consumers
// (reports, the insight prompt).
func (s *Service) Snapshot() (ledger.State, error) {
	state, _, _, err := loadState(s.db)
	return state, err
}

// Rebuild recomputes member balances and the fund row from the transaction
// log. The log is authoritative; this is the recovery path when the
// materialized totals have drifted.
func (s *Service) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		state, fundRow, memberRows, err := loadState(tx)
		if err != nil {
			return err
		}

		var rows []models.Transaction
		if err := tx.Order("date ASC, created_at ASC").Find(&rows).Error; err != nil {
			return fmt.Errorf("load transaction log: %w", err)
		}

		// Start from zero balances with everyone ACTIVE: a member who is
		// INACTIVE today may still have valid historical transactions.
		initial := ledger.State{Fund: ledger.Totals{
			TotalBalance: fundRow.SeedBalance,
			TotalMembers: state.Fund.TotalMembers,
		}}
		statuses := map[string]ledger.MemberStatus{}
		for _, m := range state.Members {
			statuses[m.Code] = m.Status
			m.Status = ledger.StatusActive
			m.Balance = 0
			m.LoanBalance = 0
			m.LastPaymentDate = nil
			initial.Members = append(initial.Members, m)
		}

		log := make([]ledger.Transaction, 0, len(rows))
		for _, r := range rows {
			log = append(log, fromTransactionRow(r))
		}

		rebuilt, err := ledger.Replay(initial, log)
		if err != nil {
			return fmt.Errorf("replay log: %w", err)
		}
		for i := range rebuilt.Members {
			rebuilt.Members[i].Status = statuses[rebuilt.Members[i].Code]
		}

		s.log.Warn().
			Int("transactions", len(rows)).
			Int64("total_before", state.Fund.TotalBalance).
			Int64("total_after", rebuilt.Fund.TotalBalance).
			Msg("ledger projections rebuilt from log")

		return persistState(tx, rebuilt, fundRow, memberRows)
	})
}

// loadState reads the fund row and all member rows into an engine state.
func loadState(tx *gorm.DB) (ledger.State, *models.FundState, map[string]*models.Member, error) {
	var fundRow models.FundState
	if err := tx.First(&fundRow, 1).Error; err != nil {
		return ledger.State{}, nil, nil, fmt.Errorf("load fund state: %w", err)
	}

	var members []models.Member
	if err := tx.Order("code ASC").Find(&members).Error; err != nil {
		return ledger.State{}, nil, nil, fmt.Errorf("load members: %w", err)
	}

	state := ledger.State{
		Fund: ledger.Totals{
			TotalBalance: fundRow.TotalBalance,
			TotalMembers: fundRow.TotalMembers,
			ActiveLoans:  fundRow.ActiveLoans,
		},
	}
	rows := make(map[string]*models.Member, len(members))
	for i := range members {
		m := &members[i]
		rows[m.Code] = m
		state.Members = append(state.Members, ledger.Member{
			Code:            m.Code,
			Name:            m.Name,
			JoinDate:        m.JoinDate,
			Status:          ledger.MemberStatus(m.Status),
			Balance:         m.Balance,
			LoanBalance:     m.LoanBalance,
			LastPaymentDate: m.LastPaymentDate,
		})
	}
	return state, &fundRow, rows, nil
}

// persistState writes back every member row that changed plus the fund row.
func persistState(tx *gorm.DB, next ledger.State, fundRow *models.FundState, memberRows map[string]*models.Member) error {
	for i := range next.Members {
		m := &next.Members[i]
		row, ok := memberRows[m.Code]
		if !ok {
			return fmt.Errorf("member row missing for %s", m.Code)
		}
		if row.Balance == m.Balance && row.LoanBalance == m.LoanBalance && equalDatePtr(row.LastPaymentDate, m.LastPaymentDate) {
			continue
		}
		row.Balance = m.Balance
		row.LoanBalance = m.LoanBalance
		row.LastPaymentDate = m.LastPaymentDate
		if err := tx.Model(row).Select("balance", "loan_balance", "last_payment_date").Updates(row).Error; err != nil {
			return fmt.Errorf("update member %s: %w", m.Code, err)
		}
	}

	fundRow.TotalBalance = next.Fund.TotalBalance
	fundRow.TotalMembers = next.Fund.TotalMembers
	fundRow.ActiveLoans = next.Fund.ActiveLoans
	if err := tx.Model(fundRow).
		Select("total_balance", "total_members", "active_loans").
		Updates(fundRow).Error; err != nil {
		return fmt.Errorf("update fund state: %w", err)
	}
	return nil
}

func equalDatePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func toTransactionRow(t ledger.Transaction) models.Transaction {
	return models.Transaction{
		ID:          t.ID,
		MemberCode:  t.MemberCode,
		MemberName:  t.MemberName,
		Amount:      t.Amount,
		Kind:        string(t.Kind),
		Date:        t.Date,
		Description: t.Description,
		WelfareType: string(t.Welfare),
		IncomeType:  string(t.Income),
		TermMonths:  t.TermMonths,
	}
}

func fromTransactionRow(r models.Transaction) ledger.Transaction {
	return ledger.Transaction{
		ID:          r.ID,
		MemberCode:  r.MemberCode,
		MemberName:  r.MemberName,
		Amount:      r.Amount,
		Kind:        ledger.Kind(r.Kind),
		Date:        r.Date,
		Description: r.Description,
		Welfare:     ledger.WelfareType(r.WelfareType),
		Income:      ledger.IncomeType(r.IncomeType),
		TermMonths:  r.TermMonths,
	}
}
