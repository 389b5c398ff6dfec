package loan

import (
	"testing"
	"time"
)

func baht(n int64) int64 { return n * 100 }

func TestSummarizeReferenceCase(t *testing.T) {
	// 12,000 baht over 12 months at 6% flat with 2,000 baht savings.
	p := DefaultPolicy()
	s, err := p.Summarize(baht(12000), 12, baht(2000))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.TotalInterest != baht(720) {
		t.Errorf("total interest = %d, want %d", s.TotalInterest, baht(720))
	}
	if s.TotalRepayment != baht(12720) {
		t.Errorf("total repayment = %d, want %d", s.TotalRepayment, baht(12720))
	}
	if s.MonthlyInstallment != baht(1060) {
		t.Errorf("monthly installment = %d, want %d", s.MonthlyInstallment, baht(1060))
	}
	if s.Risk != RiskHigh {
		t.Errorf("risk = %s, want HIGH (12000 > 2000*5)", s.Risk)
	}
}

func TestSummarizeRisk(t *testing.T) {
	p := DefaultPolicy()

	s, _ := p.Summarize(baht(10000), 12, baht(2000))
	if s.Risk != RiskLow {
		t.Errorf("10000 vs 2000*5: risk = %s, want LOW", s.Risk)
	}
	s, _ = p.Summarize(baht(10001), 12, baht(2000))
	if s.Risk != RiskHigh {
		t.Errorf("10001 vs 2000*5: risk = %s, want HIGH", s.Risk)
	}
}

func TestSummarizeClampsTerm(t *testing.T) {
	p := DefaultPolicy()
	s, err := p.Summarize(baht(1200), 0, 0)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.TermMonths != 1 {
		t.Errorf("term = %d, want clamp to 1", s.TermMonths)
	}
	// 1200 * 0.06 * 1/12 = 6 baht interest
	if s.TotalInterest != baht(6) {
		t.Errorf("interest = %d, want %d", s.TotalInterest, baht(6))
	}
}

func TestSummarizeRejectsBadPrincipal(t *testing.T) {
	p := DefaultPolicy()
	for _, principal := range []int64{0, -1, baht(-500)} {
		if _, err := p.Summarize(principal, 12, 0); err != ErrInvalidPrincipal {
			t.Errorf("Summarize(%d) error = %v, want ErrInvalidPrincipal", principal, err)
		}
	}
}

func TestScheduleSumsToTotal(t *testing.T) {
	p := DefaultPolicy()
	start := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)

	// 10,000 baht over 7 months: monthly rows round, last row absorbs the rest.
	rows, err := p.Schedule(baht(10000), 7, start)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("rows = %d, want 7", len(rows))
	}

	sum, _ := p.Summarize(baht(10000), 7, 0)
	var total int64
	for i, r := range rows {
		total += r.Amount
		if r.No != i+1 {
			t.Errorf("row %d numbered %d", i, r.No)
		}
		want := start.AddDate(0, i+1, 0)
		if !r.DueDate.Equal(want) {
			t.Errorf("row %d due %v, want %v", i, r.DueDate, want)
		}
	}
	if total != sum.TotalRepayment {
		t.Errorf("schedule total = %d, want %d", total, sum.TotalRepayment)
	}
}

func TestNewPolicyFallbacks(t *testing.T) {
	p := NewPolicy(0, 0)
	d := DefaultPolicy()
	if !p.YearlyRate.Equal(d.YearlyRate) || p.RiskMultiple != d.RiskMultiple {
		t.Errorf("NewPolicy(0,0) = %+v, want defaults", p)
	}

	p = NewPolicy(0.12, 3)
	s, _ := p.Summarize(baht(1000), 12, 0)
	if s.TotalInterest != baht(120) {
		t.Errorf("12%% yearly on 1000 for 12m: interest = %d, want %d", s.TotalInterest, baht(120))
	}
}
