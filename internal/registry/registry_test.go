package registry

import (
	"testing"
	"time"

	"villagefund/internal/ledger"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNextMemberCode(t *testing.T) {
	cases := []struct {
		name     string
		existing []string
		want     string
	}{
		{"empty registry", nil, "M001"},
		{"sequential", []string{"M001", "M002"}, "M003"},
		{"gap keeps max", []string{"M001", "M003"}, "M004"},
		{"malformed ignored", []string{"M00a", "M002"}, "M003"},
		{"no prefix ignored", []string{"X009", "M005"}, "M006"},
		{"all malformed", []string{"", "M", "Mxx"}, "M001"},
		{"wide numbers keep growing", []string{"M999"}, "M1000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextMemberCode(tc.existing); got != tc.want {
				t.Errorf("NextMemberCode(%v) = %q, want %q", tc.existing, got, tc.want)
			}
		})
	}
}

func TestRegisterWithDepositAndFee(t *testing.T) {
	state := ledger.State{
		Fund: ledger.Totals{TotalBalance: 100_000, TotalMembers: 1},
		Members: []ledger.Member{
			{Code: "M001", Name: "Jakkrapob", Status: ledger.StatusActive, Balance: 50_000},
		},
	}

	next, member, txs, err := Register(state, Registration{
		Name:            "Nopadol",
		JoinDate:        date("2024-03-05"),
		InitialDeposit:  20_000,
		RegistrationFee: 5_000,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if member.Code != "M002" {
		t.Errorf("allocated code = %s, want M002", member.Code)
	}
	if member.Balance != 20_000 {
		t.Errorf("member balance = %d, want 20000", member.Balance)
	}
	if next.Fund.TotalMembers != 2 {
		t.Errorf("total members = %d, want 2", next.Fund.TotalMembers)
	}
	// both movements hit the fund through the effect table
	if next.Fund.TotalBalance != 100_000+20_000+5_000 {
		t.Errorf("fund balance = %d, want 125000", next.Fund.TotalBalance)
	}

	if len(txs) != 2 {
		t.Fatalf("transactions = %d, want 2", len(txs))
	}
	if txs[0].Kind != ledger.KindDeposit || txs[0].MemberCode != "M002" {
		t.Errorf("first tx = %+v, want member deposit", txs[0])
	}
	if txs[1].Kind != ledger.KindFundIncome || txs[1].Income != ledger.IncomeFee {
		t.Errorf("second tx = %+v, want FEE fund income", txs[1])
	}
}

func TestRegisterZeroAmounts(t *testing.T) {
	state := ledger.State{Fund: ledger.Totals{TotalBalance: 100_000}}

	next, member, txs, err := Register(state, Registration{Name: "Sathit", JoinDate: date("2024-05-20")})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("transactions = %d, want none for zero amounts", len(txs))
	}
	if member.Code != "M001" || member.Status != ledger.StatusActive {
		t.Errorf("member = %+v", member)
	}
	if next.Fund.TotalBalance != 100_000 {
		t.Errorf("fund balance changed with no money movement: %d", next.Fund.TotalBalance)
	}
}

func TestRegisterRejectsNegative(t *testing.T) {
	state := ledger.State{}
	if _, _, _, err := Register(state, Registration{Name: "x", InitialDeposit: -1}); err != ledger.ErrInvalidAmount {
		t.Errorf("negative deposit error = %v, want ErrInvalidAmount", err)
	}
}

func TestSetStatus(t *testing.T) {
	state := ledger.State{Members: []ledger.Member{{Code: "M001", Status: ledger.StatusActive}}}

	next, err := SetStatus(state, "M001", ledger.StatusInactive)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if next.Members[0].Status != ledger.StatusInactive {
		t.Error("status not updated")
	}
	if state.Members[0].Status != ledger.StatusActive {
		t.Error("SetStatus mutated input state")
	}

	if _, err := SetStatus(state, "M999", ledger.StatusInactive); err != ledger.ErrMemberNotFound {
		t.Errorf("unknown member error = %v, want ErrMemberNotFound", err)
	}
}

func TestCheckWelfareEligibility(t *testing.T) {
	asOf := date("2024-06-01")

	cases := []struct {
		name    string
		member  ledger.Member
		welfare ledger.WelfareType
		wantOK  bool
	}{
		{"hospital after 3 months", ledger.Member{Status: ledger.StatusActive, JoinDate: date("2024-02-01")}, ledger.WelfareHospital, true},
		{"hospital too early", ledger.Member{Status: ledger.StatusActive, JoinDate: date("2024-04-15")}, ledger.WelfareHospital, false},
		{"birth needs a year", ledger.Member{Status: ledger.StatusActive, JoinDate: date("2023-08-01")}, ledger.WelfareBirth, false},
		{"education needs savings", ledger.Member{Status: ledger.StatusActive, JoinDate: date("2021-01-01"), Balance: 100_000}, ledger.WelfareEducation, false},
		{"education with savings", ledger.Member{Status: ledger.StatusActive, JoinDate: date("2021-01-01"), Balance: 600_000}, ledger.WelfareEducation, true},
		{"inactive member", ledger.Member{Status: ledger.StatusInactive, JoinDate: date("2020-01-01")}, ledger.WelfareDeath, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckWelfareEligibility(tc.member, tc.welfare, asOf)
			if tc.wantOK && err != nil {
				t.Errorf("unexpected rejection: %v", err)
			}
			if !tc.wantOK && err == nil {
				t.Error("expected rejection, got nil")
			}
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"2024-01-15", "2024-04-15", 3},
		{"2024-01-15", "2024-04-14", 2},
		{"2024-01-15", "2024-01-15", 0},
		{"2024-06-01", "2024-01-01", 0}, // reversed clamps to zero
	}
	for _, tc := range cases {
		if got := monthsBetween(date(tc.a), date(tc.b)); got != tc.want {
			t.Errorf("monthsBetween(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
