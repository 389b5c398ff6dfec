package handler

import (
	"errors"
	"strings"
	"testing"

	"villagefund/internal/ledger"
)

func TestIntentFromRequest(t *testing.T) {
	tests := []struct {
		name string
		req  createTransactionReq
		kind ledger.Kind
	}{
		{"deposit", createTransactionReq{Kind: "DEPOSIT", MemberCode: "M001", Amount: "500"}, ledger.KindDeposit},
		{"lowercase kind", createTransactionReq{Kind: "withdraw", MemberCode: "M001", Amount: "100.50"}, ledger.KindWithdraw},
		{"welfare", createTransactionReq{Kind: "WELFARE_PAYOUT", MemberCode: "M001", Amount: "3000", WelfareType: "hospital"}, ledger.KindWelfarePayout},
		{"fund income without member", createTransactionReq{Kind: "FUND_INCOME", Amount: "250", IncomeType: "DONATION"}, ledger.KindFundIncome},
		{"loan", createTransactionReq{Kind: "LOAN_DISBURSEMENT", MemberCode: "M001", Amount: "12000", TermMonths: 12}, ledger.KindLoanDisbursement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := intentFromRequest(tt.req)
			if err != nil {
				t.Fatalf("intentFromRequest: %v", err)
			}
			if in.Kind() != tt.kind {
				t.Errorf("kind = %s, want %s", in.Kind(), tt.kind)
			}
		})
	}
}

func TestIntentFromRequestSubtypeUppercased(t *testing.T) {
	in, err := intentFromRequest(createTransactionReq{
		Kind: "WELFARE_PAYOUT", MemberCode: "M001", Amount: "3000", WelfareType: "hospital",
	})
	if err != nil {
		t.Fatalf("intentFromRequest: %v", err)
	}
	payout, ok := in.(ledger.WelfarePayout)
	if !ok {
		t.Fatalf("intent type = %T", in)
	}
	if payout.Welfare != ledger.WelfareHospital {
		t.Errorf("welfare = %s, want HOSPITAL", payout.Welfare)
	}
	if payout.Amount != 300000 {
		t.Errorf("amount = %d satang, want 300000", payout.Amount)
	}
}

func TestIntentFromRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		req  createTransactionReq
		want error
	}{
		{"bad amount", createTransactionReq{Kind: "DEPOSIT", MemberCode: "M001", Amount: "abc"}, errInvalidAmountFormat},
		{"bad date", createTransactionReq{Kind: "DEPOSIT", MemberCode: "M001", Amount: "100", Date: "01/02/2024"}, errInvalidDateFormat},
		{"unknown kind", createTransactionReq{Kind: "TRANSFER", MemberCode: "M001", Amount: "100"}, errUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := intentFromRequest(tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTransactionListScopedToOwnRows(t *testing.T) {
	db := newScopeTestDB(t)
	h := NewTransactionHandler(db, nil, 20)

	c, w := scopedContext(t, "/transactions", memberUser("M001"))
	h.List(c)

	body := w.Body.String()
	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, body)
	}
	if !strings.Contains(body, "M001") {
		t.Errorf("own transactions missing from response: %s", body)
	}
	if strings.Contains(body, "M002") {
		t.Errorf("member login can see another member's transactions: %s", body)
	}
}

func TestTransactionListScopeOverridesMemberCodeParam(t *testing.T) {
	db := newScopeTestDB(t)
	h := NewTransactionHandler(db, nil, 20)

	// Asking for someone else's code must not widen the scope.
	c, w := scopedContext(t, "/transactions?member_code=M002", memberUser("M001"))
	h.List(c)

	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "M002") {
		t.Errorf("member_code param bypassed the login scope: %s", w.Body.String())
	}
}

func TestTransactionListAdminSeesAll(t *testing.T) {
	db := newScopeTestDB(t)
	h := NewTransactionHandler(db, nil, 20)

	c, w := scopedContext(t, "/transactions", adminUser())
	h.List(c)

	body := w.Body.String()
	if !strings.Contains(body, "M001") || !strings.Contains(body, "M002") {
		t.Errorf("admin should see every member's transactions: %s", body)
	}
}
