package registry

import (
	"fmt"
	"time"

	"villagefund/internal/ledger"
)

// Minimum continuous membership, in months, before each welfare benefit can
// be claimed. Taken from the fund's written regulations; the funeral scheme
// is a voluntary supplement with the same floor as death benefits.
var welfareMinMonths = map[ledger.WelfareType]int{
	ledger.WelfareBirth:     12,
	ledger.WelfareDeath:     6,
	ledger.WelfareHospital:  3,
	ledger.WelfareEducation: 24,
	ledger.WelfareElderly:   60,
	ledger.WelfareFuneral:   6,
}

// Education grants additionally require accumulated savings (satang).
const educationMinSavings = 5000 * 100

// EligibilityError explains why a welfare claim cannot proceed.
type EligibilityError struct {
	Welfare ledger.WelfareType
	Reason  string
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("registry: %s claim not eligible: %s", e.Welfare, e.Reason)
}

// CheckWelfareEligibility applies the regulation-table preconditions for a
// welfare claim. It is advisory and runs before an intent is built; the
// ledger engine itself only enforces the effect table.
func CheckWelfareEligibility(m ledger.Member, w ledger.WelfareType, asOf time.Time) error {
	if m.Status != ledger.StatusActive {
		return &EligibilityError{Welfare: w, Reason: "member is inactive"}
	}

	min, ok := welfareMinMonths[w]
	if !ok {
		// Unknown benefit categories get no extra precondition.
		return nil
	}
	if months := monthsBetween(m.JoinDate, asOf); months < min {
		return &EligibilityError{
			Welfare: w,
			Reason:  fmt.Sprintf("requires %d months of membership, has %d", min, months),
		}
	}

	if w == ledger.WelfareEducation && m.Balance < educationMinSavings {
		return &EligibilityError{Welfare: w, Reason: "requires at least 5,000 baht accumulated savings"}
	}
	return nil
}

// monthsBetween counts whole calendar months from a to b, floored at zero.
func monthsBetween(a, b time.Time) int {
	if b.Before(a) {
		return 0
	}
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
