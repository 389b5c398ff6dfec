package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseBahtToSatang converts a decimal baht string ("500", "500.50") to
// satang. At most two decimal places are accepted.
func ParseBahtToSatang(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount is empty")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount has more than two decimal places: %q", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %q", s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %q", s)
	}

	satang := w*100 + f
	if neg {
		satang = -satang
	}
	return satang, nil
}

// FormatSatangToBaht renders satang as a two-decimal baht string.
func FormatSatangToBaht(satang int64) string {
	sign := ""
	if satang < 0 {
		sign = "-"
		satang = -satang
	}
	return fmt.Sprintf("%s%d.%02d", sign, satang/100, satang%100)
}

// ValidateDate checks a YYYY-MM-DD string and returns the parsed date.
func ValidateDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, want YYYY-MM-DD: %w", err)
	}
	return t, nil
}
