// Package insight calls Gemini for the advisory features: fund health
// commentary, repayment reminder drafts and transfer-slip verification.
// Everything here is best-effort; callers must degrade gracefully when the
// service is disabled or the model is unreachable.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"villagefund/internal/ledger"
	"villagefund/internal/report"
	"villagefund/internal/util"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// ErrUnavailable means the AI service is disabled or the model call failed.
// Handlers translate it into a canned fallback rather than a hard error.
var ErrUnavailable = errors.New("insight service unavailable")

type Service struct {
	client      *genai.Client
	textModel   string
	visionModel string
	timeout     time.Duration
	log         zerolog.Logger
}

// New builds the service. The genai client reads GEMINI_API_KEY from the
// environment.
func New(ctx context.Context, textModel, visionModel string, timeout time.Duration, log zerolog.Logger) (*Service, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Service{
		client:      client,
		textModel:   textModel,
		visionModel: visionModel,
		timeout:     timeout,
		log:         log,
	}, nil
}

// FundInsight asks the model for a short plain-language commentary on the
// fund's position. The snapshot and monthly rollup go in as text; no member
// PII is included.
func (s *Service) FundInsight(ctx context.Context, state ledger.State, months []report.MonthTotal) (string, error) {
	if s == nil {
		return "", ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var b strings.Builder
	fmt.Fprintf(&b, "You are an advisor for a Thai village welfare fund.\n")
	fmt.Fprintf(&b, "Write a short assessment (3-5 sentences, plain language, no markdown)\n")
	fmt.Fprintf(&b, "of the fund's health and one concrete suggestion for the committee.\n\n")
	fmt.Fprintf(&b, "Current position:\n")
	fmt.Fprintf(&b, "- total balance: %s baht\n", util.FormatSatangToBaht(state.Fund.TotalBalance))
	fmt.Fprintf(&b, "- members: %d\n", state.Fund.TotalMembers)
	fmt.Fprintf(&b, "- outstanding loans: %s baht\n", util.FormatSatangToBaht(state.Fund.ActiveLoans))
	if len(months) > 0 {
		fmt.Fprintf(&b, "\nMonthly totals (income / expense, baht):\n")
		for _, m := range months {
			fmt.Fprintf(&b, "- %s: %s / %s\n", m.Month,
				util.FormatSatangToBaht(m.Income), util.FormatSatangToBaht(m.Expense))
		}
	}

	text, err := s.generateText(ctx, s.textModel, b.String())
	if err != nil {
		s.log.Warn().Err(err).Msg("fund insight call failed")
		return "", ErrUnavailable
	}
	return text, nil
}

// LoanReminder drafts a polite repayment reminder for one borrower.
// The caller supplies only what the message needs.
func (s *Service) LoanReminder(ctx context.Context, memberName string, outstanding int64, lastPayment *time.Time) (string, error) {
	if s == nil {
		return "", ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var b strings.Builder
	fmt.Fprintf(&b, "Draft a short, polite loan repayment reminder in Thai for a village\n")
	fmt.Fprintf(&b, "welfare fund member. Friendly tone, no threats, 2-3 sentences.\n")
	fmt.Fprintf(&b, "Return only the message text.\n\n")
	fmt.Fprintf(&b, "Member name: %s\n", memberName)
	fmt.Fprintf(&b, "Outstanding loan: %s baht\n", util.FormatSatangToBaht(outstanding))
	if lastPayment != nil {
		fmt.Fprintf(&b, "Last payment: %s\n", lastPayment.Format("2006-01-02"))
	} else {
		fmt.Fprintf(&b, "Last payment: none recorded\n")
	}

	text, err := s.generateText(ctx, s.textModel, b.String())
	if err != nil {
		s.log.Warn().Err(err).Msg("loan reminder call failed")
		return "", ErrUnavailable
	}
	return text, nil
}

// SlipResult is the model's reading of a transfer slip image, cross-checked
// against the expected payment.
type SlipResult struct {
	Amount        float64 `json:"amount"` // baht as printed on the slip
	Date          string  `json:"date"`   // YYYY-MM-DD, empty if unreadable
	SenderName    string  `json:"sender_name"`
	MatchedMember string  `json:"matched_member_id"` // member code or empty
	Confidence    float64 `json:"confidence"`        // 0..1
	IsVerified    bool    `json:"is_verified"`
}

var slipSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"amount":            {Type: genai.TypeNumber},
		"date":              {Type: genai.TypeString},
		"sender_name":       {Type: genai.TypeString},
		"matched_member_id": {Type: genai.TypeString},
		"confidence":        {Type: genai.TypeNumber},
		"is_verified":       {Type: genai.TypeBoolean},
	},
	Required: []string{"amount", "confidence", "is_verified"},
}

// VerifySlip reads a bank-transfer slip image and checks it against the
// expected amount and the member roster. memberNames maps code to name.
func (s *Service) VerifySlip(ctx context.Context, image []byte, mimeType string, expectedSatang int64, memberNames map[string]string) (SlipResult, error) {
	if s == nil {
		return SlipResult{}, ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var b strings.Builder
	fmt.Fprintf(&b, "You verify Thai bank transfer slips for a village welfare fund.\n")
	fmt.Fprintf(&b, "Read the attached slip image and fill every field of the JSON schema.\n")
	fmt.Fprintf(&b, "Rules:\n")
	fmt.Fprintf(&b, "- \"amount\" is the transferred amount in baht as printed.\n")
	fmt.Fprintf(&b, "- \"date\" is the transfer date, ISO format YYYY-MM-DD, or \"\" if unreadable.\n")
	fmt.Fprintf(&b, "- \"matched_member_id\" is the code of the member whose name best matches\n")
	fmt.Fprintf(&b, "  the sender, or \"\" if no good match.\n")
	fmt.Fprintf(&b, "- \"is_verified\" is true only when the amount equals %s baht\n", util.FormatSatangToBaht(expectedSatang))
	fmt.Fprintf(&b, "  and a member matched.\n")
	fmt.Fprintf(&b, "- \"confidence\" is your overall confidence, 0 to 1.\n\n")
	fmt.Fprintf(&b, "Member roster (code: name):\n")
	for code, name := range memberNames {
		fmt.Fprintf(&b, "- %s: %s\n", code, name)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: b.String()},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			},
		},
	}
	resp, err := s.client.Models.GenerateContent(ctx, s.visionModel, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   slipSchema,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("slip verification call failed")
		return SlipResult{}, ErrUnavailable
	}

	raw := resp.Text()
	if raw == "" {
		return SlipResult{}, ErrUnavailable
	}
	result, err := parseSlipResult(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("raw", raw).Msg("slip response unparseable")
		return SlipResult{}, ErrUnavailable
	}
	return result, nil
}

func (s *Service) generateText(ctx context.Context, model, prompt string) (string, error) {
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}
	resp, err := s.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}

func parseSlipResult(raw string) (SlipResult, error) {
	var result SlipResult
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &result); err != nil {
		return SlipResult{}, fmt.Errorf("unmarshal slip result: %w", err)
	}
	return result, nil
}

// cleanModelJSON strips markdown fences and surrounding chatter when the
// model ignores the strict-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
