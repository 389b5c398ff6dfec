package insight

import "testing"

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"amount": 500}`, `{"amount": 500}`},
		{"fenced", "```json\n{\"amount\": 500}\n```", `{"amount": 500}`},
		{"bare fence", "```\n{\"amount\": 500}\n```", `{"amount": 500}`},
		{"chatter", "Here is the result:\n{\"amount\": 500}\nHope that helps.", `{"amount": 500}`},
		{"whitespace", "  \n{\"amount\": 500}\n  ", `{"amount": 500}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseSlipResult(t *testing.T) {
	raw := "```json\n" +
		`{"amount": 545.50, "date": "2024-06-01", "sender_name": "Jakkrapob",` +
		` "matched_member_id": "M001", "confidence": 0.92, "is_verified": true}` +
		"\n```"
	got, err := parseSlipResult(raw)
	if err != nil {
		t.Fatalf("parseSlipResult: %v", err)
	}
	if got.Amount != 545.50 || got.MatchedMember != "M001" || !got.IsVerified {
		t.Errorf("result = %+v", got)
	}
	if got.Confidence != 0.92 {
		t.Errorf("confidence = %v, want 0.92", got.Confidence)
	}
}

func TestParseSlipResultBadJSON(t *testing.T) {
	if _, err := parseSlipResult("the slip could not be read"); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}
