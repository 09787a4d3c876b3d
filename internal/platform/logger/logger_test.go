package logger

import "testing"

func TestSanitizeValueRedactsSecrets(t *testing.T) {
	redactionOn()
	if got := sanitizeValue("access_token", "abc"); got != "[REDACTED]" {
		t.Fatalf("token: want=[REDACTED] got=%v", got)
	}
	if got := sanitizeValue("correct_answer", "b"); got != "[REDACTED]" {
		t.Fatalf("correct_answer: want=[REDACTED] got=%v", got)
	}
	if got := sanitizeValue("process", "onboarding"); got != "onboarding" {
		t.Fatalf("process should pass through, got=%v", got)
	}
}

func TestSanitizeValueHashesUserID(t *testing.T) {
	redactionOn()
	got, ok := sanitizeValue("user_id", "1234").(string)
	if !ok || len(got) != len("hash:")+12 {
		t.Fatalf("user_id hash: got=%v", got)
	}
	if again := sanitizeValue("user_id", "1234"); again != got {
		t.Fatalf("hash must be stable: %v vs %v", again, got)
	}
}

func TestNewTestModeDiscards(t *testing.T) {
	log, err := New("test")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("ignored", "k", "v")
	log.With("component", "x").Warn("ignored")
}
