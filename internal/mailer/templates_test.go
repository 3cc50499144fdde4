package mailer

import (
	"strings"
	"testing"
)

func TestRenderKnownReasons(t *testing.T) {
	ts := NewTemplateStore()

	tests := []struct {
		reason      string
		wantSubject string
	}{
		{"3_day_reminder", "We miss you - quick check-in from Acme Platform"},
		{"7_day_check_in", "Need help with Acme Platform?"},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			subject, body, err := ts.Render(tt.reason, map[string]interface{}{"name": "Alice"})
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", subject, tt.wantSubject)
			}
			if !strings.Contains(body, "Hi Alice,") {
				t.Errorf("body should greet by name:\n%s", body)
			}
			if !strings.Contains(body, "Acme Support Team") {
				t.Errorf("body missing signature:\n%s", body)
			}
		})
	}
}

func TestRenderDefaultName(t *testing.T) {
	ts := NewTemplateStore()

	_, body, err := ts.Render("3_day_reminder", map[string]interface{}{"name": ""})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(body, "Hi there,") {
		t.Errorf("empty name should fall back to default:\n%s", body)
	}
}

func TestRenderUnsupportedReason(t *testing.T) {
	ts := NewTemplateStore()

	_, _, err := ts.Render("escalate_14_plus", nil)
	if err == nil {
		t.Fatal("escalation has no email template and must error")
	}
	if !strings.Contains(err.Error(), "unsupported reason") {
		t.Errorf("error = %v", err)
	}
}

func TestReasons(t *testing.T) {
	reasons := NewTemplateStore().Reasons()
	if len(reasons) != 2 {
		t.Errorf("got %d reasons, want 2: %v", len(reasons), reasons)
	}
}
