package plan_test

import (
	"errors"
	"testing"

	"github.com/tactful-app/tactful-backend/internal/plan"
)

// ─── Package table closure ────────────────────────────────────────────────────

func TestResolve_Table(t *testing.T) {
	tests := []struct {
		id           string
		wantMessage  bool
		wantEmail    bool
		wantAnalysis bool
	}{
		{"message", true, false, false},
		{"email", false, true, false},
		{"analysis_message", true, false, true},
		{"analysis_email", false, true, true},
		{"total", true, true, true},
		{"bundle", true, true, true}, // legacy alias of total
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, err := plan.Resolve(tt.id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.WantMessage != tt.wantMessage || p.WantEmail != tt.wantEmail || p.WantAnalysis != tt.wantAnalysis {
				t.Errorf("got (message=%v email=%v analysis=%v), want (%v %v %v)",
					p.WantMessage, p.WantEmail, p.WantAnalysis,
					tt.wantMessage, tt.wantEmail, tt.wantAnalysis)
			}
			if len(p.Stages()) == 0 {
				t.Error("every plan must have at least one stage")
			}
			for _, stage := range p.Stages() {
				if p.TokenBudgets[stage] <= 0 {
					t.Errorf("stage %s has no token budget", stage)
				}
			}
		})
	}
}

func TestResolve_BundleCanonicalisesToTotal(t *testing.T) {
	p, err := plan.Resolve("bundle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Package != "total" {
		t.Errorf("Package = %q, want total", p.Package)
	}
}

func TestResolve_UnknownPackage(t *testing.T) {
	for _, id := range []string{"", "premium", "message_email", "analysis"} {
		_, err := plan.Resolve(id)
		var unknown *plan.UnknownPackageError
		if !errors.As(err, &unknown) {
			t.Errorf("id=%q: want UnknownPackageError, got %v", id, err)
		}
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	p, err := plan.Resolve("  Analysis_Message ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.WantMessage || !p.WantAnalysis || p.WantEmail {
		t.Errorf("unexpected plan: %+v", p)
	}
}

// ─── Budgets ──────────────────────────────────────────────────────────────────

func TestBudgets_Sane(t *testing.T) {
	p, err := plan.Resolve("total")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, field := range []string{plan.FieldMessage, plan.FieldEmail, plan.FieldAnalysis, plan.FieldNotes} {
		b := p.Budget(field)
		if b.Min <= 0 || b.Max <= b.Min {
			t.Errorf("field %s: budget %+v is not 0 < min < max", field, b)
		}
	}
}

func TestStageFields(t *testing.T) {
	tests := []struct {
		stage plan.Stage
		want  []string
	}{
		{plan.StageMessage, []string{plan.FieldMessage}},
		{plan.StageEmail, []string{plan.FieldEmail}},
		{plan.StageAnalysis, []string{plan.FieldAnalysis, plan.FieldNotes}},
	}
	for _, tt := range tests {
		got := plan.StageFields(tt.stage)
		if len(got) != len(tt.want) {
			t.Errorf("stage %s: got %v, want %v", tt.stage, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("stage %s: got %v, want %v", tt.stage, got, tt.want)
			}
		}
	}
}
