package plans

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"budgetcare/internal/core"
)

func TestDefaultPlans(t *testing.T) {
	s := NewDefault()
	plans, err := s.ListPlans(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"plan-2025", "plan-2024-reforecast", "plan-2026-draft"}
	if len(plans) != len(want) {
		t.Fatalf("got %d plans", len(plans))
	}
	for i, id := range want {
		if plans[i].ID != id {
			t.Fatalf("plan %d = %s, want %s", i, plans[i].ID, id)
		}
	}

	p, err := s.FindPlan(context.Background(), "plan-2025")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	c, ok := p.FindCategory("cat-education")
	if !ok || c.Allocated != 48000000 || c.Utilized != 32000000 || c.Reserved != 0 {
		t.Fatalf("cat-education = %+v", c)
	}
}

func TestFindPlanNotFound(t *testing.T) {
	_, err := NewDefault().FindPlan(context.Background(), "plan-1999")
	if !errors.Is(err, core.ErrPlanNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestReturnedPlansAreCopies(t *testing.T) {
	s := NewDefault()
	ctx := context.Background()

	cats, err := s.EditableCategories(ctx, "plan-2026-draft")
	if err != nil {
		t.Fatalf("editable: %v", err)
	}
	cats[0].Allocated = 1

	p, _ := s.FindPlan(ctx, "plan-2026-draft")
	if p.Categories[0].Allocated == 1 {
		t.Fatalf("store data was mutated through a returned copy")
	}
}

const seedTOML = `
[[plans]]
id = "plan-test"
organization_id = "ngo-002"
name = "Plan test"
owner = "Finance"
total_budget = 1000
currency = "USD"
status = "draft"
objectives = ["Tester"]
updated_at = 2025-03-01T10:00:00Z

[plans.fiscal_period]
start = "2025-01-01"
end = "2025-12-31"

[[plans.categories]]
id = "cat-1"
label = "Ligne 1"
owner = "A"
allocated = 600
utilized = 100

[[plans.categories]]
id = "cat-2"
label = "Ligne 2"
owner = "B"
allocated = 400
`

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.toml")
	if err := os.WriteFile(path, []byte(seedTOML), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p, err := s.FindPlan(context.Background(), "plan-test")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if p.Currency != "USD" || !p.IsDraft() || len(p.Categories) != 2 || p.FiscalPeriod.End != "2025-12-31" {
		t.Fatalf("plan = %+v", p)
	}
	if p.UpdatedAt.Year() != 2025 {
		t.Fatalf("updated_at = %v", p.UpdatedAt)
	}
}

func TestNewFromFileFallsBack(t *testing.T) {
	s, err := NewFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing file should fall back: %v", err)
	}
	if _, err := s.FindPlan(context.Background(), "plan-2025"); err != nil {
		t.Fatalf("built-in plans not loaded: %v", err)
	}
}

func TestNewFromFileRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"syntax":      "[[plans]\n",
		"unknown key": "[[plans]]\nid = \"p\"\nstatus = \"draft\"\ncolour = \"red\"\n",
		"bad status":  "[[plans]]\nid = \"p\"\nstatus = \"archived\"\n",
		"duplicate":   "[[plans]]\nid = \"p\"\nstatus = \"draft\"\n[[plans]]\nid = \"p\"\nstatus = \"draft\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "plans.toml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := NewFromFile(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDefaultHistory(t *testing.T) {
	s := NewDefault()
	ctx := context.Background()

	revs, err := s.Revisions(ctx, "plan-2025")
	if err != nil {
		t.Fatalf("revisions: %v", err)
	}
	if len(revs) != 2 || revs[0].ID != "rev-001" || len(revs[0].Impacts) != 2 || revs[0].NetDelta() != 0 {
		t.Fatalf("revisions = %+v", revs)
	}
	revs[0].Impacts[0].Delta = 1
	again, _ := s.Revisions(ctx, "plan-2025")
	if again[0].Impacts[0].Delta != 3000000 {
		t.Fatalf("store data was mutated through a returned copy")
	}

	execs, err := s.Executions(ctx, "plan-2024-reforecast")
	if err != nil {
		t.Fatalf("executions: %v", err)
	}
	if len(execs) != 1 || execs[0].ID != "exec-oct-2024" || execs[0].RiskLevel != core.RiskHigh {
		t.Fatalf("executions = %+v", execs)
	}

	if execs, _ := s.Executions(ctx, "plan-2026-draft"); execs == nil || len(execs) != 0 {
		t.Fatalf("draft executions = %v", execs)
	}
	if _, err := s.Revisions(ctx, "plan-1999"); !errors.Is(err, core.ErrPlanNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := s.Executions(ctx, "plan-1999"); !errors.Is(err, core.ErrPlanNotFound) {
		t.Fatalf("err = %v", err)
	}
}

const historyTOML = `
[[plans]]
id = "plan-test"
status = "validated"

[[revisions]]
id = "rev-a"
plan_id = "plan-test"
date = "2025-04-01"
author = "Comité Budget"
type = "donor-request"
summary = "Avenant bailleur"

[[revisions.impacts]]
category = "Ligne 1"
delta = 1500
narrative = "Extension"

[[executions]]
id = "exec-a"
plan_id = "plan-test"
period = "Avril 2025"
committed = 800
disbursed = 600
completion_rate = 0.75
risk_level = "low"
highlight = "Démarrage"
`

func TestNewFromFileWithHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.toml")
	if err := os.WriteFile(path, []byte(historyTOML), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ctx := context.Background()
	revs, _ := s.Revisions(ctx, "plan-test")
	if len(revs) != 1 || revs[0].Type != core.RevisionDonorRequest || len(revs[0].Impacts) != 1 || revs[0].Impacts[0].Delta != 1500 {
		t.Fatalf("revisions = %+v", revs)
	}
	execs, _ := s.Executions(ctx, "plan-test")
	if len(execs) != 1 || execs[0].CompletionRate != 0.75 || execs[0].Blocker != "" {
		t.Fatalf("executions = %+v", execs)
	}
}

func TestHistoryValidation(t *testing.T) {
	plans := []core.BudgetPlan{{ID: "p", Status: core.PlanDraft}}
	cases := map[string]Option{
		"revision unknown plan":  WithRevisions(core.PlanRevision{ID: "r", PlanID: "q", Type: core.RevisionAdjustment}),
		"revision bad type":      WithRevisions(core.PlanRevision{ID: "r", PlanID: "p", Type: "merge"}),
		"revision without id":    WithRevisions(core.PlanRevision{PlanID: "p", Type: core.RevisionAdjustment}),
		"execution unknown plan": WithExecutions(core.ExecutionEntry{ID: "e", PlanID: "q", RiskLevel: core.RiskLow}),
		"execution bad risk":     WithExecutions(core.ExecutionEntry{ID: "e", PlanID: "p", RiskLevel: "critical"}),
	}
	for name, opt := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := New(plans, opt); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
