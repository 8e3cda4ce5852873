package http

import (
	"errors"
	"net/http"

	"budgetcare/internal/core"
	"budgetcare/internal/export"
	"budgetcare/internal/log"
)

type categorySummaryBody struct {
	PlanID     string       `json:"planId"`
	CategoryID string       `json:"categoryId"`
	Summary    core.Summary `json:"summary"`
	Available  float64      `json:"available"`
	Currency   string       `json:"currency"`
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.ListPlans(r.Context())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Data(map[string]any{"plans": plans}).Write(w)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.plans.FindPlan(r.Context(), pathParam(r, "planID"))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Data(plan).Write(w)
}

func (s *Server) handlePlanOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.planOverview(r.Context(), pathParam(r, "planID"))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Data(ov).Write(w)
}

func (s *Server) handlePlanRevisions(w http.ResponseWriter, r *http.Request) {
	revisions, err := s.plans.Revisions(r.Context(), pathParam(r, "planID"))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Data(map[string]any{"revisions": revisions}).Write(w)
}

func (s *Server) handlePlanExecutions(w http.ResponseWriter, r *http.Request) {
	executions, err := s.plans.Executions(r.Context(), pathParam(r, "planID"))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Data(map[string]any{"executions": executions}).Write(w)
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	planID, categoryID := pathParam(r, "planID"), pathParam(r, "categoryID")

	plan, err := s.plans.FindPlan(ctx, planID)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	if _, ok := plan.FindCategory(categoryID); !ok {
		s.fail(w, r, log.OpRead, core.ErrCategoryNotFound)
		return
	}

	summary, err := s.reservations.Summary(ctx, planID, categoryID)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	available, err := s.reservations.Available(ctx, planID, categoryID)
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Data(categorySummaryBody{
		PlanID:     planID,
		CategoryID: categoryID,
		Summary:    summary,
		Available:  available,
		Currency:   plan.Currency,
	}).Write(w)
}

// handleExport sends the CSV as an attachment. The prose results for an
// empty or unknown plan are sent as plain text with status 200.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	planID := pathParam(r, "planID")

	out, err := s.reservations.ExportCSV(ctx, planID)
	if err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	if !export.IsDocument(out) {
		NewJSONResponse().Raw("text/plain; charset=utf-8", []byte(out)).Write(w)
		return
	}

	var plan *core.BudgetPlan
	if p, err := s.plans.FindPlan(ctx, planID); err == nil {
		plan = &p
	} else if !errors.Is(err, core.ErrPlanNotFound) {
		s.fail(w, r, log.OpExport, err)
		return
	}
	NewJSONResponse().
		Header("Content-Disposition", `attachment; filename="`+export.FileName(plan, s.now())+`"`).
		Raw("text/csv; charset=utf-8", []byte(out)).
		Write(w)
}
