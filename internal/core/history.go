package core

const (
	RevisionAdjustment     RevisionType = "adjustment"
	RevisionDonorRequest   RevisionType = "donor-request"
	RevisionRiskMitigation RevisionType = "risk-mitigation"
)

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type (
	RevisionType string
	RiskLevel    string

	// RevisionImpact is the change a revision made to one category. The
	// category is referenced by label.
	RevisionImpact struct {
		Category  string  `json:"category" toml:"category"`
		Delta     float64 `json:"delta" toml:"delta"`
		Narrative string  `json:"narrative" toml:"narrative"`
	}

	// PlanRevision records an amendment to a plan.
	PlanRevision struct {
		ID      string           `json:"id" toml:"id"`
		PlanID  string           `json:"planId" toml:"plan_id"`
		Date    string           `json:"date" toml:"date"` // YYYY-MM-DD
		Author  string           `json:"author" toml:"author"`
		Type    RevisionType     `json:"type" toml:"type"`
		Summary string           `json:"summary" toml:"summary"`
		Impacts []RevisionImpact `json:"impacts" toml:"impacts"`
	}

	// ExecutionEntry is a periodic execution report for a plan.
	ExecutionEntry struct {
		ID             string    `json:"id" toml:"id"`
		PlanID         string    `json:"planId" toml:"plan_id"`
		Period         string    `json:"period" toml:"period"`
		Committed      float64   `json:"committed" toml:"committed"`
		Disbursed      float64   `json:"disbursed" toml:"disbursed"`
		CompletionRate float64   `json:"completionRate" toml:"completion_rate"`
		RiskLevel      RiskLevel `json:"riskLevel" toml:"risk_level"`
		Highlight      string    `json:"highlight" toml:"highlight"`
		Blocker        string    `json:"blocker,omitempty" toml:"blocker"`
	}

	// PlanTotals is the plan-level roll-up of its categories.
	PlanTotals struct {
		TotalUtilized   float64 `json:"totalUtilized"`
		TotalReserved   float64 `json:"totalReserved"`
		TotalCommitted  float64 `json:"totalCommitted"`
		UtilizationRate float64 `json:"utilizationRate"`
		Reserve         float64 `json:"reserve"`
	}
)

func (t RevisionType) IsValid() bool {
	switch t {
	case RevisionAdjustment, RevisionDonorRequest, RevisionRiskMitigation:
		return true
	}
	return false
}

func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// NetDelta sums the revision's impacts.
func (r PlanRevision) NetDelta() float64 {
	var sum float64
	for _, i := range r.Impacts {
		sum += i.Delta
	}
	return sum
}

// Clone returns a copy that does not share the impacts slice.
func (r PlanRevision) Clone() PlanRevision {
	out := r
	out.Impacts = append([]RevisionImpact(nil), r.Impacts...)
	return out
}

// Totals rolls up the plan's category figures. Committed is utilized plus
// the categories' static reserved amounts; the rate is zero for a plan
// without budget and the reserve never goes below zero.
func Totals(p BudgetPlan) PlanTotals {
	var t PlanTotals
	for _, c := range p.Categories {
		t.TotalUtilized += c.Utilized
		t.TotalReserved += c.Reserved
	}
	t.TotalCommitted = t.TotalUtilized + t.TotalReserved
	if p.TotalBudget != 0 {
		t.UtilizationRate = t.TotalCommitted / p.TotalBudget
	}
	t.Reserve = max(p.TotalBudget-t.TotalCommitted, 0)
	return t
}
