package plans

import (
	"time"

	"budgetcare/internal/core"
)

const organizationID = "ngo-001"

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Seed returns the built-in plans used when no plans file is configured.
func Seed() []core.BudgetPlan {
	return []core.BudgetPlan{
		{
			ID:             "plan-2025",
			OrganizationID: organizationID,
			Name:           "Plan budgétaire 2025",
			Owner:          "Agnès Mbarga",
			FiscalPeriod:   core.FiscalPeriod{Start: "2025-01-01", End: "2025-12-31"},
			TotalBudget:    150000000,
			Currency:       "XAF",
			Status:         core.PlanValidated,
			Categories: []core.Category{
				{ID: "cat-education", Label: "Education inclusive", Owner: "Agnès Mbarga", Allocated: 48000000, Utilized: 32000000, Notes: "Priorité équipements pédagogiques et bourses"},
				{ID: "cat-health", Label: "Santé communautaire", Owner: "Eric Nganou", Allocated: 42000000, Utilized: 31000000, Notes: "Opérations cliniques mobiles et stocks pharmaceutiques"},
				{ID: "cat-climate", Label: "Agroécologie et climat", Owner: "Fanny Essama", Allocated: 28000000, Utilized: 9000000, Notes: "Reboisement zones critiques et kits coopératives"},
				{ID: "cat-ops", Label: "Fonctionnement et conformité", Owner: "Service Finance", Allocated: 32000000, Utilized: 18000000, Notes: "Audit externe, systèmes d'information et contingence"},
			},
			Objectives: []string{
				"Stabiliser les programmes prioritaires tout en gardant 20% de réserve",
				"Garantir la conformité bailleurs UNICEF et AFD",
				"Accélérer l'autonomie des coopératives agroécologiques",
			},
			UpdatedAt: mustTime("2025-11-28T09:15:00Z"),
		},
		{
			ID:             "plan-2024-reforecast",
			OrganizationID: organizationID,
			Name:           "Reforecast S2 2024",
			Owner:          "Comité Budget",
			FiscalPeriod:   core.FiscalPeriod{Start: "2024-07-01", End: "2024-12-31"},
			TotalBudget:    72000000,
			Currency:       "XAF",
			Status:         core.PlanReforecast,
			Categories: []core.Category{
				{ID: "cat-education-2024", Label: "Education inclusive", Owner: "Agnès Mbarga", Allocated: 25000000, Utilized: 21000000},
				{ID: "cat-health-2024", Label: "Santé communautaire", Owner: "Eric Nganou", Allocated: 22000000, Utilized: 19500000},
				{ID: "cat-ops-2024", Label: "Fonctionnement et conformité", Owner: "Service Finance", Allocated: 25000000, Utilized: 20000000, Notes: "Renfort logistique S2"},
			},
			Objectives: []string{
				"Réattribuer les reliquats suite au glissement de planning",
				"Assurer l'ajustement des salaires terrain face à l'inflation",
			},
			UpdatedAt: mustTime("2024-10-15T17:45:00Z"),
		},
		{
			ID:             "plan-2026-draft",
			OrganizationID: organizationID,
			Name:           "Plan budgétaire 2026 (brouillon)",
			Owner:          "Service Finance",
			FiscalPeriod:   core.FiscalPeriod{Start: "2026-01-01", End: "2026-12-31"},
			TotalBudget:    90000000,
			Currency:       "XAF",
			Status:         core.PlanDraft,
			Categories: []core.Category{
				{ID: "draft-rapid-response", Label: "Réponse rapide", Owner: "Eric Nganou", Allocated: 12000000, Notes: "Stocks d'urgence saison sèche"},
				{ID: "draft-education", Label: "Education inclusive", Owner: "Agnès Mbarga", Allocated: 40000000},
			},
			Objectives: []string{
				"Constituer une réserve d'urgence dédiée",
			},
			UpdatedAt: mustTime("2025-12-01T08:00:00Z"),
		},
	}
}

// SeedRevisions returns the built-in plan revisions.
func SeedRevisions() []core.PlanRevision {
	return []core.PlanRevision{
		{
			ID:      "rev-001",
			PlanID:  "plan-2025",
			Date:    "2025-02-12",
			Author:  "Eric Nganou",
			Type:    core.RevisionAdjustment,
			Summary: "Réallocation d'urgence vers la clinique mobile Nord",
			Impacts: []core.RevisionImpact{
				{Category: "Santé communautaire", Delta: 3000000, Narrative: "Augmentation couverture carburant et maintenance des vans"},
				{Category: "Fonctionnement et conformité", Delta: -3000000, Narrative: "Réduction du budget contingence Q1"},
			},
		},
		{
			ID:      "rev-002",
			PlanID:  "plan-2025",
			Date:    "2025-05-30",
			Author:  "Comité Budget",
			Type:    core.RevisionDonorRequest,
			Summary: "Alignement sur nouvelle matrice UNICEF",
			Impacts: []core.RevisionImpact{
				{Category: "Education inclusive", Delta: 2500000, Narrative: "Financement de 1 200 kits STEM filles"},
			},
		},
		{
			ID:      "rev-003",
			PlanID:  "plan-2024-reforecast",
			Date:    "2024-09-08",
			Author:  "Service Finance",
			Type:    core.RevisionRiskMitigation,
			Summary: "Gel des dépenses non critiques jusqu'à réception tranche bailleur",
			Impacts: []core.RevisionImpact{
				{Category: "Fonctionnement et conformité", Delta: -1500000, Narrative: "Gel consultants externes"},
			},
		},
	}
}

// SeedExecutions returns the built-in execution reports.
func SeedExecutions() []core.ExecutionEntry {
	return []core.ExecutionEntry{
		{
			ID: "exec-jan", PlanID: "plan-2025", Period: "Janvier 2025",
			Committed: 11800000, Disbursed: 9400000, CompletionRate: 0.78, RiskLevel: core.RiskMedium,
			Highlight: "Lancement des cohortes scolaires et campagne vaccination",
			Blocker:   "Retard d'approvisionnement TICE",
		},
		{
			ID: "exec-mar", PlanID: "plan-2025", Period: "Mars 2025",
			Committed: 14200000, Disbursed: 12600000, CompletionRate: 0.89, RiskLevel: core.RiskLow,
			Highlight: "Achèvement audit externe et signature bailleurs",
		},
		{
			ID: "exec-may", PlanID: "plan-2025", Period: "Mai 2025",
			Committed: 16500000, Disbursed: 14900000, CompletionRate: 0.9, RiskLevel: core.RiskMedium,
			Highlight: "Déploiement de 3 nouvelles cliniques mobiles",
			Blocker:   "Plafond bancaire atteint sur compte projet santé",
		},
		{
			ID: "exec-oct-2024", PlanID: "plan-2024-reforecast", Period: "Octobre 2024",
			Committed: 9800000, Disbursed: 8200000, CompletionRate: 0.84, RiskLevel: core.RiskHigh,
			Highlight: "Maintien des classes communautaires malgré retards de dons",
			Blocker:   "Cash-call bailleur différé de 3 semaines",
		},
	}
}
