package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"budgetcare/internal/core"
	"budgetcare/internal/export"
)

func (a *app) plansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List budget plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := a.plans.ListPlans(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNOM\tSTATUT\tBUDGET\tCATÉGORIES")
			for _, p := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%d\n",
					p.ID, p.Name, p.Status, core.FormatAmount(p.TotalBudget), p.Currency, len(p.Categories))
			}
			return tw.Flush()
		},
	}
}

func (a *app) summaryCmd() *cobra.Command {
	var planID, categoryID string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show reservation totals and availability for a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			plan, err := a.plans.FindPlan(ctx, planID)
			if err != nil {
				return err
			}
			category, ok := plan.FindCategory(categoryID)
			if !ok {
				return fmt.Errorf("summary %s: %w", categoryID, core.ErrCategoryNotFound)
			}
			sum, err := a.reservations.Summary(ctx, plan.ID, category.ID)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, headerStyle.Render(plan.Name+" / "+category.Label))
			rows := []struct {
				label string
				v     float64
			}{
				{"Alloué", category.Allocated},
				{"Utilisé (budget)", category.Utilized},
				{"Réservé (total)", sum.TotalReserved},
				{"Actif", sum.ActiveAmount},
				{"Converti", sum.UtilizedAmount},
				{"Annulé", sum.CancelledAmount},
				{"Disponible", core.Available(category, sum)},
			}
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s %s\n", r.label, core.FormatAmount(r.v), plan.Currency)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "Plan id")
	cmd.Flags().StringVar(&categoryID, "category", "", "Category id")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	var planID string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a plan's roll-up, revisions and execution reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ov, err := a.reservations.PlanOverview(cmd.Context(), planID)
			if err != nil {
				return err
			}
			cur := ov.Plan.Currency

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, headerStyle.Render(ov.Plan.Name))
			fmt.Fprintf(tw, "Engagé\t%s %s\n", core.FormatAmount(ov.Totals.TotalCommitted), cur)
			fmt.Fprintf(tw, "Taux d'utilisation\t%.1f%%\n", ov.Totals.UtilizationRate*100)
			fmt.Fprintf(tw, "Réserve\t%s %s\n", core.FormatAmount(ov.Totals.Reserve), cur)

			fmt.Fprintln(tw)
			fmt.Fprintln(tw, headerStyle.Render("Révisions"))
			for _, r := range ov.Revisions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s %s\n",
					r.Date, r.Type, r.Author, r.Summary, core.FormatAmount(r.NetDelta()), cur)
			}

			fmt.Fprintln(tw)
			fmt.Fprintln(tw, headerStyle.Render("Exécution"))
			for _, e := range ov.Executions {
				fmt.Fprintf(tw, "%s\t%s / %s %s\t%.0f%%\t%s\t%s\n",
					e.Period, core.FormatAmount(e.Disbursed), core.FormatAmount(e.Committed), cur,
					e.CompletionRate*100, e.RiskLevel, e.Blocker)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "Plan id")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var planID, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a plan's reservations as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := a.reservations.ExportCSV(cmd.Context(), planID)
			if err != nil {
				return err
			}
			if !export.IsDocument(doc) || outPath == "" {
				_, err = fmt.Fprintln(a.out, doc)
				return err
			}
			if err := os.WriteFile(outPath, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintln(a.out, okStyle.Render("Export écrit dans "+outPath))
			return nil
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "Plan id")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (stdout when empty)")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}
