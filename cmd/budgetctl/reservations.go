package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"budgetcare/internal/core"
)

func (a *app) listCmd() *cobra.Command {
	var planID, status, query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := core.Filter{PlanID: planID, Search: query}
			if status != "" && status != "all" {
				f.Status = core.ReservationStatus(status)
				if !f.Status.IsValid() {
					return fmt.Errorf("unknown status %q", status)
				}
			}
			list, err := a.reservations.Search(cmd.Context(), f)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				_, err := fmt.Fprintln(a.out, "Aucune réservation trouvée.")
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPLAN\tCATÉGORIE\tMONTANT\tSTATUT\tOBJET")
			for _, r := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.PlanID, r.CategoryID, core.FormatAmount(r.Amount), r.Status, r.Purpose)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "Restrict to one plan")
	cmd.Flags().StringVar(&status, "status", "all", "active, utilized, cancelled or all")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Search purpose, requester and notes")
	return cmd
}

func (a *app) reserveCmd() *cobra.Command {
	var planID, reservedBy string
	var form core.ReservationForm
	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "Reserve funds on a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.reservations.Create(cmd.Context(), planID, form, reservedBy)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, okStyle.Render(fmt.Sprintf("Réservation %s créée: %s sur %s", r.ID, core.FormatAmount(r.Amount), r.CategoryID)))
			return err
		},
	}
	cmd.Flags().StringVar(&planID, "plan", "", "Plan id")
	cmd.Flags().StringVar(&form.CategoryID, "category", "", "Category id")
	cmd.Flags().StringVar(&form.Amount, "amount", "", "Amount, e.g. 1500000 or \"1 500 000\"")
	cmd.Flags().StringVar(&form.Purpose, "purpose", "", "What the funds are for")
	cmd.Flags().StringVar(&form.Notes, "notes", "", "Optional notes")
	cmd.Flags().StringVar(&reservedBy, "by", "", "Requester")
	for _, name := range []string{"plan", "category", "amount", "purpose", "by"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) convertCmd() *cobra.Command {
	var c core.Conversion
	cmd := &cobra.Command{
		Use:   "convert <id>",
		Short: "Convert an active reservation into an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reservations.Convert(cmd.Context(), args[0], c)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, okStyle.Render("Réservation "+r.ID+" convertie."))
			return err
		},
	}
	cmd.Flags().StringVar(&c.Vendor, "vendor", "", "Vendor paid")
	cmd.Flags().StringVar(&c.Date, "date", "", "Transaction date")
	cmd.Flags().StringVar(&c.TransactionType, "type", "", "Transaction type")
	_ = cmd.MarkFlagRequired("vendor")
	return cmd
}

func (a *app) cancelCmd() *cobra.Command {
	var c core.Cancellation
	cmd := &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an active reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.reservations.Cancel(cmd.Context(), args[0], c)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, okStyle.Render("Réservation "+r.ID+" annulée."))
			return err
		},
	}
	cmd.Flags().StringVar(&c.Reason, "reason", "", "Why the funds are released")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
