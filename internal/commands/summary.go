package commands

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tally/internal/core"
)

func newSummaryCommand() *cobra.Command {
	var byCategory string
	var byMonth bool

	cmd := &cobra.Command{
		Use:   "summary <session-id>",
		Short: "Print ledger totals for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, done, err := loadEngine(cmd, args[0])
			if err != nil {
				return err
			}
			defer done()

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

			switch {
			case byCategory != "":
				kind, err := core.ParseKind(byCategory)
				if err != nil {
					return err
				}
				groups := eng.GroupByCategory(kind)
				names := make([]string, 0, len(groups))
				for name := range groups {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					label := name
					if label == "" {
						label = "(uncategorized)"
					}
					fmt.Fprintf(w, "%s\t%s\n", label, groups[name].StringFixed(2))
				}
			case byMonth:
				buckets := eng.ByMonth()
				months := make([]core.YearMonth, 0, len(buckets))
				for ym := range buckets {
					months = append(months, ym)
				}
				sort.Slice(months, func(i, j int) bool {
					if months[i].Year != months[j].Year {
						return months[i].Year < months[j].Year
					}
					return months[i].Month < months[j].Month
				})
				fmt.Fprintln(w, "month\tincome\texpense\tnet")
				for _, ym := range months {
					t := buckets[ym]
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						ym, t.Income.StringFixed(2), t.Expense.StringFixed(2), t.Net.StringFixed(2))
				}
			default:
				t := eng.Summary()
				fmt.Fprintf(w, "records\t%d\n", eng.Len())
				fmt.Fprintf(w, "income\t%s\n", t.Income.StringFixed(2))
				fmt.Fprintf(w, "expense\t%s\n", t.Expense.StringFixed(2))
				fmt.Fprintf(w, "net\t%s\n", t.Net.StringFixed(2))
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&byCategory, "by-category", "", "group totals by category for the given kind (Income or Expense)")
	cmd.Flags().BoolVar(&byMonth, "by-month", false, "group totals by calendar month")

	return cmd
}
