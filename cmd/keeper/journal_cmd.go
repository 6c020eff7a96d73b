package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagJournalLimit int
	flagJournalClear bool
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show past transfer outcomes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if flagJournalClear {
			if err := a.journal.Clear(); err != nil {
				return err
			}
			fmt.Println("journal cleared")
			return nil
		}

		records, err := a.journal.Recent(flagJournalLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("journal is empty")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tOP\tACTION\tKEY\tSIZE")
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
				rec.At.Local().Format(time.RFC3339), rec.Op, rec.Action, rec.Key, rec.Size)
		}
		return w.Flush()
	},
}

func init() {
	journalCmd.Flags().IntVarP(&flagJournalLimit, "limit", "n", 20, "Number of records to show (0 for all)")
	journalCmd.Flags().BoolVar(&flagJournalClear, "clear", false, "Delete all journal records")
	rootCmd.AddCommand(journalCmd)
}
