package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/nikki/internal/state"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 20, "number of most recent runs to show")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		records, err := state.NewRunStore(cfg.DataDir).Tail(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tTRIGGER\tDATE\tSTATUS\tMESSAGES\tDETAIL")
		for _, r := range records {
			detail := r.DocumentName
			if r.Error != "" {
				detail = r.ErrorKind + ": " + r.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Trigger,
				r.Date,
				r.Status,
				r.MessageCount,
				detail,
			)
		}
		return w.Flush()
	},
}
