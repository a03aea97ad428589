package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List cached transaction pool snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		output, _ := cmd.Flags().GetString("output")
		s, err := openSession(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer s.Close()

		store, err := s.openStore()
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("no cache directory configured (use --cache-dir)")
		}
		defer store.Close()

		snaps, err := store.ListRecent(limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if output == "json" {
			b, _ := json.MarshalIndent(snaps, "", "  ")
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "%d snapshot(s):\n", len(snaps))
		for i, snap := range snaps {
			fmt.Fprintf(out, "%d. %s | %s | %d transaction(s)\n", i+1, snap.TakenAt.Format("2006-01-02 15:04:05"), snap.ID, len(snap.Transactions))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 20, "maximum snapshots to list")
	historyCmd.Flags().StringP("output", "o", "plain", "Output format: plain|json")
}
