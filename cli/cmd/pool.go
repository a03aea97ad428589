package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"chainview/core/pool"
	"chainview/core/render"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "List the pending transaction pool once",
	Example: `  chainview pool
  chainview pool --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		s, err := openSession(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer s.Close()

		txs, err := s.client.Transactions(cmd.Context())
		if err != nil {
			return err
		}
		store, err := s.openStore()
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
			if err := store.SavePool(txs); err != nil {
				log.Printf("[WARN] Failed to record pool snapshot: %v", err)
			}
		}
		return render.Transactions{Format: format}.List(cmd.OutOrStdout(), txs)
	},
}

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask the backend to mine the pending transactions into a block",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer s.Close()

		blk, err := s.client.MineBlock(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, pool.MinedMessage)
		if blk.Hash != "" {
			fmt.Fprintf(out, "Block %s holds %d transaction(s)\n", blk.Hash, len(blk.Data))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(poolCmd)
	rootCmd.AddCommand(mineCmd)
	addOutputFlag(poolCmd)
}
