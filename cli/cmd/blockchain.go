package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"chainview/core/render"
	"chainview/types/chain"
)

var blockchainCmd = &cobra.Command{
	Use:   "blockchain",
	Short: "Show the blockchain",
	Example: `  chainview blockchain
  chainview blockchain --start 0 --end 5
  chainview blockchain --length`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		lengthOnly, _ := cmd.Flags().GetBool("length")
		start, _ := cmd.Flags().GetInt("start")
		end, _ := cmd.Flags().GetInt("end")
		ranged := cmd.Flags().Changed("start") || cmd.Flags().Changed("end")
		if lengthOnly && ranged {
			return errors.New("--length cannot be combined with --start/--end")
		}

		s, err := openSession(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer s.Close()
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if lengthOnly {
			n, err := s.client.BlockchainLength(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, n)
			return nil
		}
		var blocks []chain.Block
		if ranged {
			blocks, err = s.client.BlockchainRange(ctx, start, end)
		} else {
			blocks, err = s.client.Blockchain(ctx)
		}
		if err != nil {
			return err
		}
		return render.Blocks{Format: format}.List(out, blocks)
	},
}

func init() {
	rootCmd.AddCommand(blockchainCmd)
	addOutputFlag(blockchainCmd)
	blockchainCmd.Flags().Int("start", 0, "first block of the range, counted from the tip")
	blockchainCmd.Flags().Int("end", 5, "end of the range (exclusive)")
	blockchainCmd.Flags().Bool("length", false, "print only the number of blocks")
}
