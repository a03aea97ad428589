package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chainview/core/render"
)

var transactCmd = &cobra.Command{
	Use:   "transact",
	Short: "Send coins from the backend wallet",
	Example: `  chainview transact --recipient foo-address --amount 25`,
	RunE: func(cmd *cobra.Command, args []string) error {
		recipient, _ := cmd.Flags().GetString("recipient")
		amount, _ := cmd.Flags().GetFloat64("amount")
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		s, err := openSession(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer s.Close()

		tx, err := s.client.Transact(cmd.Context(), recipient, amount)
		if err != nil {
			return err
		}
		return render.Transactions{Format: format}.RenderTransaction(cmd.OutOrStdout(), tx)
	},
}

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Show the backend wallet's address and balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		s, err := openSession(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer s.Close()

		info, err := s.client.WalletInfo(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if output == "json" {
			b, _ := json.MarshalIndent(info, "", "  ")
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintf(out, "Address: %s\nBalance: %g\n", info.Address, info.Balance)
		return nil
	},
}

var addressesCmd = &cobra.Command{
	Use:   "addresses",
	Short: "List every address known to the chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer s.Close()

		addrs, err := s.client.KnownAddresses(cmd.Context())
		if err != nil {
			return err
		}
		for _, a := range addrs {
			fmt.Fprintln(cmd.OutOrStdout(), a)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transactCmd)
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(addressesCmd)
	addOutputFlag(transactCmd)
	transactCmd.Flags().String("recipient", "", "Recipient address (required)")
	transactCmd.Flags().Float64("amount", 0, "Amount to send (required)")
	walletCmd.Flags().StringP("output", "o", "plain", "Output format: plain|json")
}
