package cmd

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"chainview/core/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token signed with the configured JWT secret",
	Example: `  curl -H "Authorization: Bearer $(chainview token --jwt-secret s3cret)" localhost:5000/transactions`,
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		s, err := openSession(cmd, io.Discard)
		if err != nil {
			return err
		}
		defer s.Close()

		src := auth.NewTokenSource(s.cfg.JWTSecret, subject)
		if src == nil {
			return errors.New("no JWT secret configured (use --jwt-secret)")
		}
		token, err := src.WithTTL(ttl).Token()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("subject", "chainview", "token subject")
	tokenCmd.Flags().Duration("ttl", auth.DefaultTTL, "token lifetime")
}
