package cmd

import (
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chainview/api/server"
)

var devnodeCmd = &cobra.Command{
	Use:   "devnode",
	Short: "Run an in-memory stand-in for the blockchain backend",
	Long: `Serve the backend's REST routes from memory for local use. Blocks are appended
without proof of work. --jwt-secret and --api-key make the node require them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer s.Close()

		listen := s.cfg.DevNodeAddr
		if cmd.Flags().Changed("listen") {
			listen, _ = cmd.Flags().GetString("listen")
		}
		maxPool, _ := cmd.Flags().GetInt("max-pool")
		rateLimit, _ := cmd.Flags().GetInt("rate-limit")
		node := server.NewServer(server.Options{
			ListenAddr: listen,
			JWTSecret:  s.cfg.JWTSecret,
			APIKey:     s.cfg.APIKey,
			MaxPool:    maxPool,
			RateLimit:  rateLimit,
		})
		if seed, _ := cmd.Flags().GetBool("seed"); seed {
			node.Ledger().Seed(10, 3, rand.New(rand.NewSource(time.Now().UnixNano())))
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return node.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(devnodeCmd)
	devnodeCmd.Flags().String("listen", "", "listen address (env CHAINVIEW_DEVNODE_ADDR, default localhost:5000)")
	devnodeCmd.Flags().Bool("seed", false, "start with 10 blocks and 3 pending transactions between throwaway wallets")
	devnodeCmd.Flags().Int("max-pool", 1000, "maximum pending transactions")
	devnodeCmd.Flags().Int("rate-limit", 0, "requests per client per minute before a ban (0 disables)")
}
