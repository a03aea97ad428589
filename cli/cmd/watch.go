package cmd

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chainview/core/clock"
	"chainview/core/nav"
	"chainview/core/notify"
	"chainview/core/pool"
	"chainview/core/render"
	"chainview/core/storage"
	"chainview/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the interactive app on the transaction pool",
	Long: `Open the interactive app. The transaction pool page refreshes every 10 UI seconds
(see --seconds-ms); type m to mine, help for navigation.`,
	Example: `  chainview watch
  chainview watch --start / --seconds-ms 200`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		start, _ := cmd.Flags().GetString("start")
		verbose, _ := cmd.Flags().GetBool("verbose")
		var console io.Writer = io.Discard
		if verbose {
			console = os.Stderr
		}
		s, err := openSession(cmd, console)
		if err != nil {
			return err
		}
		defer s.Close()

		store, err := s.openStore()
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		app, err := buildApp(s, store, start, format, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return app.Run(ctx, cmd.InOrStdin())
	},
}

// buildApp wires every page of the interactive app to the session's client.
func buildApp(s *session, store *storage.Storage, start string, format render.Format, out io.Writer) (*ui.App, error) {
	history := nav.NewHistory(start)
	app := ui.NewApp(history, out)
	notifier := notify.NewWriter(app.Output())

	cfg := pool.Config{
		Source:    s.client,
		Miner:     s.client,
		Clock:     clock.Real(),
		Interval:  s.cfg.PollInterval(),
		Navigator: history,
		Notifier:  notifier,
		Renderer:  render.Transactions{Format: format},
		OnChange:  app.Redraw,
	}
	if store != nil {
		cfg.Recorder = store
	}
	poolView, err := pool.New(cfg)
	if err != nil {
		return nil, err
	}

	app.Register(nav.RouteHome, ui.NewHome(s.client))
	app.Register(nav.RouteBlockchain, ui.NewBlockchain(s.client, format))
	app.Register(nav.RouteConductTransaction, ui.NewConductTransaction(s.client, history, notifier))
	app.Register(nav.RouteTransactionPool, poolView)
	return app, nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addOutputFlag(watchCmd)
	watchCmd.Flags().String("start", nav.RouteTransactionPool, "route to open first")
}
