package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/contexttlp/internal/watch"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [vault-dir]",
	Short: "Re-lint the .tlp policy whenever it changes",
	Long:  "Watches the vault root and logs the rule count, policy hash and any problems\neach time .tlp is saved. Runs until interrupted.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	root, err := findRoot(args)
	if err != nil {
		return err
	}

	w, err := watch.New(root, log, func(r watch.Report) {
		for _, d := range r.Diagnostics {
			log.Warn("policy problem", "line", d.Line, "text", d.Text, "message", d.Message)
		}
	})
	if err != nil {
		return err
	}

	r := watch.Check(root)
	if r.Err != nil {
		log.Error("policy unreadable, vault fails closed to RED", "vault", root, "error", r.Err)
	} else {
		log.Info("watching policy", "vault", root, "policy_hash", r.PolicyHash, "rules", r.Rules, "problems", len(r.Diagnostics))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return w.Run(ctx)
}
