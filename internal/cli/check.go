package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const interruptCode = 130

var (
	checkWatchConfig string
	checkDryRun      bool
)

var checkCmd = &cobra.Command{
	Use:   "check <site_id>",
	Short: "Run one health check and exit with the outcome status code",
	Long: `Fetches the configured site, validates its content expectations and
compares it against recorded history. The process status code reports
the outcome: 0 for a healthy site, 2 for a degradation warning, 3 for
a hard failure.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		code := getApp().RunCheck(ctx, args[0], checkWatchConfig, checkDryRun)
		if ctx.Err() != nil {
			code = interruptCode
		}
		if code != 0 {
			os.Exit(code)
		}
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkWatchConfig, "watch-config", "", "Path to the site watch config (defaults to configs/watch.yaml)")
	checkCmd.Flags().BoolVar(&checkDryRun, "dry-run", false, "Print the report to the console instead of notifying")
}
