package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sitewatch/internal/app"
	"sitewatch/internal/classify"
)

var (
	sendTestWatchConfig string
	sendTestSeverity    string
)

var sendTestCmd = &cobra.Command{
	Use:   "send-test <site_id>",
	Short: "Send a synthetic notification through the site's channels",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		severity, err := parseSeverity(sendTestSeverity)
		if err != nil {
			return err
		}

		opts := app.SendTestOptions{
			SiteID:          args[0],
			WatchConfigPath: sendTestWatchConfig,
			Severity:        severity,
		}

		return getApp().SendTest(cmd.Context(), opts)
	},
}

func parseSeverity(v string) (classify.Severity, error) {
	switch strings.ToUpper(v) {
	case "INFO":
		return classify.Info, nil
	case "WARN":
		return classify.Warn, nil
	case "FAIL":
		return classify.Fail, nil
	default:
		return classify.Info, fmt.Errorf("invalid --severity value %q (want INFO, WARN or FAIL)", v)
	}
}

func init() {
	sendTestCmd.Flags().StringVar(&sendTestWatchConfig, "watch-config", "", "Path to the site watch config (defaults to configs/watch.yaml)")
	sendTestCmd.Flags().StringVar(&sendTestSeverity, "severity", "WARN", "Severity of the synthetic notification (INFO, WARN, FAIL)")
}
