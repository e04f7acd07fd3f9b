// Package cli builds the sleeptracker command tree.
package cli

import (
	"github.com/hrcadm/cadencecase/internal/analysis"
	"github.com/hrcadm/cadencecase/internal/config"
	"github.com/spf13/cobra"
)

var version = "dev"

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sleeptracker",
		Short: "Sleep log service and pattern analyzer",
		Long: `sleeptracker stores sleep sessions, classifies the sleeper's pattern
and composes advice from recent history.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newServeCmd(),
		newAnalyzeCmd(),
	)
	return cmd
}

// newAnalyzer builds the Analyzer from config. A zero TipSeed means a random seed.
func newAnalyzer(cfg *config.Config) *analysis.Analyzer {
	th := analysis.DefaultThresholds()
	th.MinRecordsForPattern = cfg.MinRecordsForPattern
	var picker analysis.TipPicker
	if cfg.TipSeed != 0 {
		picker = analysis.NewRandPicker(cfg.TipSeed)
	}
	return analysis.NewAnalyzer(th, picker)
}
