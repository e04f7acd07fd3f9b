package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hrcadm/cadencecase/internal"
	"github.com/hrcadm/cadencecase/internal/analysis"
	"github.com/hrcadm/cadencecase/internal/config"
	"github.com/hrcadm/cadencecase/internal/service"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		file   string
		window int
		weekly bool
		asJSON bool
		seed   uint64
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze an exported list of sleep logs",
		Long: `Analyze a JSON array of sleep logs (the format of GET /sleep or the
file backend) without running the server. Thresholds and the analysis window
come from CONFIG_FILE and the environment, as for serve; flags override them.

Examples:
  sleeptracker analyze --file data/sleep_logs.json
  sleeptracker analyze --file export.json --weekly
  cat export.json | sleeptracker analyze --file -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := readLogs(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			cfg, err := config.LoadFrom(os.Getenv("CONFIG_FILE"))
			if err != nil {
				return err
			}
			if seed != 0 {
				cfg.TipSeed = seed
			}
			a := newAnalyzer(cfg)
			if window <= 0 {
				window = cfg.AnalysisWindow
			}

			out := cmd.OutOrStdout()
			if weekly {
				return printWeekly(out, logs, a, asJSON)
			}

			result, err := a.Analyze(service.ToRecords(service.RecentRated(logs, window)))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, result)
			}
			fmt.Fprintln(out, result.Advice)
			if len(result.Forecast) > 0 {
				fmt.Fprintln(out)
				for _, line := range result.Forecast {
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with sleep logs, - for stdin")
	cmd.Flags().IntVar(&window, "window", 0, "number of recent rated logs to analyze (default ANALYSIS_WINDOW)")
	cmd.Flags().BoolVar(&weekly, "weekly", false, "print the weekly report ending at the newest log")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for the tip picker")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readLogs(stdin io.Reader, path string) ([]internal.SleepLog, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var logs []internal.SleepLog
	if err := json.NewDecoder(r).Decode(&logs); err != nil {
		return nil, fmt.Errorf("decode sleep logs: %w", err)
	}
	for i := range logs {
		if logs[i].DurationHours == 0 {
			logs[i].DurationHours = logs[i].EndTime.Sub(logs[i].StartTime).Hours()
		}
	}
	return logs, nil
}

func printWeekly(out io.Writer, logs []internal.SleepLog, a *analysis.Analyzer, asJSON bool) error {
	var report analysis.WeeklyReport
	if len(logs) == 0 {
		report = analysis.WeeklyReport{NoData: true}
	} else {
		sorted := append([]internal.SleepLog(nil), logs...)
		service.SortNewestFirst(sorted)
		report = service.BuildWeeklyReport(sorted, a, sorted[0].StartTime)
	}
	if asJSON {
		return writeJSON(out, report)
	}
	_, err := fmt.Fprintln(out, analysis.RenderWeekly(report))
	return err
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
