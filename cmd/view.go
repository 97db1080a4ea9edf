package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jolt.dev/pkg/jolt/internal/adapter"
	m "jolt.dev/pkg/jolt/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [report]",
		Short: "View a previously saved run report",
		Long: `Render a saved YAML run report. Without an argument the newest report in
the output directory is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveReportPath(args)
			if err != nil {
				return err
			}

			store, err := adapter.NewReportStore()
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := store.LoadRun(path)
			if err != nil {
				return err
			}

			renderReport(cmd, path, report)

			return nil
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

// resolveReportPath picks the explicit argument or the newest report file in
// the configured output directory. Report names embed their timestamp, so
// lexical order is chronological order.
func resolveReportPath(args []string) (m.Path, error) {
	if len(args) == 1 {
		return m.Path(args[0]), nil
	}

	dir := viper.GetString(outputFlagName)

	matches, err := filepath.Glob(filepath.Join(dir, "run-*.yaml"))
	if err != nil {
		return "", fmt.Errorf("scan reports dir: %w", err)
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("no run reports found in %s", dir)
	}

	sort.Strings(matches)

	return m.Path(matches[len(matches)-1]), nil
}

func renderReport(cmd *cobra.Command, path m.Path, report m.RunReport) {
	cmd.Printf("report: %s\n", path)
	cmd.Printf("seed: %d  started: %s\n\n", report.Seed, report.StartedAt)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Program", "Verdict", "Reason"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	for _, file := range report.Files {
		if onlyFailuresFlag && file.Verdict != m.VerdictFail.String() {
			continue
		}

		table.Append([]string{file.Name, file.Verdict, file.Reason})
	}

	table.Render()

	totals := report.Totals
	cmd.Printf("\nfiles: %d  passed: %d  skipped: %d  failed: %d  variants: %d\n",
		totals.Files, totals.Passed, totals.Skipped, totals.Failed, totals.Attempted)
}
