package cmd

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jolt.dev/pkg/jolt/internal/adapter"
	"jolt.dev/pkg/jolt/internal/controller"
	"jolt.dev/pkg/jolt/internal/domain"
	m "jolt.dev/pkg/jolt/internal/model"
)

var runSeedFlag int64
var runSizeLimitFlag int
var runTimeLimitFlag time.Duration
var runEHStressFlag bool
var runStructStressFlag bool
var runEmptyBlocksFlag bool
var runRecursiveFlag bool
var runProjectsFlag bool
var runShowResultsFlag bool
var runStopAtFirstFlag bool

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Mutate, compile and execute test programs",
		Long:  runLongDescription,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogger(verboseFlag)

			stats, err := stress(cmd, parsePaths(args))
			if err != nil {
				exitCode = exitRunFailed
				return err
			}

			if !stats.AllClear() {
				exitCode = exitRunFailed
			}

			return nil
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&runSeedFlag, seedFlagName, viper.GetInt64(seedConfigKey), "random seed for the run (0 uses the built-in default)")
	bindFlagToConfig(cmd.Flags().Lookup(seedFlagName), seedConfigKey)

	cmd.Flags().IntVar(&runSizeLimitFlag, sizeLimitFlagName, viper.GetInt(sizeLimitConfigKey), "skip programs larger than this many bytes")
	bindFlagToConfig(cmd.Flags().Lookup(sizeLimitFlagName), sizeLimitConfigKey)

	cmd.Flags().DurationVar(&runTimeLimitFlag, timeLimitFlagName, viper.GetDuration(timeLimitConfigKey), "time budget for one baseline compile+run")
	bindFlagToConfig(cmd.Flags().Lookup(timeLimitFlagName), timeLimitConfigKey)

	cmd.Flags().BoolVar(&runEHStressFlag, ehStressFlagName, false, "add the panic/recover handling mutator family")
	cmd.Flags().BoolVar(&runStructStressFlag, structStressFlagName, false, "add the padded-struct runner mutator family")
	cmd.Flags().BoolVar(&runEmptyBlocksFlag, emptyBlocksFlagName, false, "add the empty-block insertion mutator family")

	cmd.Flags().BoolVarP(&runRecursiveFlag, recursiveFlagName, "r", false, "recurse into subdirectories")
	cmd.Flags().BoolVar(&runProjectsFlag, projectsFlagName, false, "treat subdirectories containing a go.mod as whole programs")

	cmd.Flags().BoolVar(&runShowResultsFlag, showResultsFlagName, false, "print every variant result as it completes")
	cmd.Flags().BoolVar(&runStopAtFirstFlag, stopAtFirstFlagName, false, "stop the run at the first failing file")
}

// stress wires the run-scoped dependencies and drives the whole run.
func stress(cmd *cobra.Command, paths []m.Path) (m.RunStats, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := adapter.NewReportStore()
	if err != nil {
		return m.RunStats{}, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("failed to close report store", "error", err)
		}
	}()

	ui := controller.NewUI(cmd, controller.IsTTY(os.Stdout), controller.DisplayOptions{
		Quiet:        quietFlag,
		Verbose:      verboseFlag,
		OnlyFailures: onlyFailuresFlag,
		ShowResults:  runShowResultsFlag,
	})

	if err := ui.Start(ctx); err != nil {
		return m.RunStats{}, err
	}
	defer ui.Close(ctx)

	toolchain := adapter.NewLocalToolchainAdapter(fsAdapter, verboseFlag)

	driver := domain.NewDriver(loader, toolchain, store, ui, domain.Options{
		EHStress:           runEHStressFlag,
		StructStress:       runStructStressFlag,
		EmptyBlocks:        runEmptyBlocksFlag,
		Recursive:          runRecursiveFlag,
		Projects:           runProjectsFlag,
		StopAtFirstFailure: runStopAtFirstFlag,
		SizeLimit:          viper.GetInt(sizeLimitConfigKey),
		TimeLimit:          viper.GetDuration(timeLimitConfigKey),
		Seed:               viper.GetInt64(seedConfigKey),
		Exclusions:         viper.GetStringSlice(excludeConfigKey),
		ReportsDir:         m.Path(viper.GetString(outputFlagName)),
	})

	return driver.Run(ctx, paths)
}
