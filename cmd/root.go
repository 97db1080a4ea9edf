// Package cmd provides the root command and CLI setup for jolt.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"jolt.dev/pkg/jolt/internal/adapter"
	"jolt.dev/pkg/jolt/internal/domain"
	m "jolt.dev/pkg/jolt/internal/model"
)

var goFileAdapter adapter.GoFileAdapter
var fsAdapter adapter.SourceFSAdapter
var projectAdapter adapter.ProjectAdapter
var loader domain.Loader

func init() {
	// Initialize shared dependencies.
	goFileAdapter = adapter.NewLocalGoFileAdapter()
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	projectAdapter = adapter.NewLocalProjectAdapter(fsAdapter)
	loader = domain.NewLoader(fsAdapter, goFileAdapter, projectAdapter)
}

// Exit codes follow the test-program convention: the sentinel 100 means "all
// clear", anything else signals failure.
const (
	exitAllClear   = m.SentinelExitCode
	exitRunFailed  = 1
	exitUsageError = 2
)

// exitCode is set by commands and consumed by Execute.
var exitCode = exitAllClear

// reportsOutputDirFlag is a root-level flag shared by commands that read or
// write run reports.
var reportsOutputDirFlag string

// quietFlag suppresses per-file output.
var quietFlag bool

// verboseFlag enables per-variant output and debug logging.
var verboseFlag bool

// onlyFailuresFlag limits per-file output to failing files.
var onlyFailuresFlag bool

// excludePatterns extends the built-in exclusion list.
var excludePatterns []string

const pathsHelp = `Inputs are single-file test programs or directories of them:
  - testcases/loop1.go       stress one program
  - testcases/ -r            stress every .go file under a directory
  - proj/ -r --projects      treat subdirectories with a go.mod as whole programs`

const rootLongDescription = `Jolt stress-tests the Go backend with semantics-preserving program mutation:
it takes small self-contained test programs known to exit with code 100,
generates syntactically mutated variants expected to behave identically,
compiles and runs each variant, and reports any divergence as evidence of a
code-generation defect.

` + pathsHelp

const runLongDescription = `Mutate, compile and execute every program under the given paths.

Each program must pass unmodified first (the baseline). Every catalog mutator
is then applied to a fresh copy and the variant must still exit with the
sentinel code 100.

` + pathsHelp

const listLongDescription = `List the programs under the given paths with the number of blocks each
catalog mutator could rewrite, without compiling or executing anything.

` + pathsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jolt",
		Short: "Semantics-preserving mutation stress for the Go backend",
		Long:  rootLongDescription,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(
		&reportsOutputDirFlag, outputFlagName, "o",
		viper.GetString(outputFlagName),
		"output directory for run reports",
	)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().BoolVarP(&quietFlag, quietFlagName, "q", false, "suppress per-file output")
	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "print per-variant results and debug logs")
	cmd.PersistentFlags().BoolVar(&onlyFailuresFlag, onlyFailuresFlagName, false, "print failing files only")

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude files whose name contains the given text (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values
// feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitUsageError)
	}

	os.Exit(exitCode)
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
