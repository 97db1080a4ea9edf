package cmd

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"jolt.dev/pkg/jolt/internal/domain/mutators"
)

var listEHStressFlag bool
var listStructStressFlag bool
var listEmptyBlocksFlag bool
var listRecursiveFlag bool
var listProjectsFlag bool

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [paths...]",
		Short: "List test programs and rewritable block counts",
		Long:  listLongDescription,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := mutators.BuildCatalog(mutators.CatalogOptions{
				EHStress:     listEHStressFlag,
				StructStress: listStructStressFlag,
				EmptyBlocks:  listEmptyBlocksFlag,
			})

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Program", "Blocks", "Variants"})
			table.SetBorder(false)
			table.SetCenterSeparator("")

			for _, path := range parsePaths(args) {
				programs, err := loader.Load(path, listRecursiveFlag, listProjectsFlag)
				if err != nil {
					return err
				}

				for _, program := range programs {
					blocks := 0
					for _, file := range program.Files {
						if file.Tree == nil {
							continue
						}
						blocks += mutators.EligibleBlocks(file.Tree)
					}

					table.Append([]string{program.Name, strconv.Itoa(blocks), strconv.Itoa(len(catalog))})
				}
			}

			table.Render()

			return nil
		},
	}

	cmd.Flags().BoolVar(&listEHStressFlag, ehStressFlagName, false, "count with the panic/recover handling mutator family")
	cmd.Flags().BoolVar(&listStructStressFlag, structStressFlagName, false, "count with the padded-struct runner mutator family")
	cmd.Flags().BoolVar(&listEmptyBlocksFlag, emptyBlocksFlagName, false, "count with the empty-block insertion mutator family")
	cmd.Flags().BoolVarP(&listRecursiveFlag, recursiveFlagName, "r", false, "recurse into subdirectories")
	cmd.Flags().BoolVar(&listProjectsFlag, projectsFlagName, false, "treat subdirectories containing a go.mod as whole programs")

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
