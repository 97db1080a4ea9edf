package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter jolt.yaml to the current directory",
		Long: `Write a jolt.yaml seeded with the built-in defaults into the current
working directory, ready to be edited. An existing config file is never
overwritten.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := filepath.Join(configFolderPath, configFileName)

			if err := viper.SafeWriteConfigAs(target); err != nil {
				return fmt.Errorf("write %s: %w", target, err)
			}

			cmd.Printf("wrote %s\n", target)

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}
