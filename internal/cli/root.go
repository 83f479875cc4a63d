// Package cli команды бинарника scheduler
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	groupTitleColor = color.New(color.FgCyan, color.Bold)
)

// NewRootCmd собирает дерево команд; version печатается по --version и scheduler version
func NewRootCmd(version string) *cobra.Command {
	if version == "" {
		version = "dev"
	}

	root := &cobra.Command{
		Use:     "scheduler",
		Version: version,
		Short:   "Planner of recurring tutoring contracts",
		Long: `scheduler plans recurring weekly lessons between customers and teachers.

It serves the REST API, the optional teacher Telegram bot and manages
database migrations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddGroup(
		&cobra.Group{ID: "runtime", Title: groupTitleColor.Sprint("Runtime:")},
		&cobra.Group{ID: "database", Title: groupTitleColor.Sprint("Database:")},
	)

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the scheduler version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cmd.Root().Version)
		},
	})

	return root
}

// Execute запускает CLI, ошибки печатаются красным в stderr
func Execute(version string) error {
	root := NewRootCmd(version)
	err := root.Execute()
	if err != nil {
		printError(root.ErrOrStderr(), err.Error())
	}
	return err
}
