package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fdam/assessment-planner/internal/cli"
)

func main() {
	command := NewAssessmentCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewAssessmentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assessment [flags] [options]",
		Short: "assessment drives fire and smoke damage assessments from the command line.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdAssess())
	cmd.AddCommand(cli.NewCmdChat())

	return cmd
}
