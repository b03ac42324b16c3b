package main

import (
	"github.com/jamesainslie/unfolder/pkg/unfolder/fold"
	"github.com/jamesainslie/unfolder/pkg/unfolder/output"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <dir>",
	Short: "Show what a refold would do",
	Long: `Status reads dir/.refolding and reports which files a refold would
restore and which it would leave behind. Nothing is moved.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args[0])
	if err != nil {
		return err
	}

	res, err := fold.Status(root)
	if err != nil {
		return err
	}
	return render(cmd, output.FromStatus(res))
}
