package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "antexec",
	Short: "Runs user supplied Ant script fragments as one-shot builds",
	Long: `antexec wraps small Ant script fragments in a generated build file, invokes
Ant against it and deletes the transient files afterwards. It also manages
named Ant installations so jobs can pin the distribution they run with.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
