package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ibreez3/lawbot/service"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the failure categories and the message shown for each",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printCategories(cmd)
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
}

func printCategories(cmd *cobra.Command) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "CATEGORY\tRETRIED\tMESSAGE")
	for _, c := range service.ErrorCatalog().Categories {
		_, _ = fmt.Fprintf(w, "%s\t%v\t%s\n", c.Name, c.Retryable, c.Message)
	}
	_ = w.Flush()
}
