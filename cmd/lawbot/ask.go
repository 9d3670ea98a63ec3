package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	mgr, closeFn, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	sess := mgr.Create()
	defer func() { _ = mgr.Delete(sess.ID) }()

	reply, err := sess.Send(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
	if reply.IsError {
		return fmt.Errorf("request failed (%s)", reply.Category)
	}
	return nil
}
