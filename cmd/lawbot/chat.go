package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ibreez3/lawbot/service"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation. Commands:
  /retry   send the last question again
  /clear   start over
  /quit    leave`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	mgr, closeFn, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	sess := mgr.Create()
	defer func() { _ = mgr.Delete(sess.ID) }()

	return repl(cmd, sess, cmd.InOrStdin(), cmd.OutOrStdout())
}

func repl(cmd *cobra.Command, sess *service.Session, in io.Reader, out io.Writer) error {
	ctx := cmd.Context()
	fmt.Fprintln(out, "LawBot: ask about laws and advocacy practices. /retry, /clear, /quit")
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())

		var (
			reply service.Message
			err   error
		)
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			sess.Clear()
			fmt.Fprintln(out, "(conversation cleared)")
			continue
		case "/retry":
			reply, err = sess.Retry(ctx)
		default:
			reply, err = sess.Send(ctx, line)
		}

		switch {
		case errors.Is(err, service.ErrNothingToRetry):
			fmt.Fprintln(out, "(nothing to retry)")
		case err != nil:
			return err
		case reply.IsError:
			fmt.Fprintf(out, "! %s\n  (type /retry to try again)\n", reply.Content)
		default:
			fmt.Fprintln(out, reply.Content)
		}
	}
}
