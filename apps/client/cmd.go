package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ftad-ncr/tapmonitor/core/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("not logged in: run login first")
)

type commandLine struct {
	store *session.Store
	api   *apiClient
	out   io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tapmonitor",
		Short:         "FTAD TAP Monitor operator console",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	cmd.SetOut(cli.out)
	cmd.SetErr(cli.out)
	cmd.AddCommand(cli.pingCmd())
	cmd.AddCommand(cli.loginCmd())
	cmd.AddCommand(cli.logoutCmd())
	cmd.AddCommand(cli.whoamiCmd())
	cmd.AddCommand(cli.recordsCmd())
	cmd.AddCommand(cli.statsCmd())
	cmd.AddCommand(cli.setStatusCmd())
	cmd.AddCommand(cli.refreshCmd())
	return cmd
}

// run executes the command line; args exclude the program name.
func (cli *commandLine) run(args []string) error {
	if args == nil {
		args = []string{} // cobra falls back to os.Args on nil
	}
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.Execute()
}

// token returns the API token of the current session.
func (cli *commandLine) token() (string, error) {
	sess, ok := cli.store.Current()
	if !ok {
		return "", errNotLoggedIn
	}
	return sess.Token, nil
}

// authorized maps an expired or revoked token to errNotLoggedIn and drops the stale session.
func (cli *commandLine) authorized(err error) error {
	var aerr apiError
	if errors.As(err, &aerr) && aerr.Code == http.StatusUnauthorized {
		_ = cli.store.Clear()
		return errNotLoggedIn
	}
	return err
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) promptPassword(cmd *cobra.Command) (string, error) {
	cli.printf("Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	cli.printf("\n")
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		_ = cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}
