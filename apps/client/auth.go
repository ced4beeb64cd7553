package main

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	echoapi "github.com/ftad-ncr/tapmonitor/apps/api/echo"
	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/account"
	"github.com/ftad-ncr/tapmonitor/core/session"
)

func (cli *commandLine) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the API is reachable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp echoapi.PingResponse
			if err := cli.api.do(cmd.Context(), http.MethodPost, "/v1/auth/login", nil, "", account.Credentials{Ping: true}, &resp); err != nil {
				return err
			}
			cli.printf("%s (%s)\n", resp.Status, resp.Node)
			return nil
		},
	}
}

func (cli *commandLine) loginCmd() *cobra.Command {
	var uname string

	cmd := &cobra.Command{
		Use:   "login --username USERNAME",
		Short: "Sign in. The password is prompted next.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if core.CleanString(uname) == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd)
			if err != nil {
				return err
			}
			sess, err := cli.login(cmd.Context(), uname, pwd)
			if err != nil {
				return err
			}
			cli.printf("signed in as %s (%s)\n", sess.Username, core.FirstNonEmpty(sess.SchoolName, sess.SDO))
			return nil
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "your username")
	return cmd
}

// login exchanges the credentials for a session; only the password digest leaves the process.
func (cli *commandLine) login(ctx context.Context, uname, pwd string) (session.Session, error) {
	cred := account.Credentials{
		Username:     core.CleanString(uname, true /* lower */),
		PasswordHash: account.Digest(pwd),
	}
	var sess session.Session
	if err := cli.api.do(ctx, http.MethodPost, "/v1/auth/login", nil, "", cred, &sess); err != nil {
		return session.Session{}, err
	}
	if err := cli.store.Replace(sess); err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

func (cli *commandLine) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(*cobra.Command, []string) error {
			if err := cli.store.Clear(); err != nil {
				return err
			}
			cli.printf("signed out\n")
			return nil
		},
	}
}

func (cli *commandLine) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in operator",
		RunE: func(*cobra.Command, []string) error {
			sess, ok := cli.store.Current()
			if !ok {
				return errNotLoggedIn
			}
			cli.printf("username: %s\nsdo:      %s\nschool:   %s\nemail:    %s\n", sess.Username, sess.SDO, sess.SchoolName, sess.Email)
			return nil
		},
	}
}
