package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/account"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var na account.NewAccount

	cmd := &cobra.Command{
		Use:   "adduser --username USERNAME --sdo SDO [--email EMAIL] [--school NAME]",
		Short: "Create an account, or update it when the username is taken. The password is prompted next.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if core.CleanString(na.Username) == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd, "Enter password:")
			if err != nil {
				return err
			}
			sess, err := cli.addUser(cmd.Context(), na, pwd)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "account %q saved (%s)\n", sess.Username, sess.SDO)
			return nil
		},
	}
	cmd.Flags().StringVar(&na.Username, "username", "", "login name of the operator")
	cmd.Flags().StringVar(&na.Email, "email", "", "email address")
	cmd.Flags().StringVar(&na.SDO, "sdo", "", "schools division office")
	cmd.Flags().StringVar(&na.SchoolName, "school", "", "school name")
	return cmd
}

// addUser updates or creates an account.Account
func (cli *commandLine) addUser(ctx context.Context, na account.NewAccount, pwd string) (account.Session, error) {
	na.Username = core.CleanString(na.Username, true /* lower */)
	na.Email = core.CleanString(na.Email, true /* lower */)

	orig, err := cli.accountSvc.Get(ctx, na.Username)
	switch {
	case err == nil:
		secret, err := cli.checkPassword(pwd, orig)
		if err != nil {
			return account.Session{}, err
		}
		ua := account.UpdateAccount{SDO: na.SDO, SchoolName: na.SchoolName, PasswordHash: secret}
		if err := ua.Validate(cli.validate, orig); err != nil {
			return account.Session{}, cli.translate(err)
		}
		return cli.accountSvc.Update(ctx, orig, ua)

	case errors.Cause(err) == account.ErrNotFound:
		secret, err := cli.checkPassword(pwd, account.Account{Username: na.Username, Email: na.Email})
		if err != nil {
			return account.Session{}, err
		}
		na.PasswordHash = secret
		if err := na.Validate(cli.validate); err != nil {
			return account.Session{}, cli.translate(err)
		}
		return cli.accountSvc.Register(ctx, na)

	default:
		return account.Session{}, err
	}
}
