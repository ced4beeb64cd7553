package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ftad-ncr/tapmonitor/core/account"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var uname string

	cmd := &cobra.Command{
		Use:   "resetpassword --username USERNAME",
		Short: "Reset an account's password. The password is prompted next.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if uname == "" {
				_ = cmd.Usage()
				return errHelp
			}
			pwd, err := cli.promptPassword(cmd, "Enter password:")
			if err != nil {
				return err
			}
			if err := cli.resetPassword(cmd.Context(), uname, pwd); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cli.out, "password updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "the account's username")
	return cmd
}

func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd string) error {
	acc, err := cli.accountSvc.Get(ctx, uname)
	if err != nil {
		return err
	}
	secret, err := cli.checkPassword(pwd, acc)
	if err != nil {
		return err
	}
	ua := account.UpdateAccount{PasswordHash: secret}
	if err := ua.Validate(cli.validate, acc); err != nil {
		return cli.translate(err)
	}
	_, err = cli.accountSvc.Update(ctx, acc, ua)
	return err
}
