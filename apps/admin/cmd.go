package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ftad-ncr/tapmonitor/core/account"
	"github.com/ftad-ncr/tapmonitor/core/override"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db          *sqlx.DB
	accountSvc  *account.Service
	overrideSvc *override.Service
	validate    *validator.Validate
	translator  ut.Translator
	out         io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "admin",
		Short:         "TAP Monitor administration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Help()
			return errHelp
		},
	}
	cmd.SetOut(cli.out)
	cmd.SetErr(cli.out)
	cmd.AddCommand(cli.migrateCmd())
	cmd.AddCommand(cli.addUserCmd())
	cmd.AddCommand(cli.resetPasswordCmd())
	cmd.AddCommand(cli.overridesCmd())
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

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	_, _ = fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		_ = cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

// checkPassword applies the password policy and returns the secret to store.
func (cli *commandLine) checkPassword(pwd string, acc account.Account) (string, error) {
	pp := account.PlainPassword{Username: acc.Username, Email: acc.Email, Password: pwd}
	if err := pp.Validate(cli.validate); err != nil {
		return "", cli.translate(err)
	}
	return pp.Digest(), nil
}

func (cli *commandLine) translate(err error) error {
	verrs, ok := errors.Cause(err).(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+": "+fe.Translate(cli.translator))
	}
	return errors.New(strings.Join(msgs, "; "))
}
