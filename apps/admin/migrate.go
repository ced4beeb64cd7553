package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ftad-ncr/tapmonitor/storage/database"
)

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version, fix)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.migrate(cmd, args)
		},
	}
}

func (cli *commandLine) migrate(cmd *cobra.Command, args []string) error {
	if cli.db == nil {
		return errors.New("migrate requires a database connection")
	}
	return database.GooseRunFunc(cmd.Context(), args[0], cli.db.DB, args[1:]...)
}
