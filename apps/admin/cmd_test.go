package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftad-ncr/tapmonitor/apps/shared"
	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/account"
	"github.com/ftad-ncr/tapmonitor/core/override"
	"github.com/ftad-ncr/tapmonitor/storage/database"
	"github.com/ftad-ncr/tapmonitor/testutil"
)

const goodPwd = "Tap-m0nitor"

type fixture struct {
	cli         *commandLine
	out         *bytes.Buffer
	accountRepo account.Repository
}

func setup(t *testing.T) fixture {
	t.Helper()

	conf := &core.Config{
		Overrides: core.OverridesConfig{Backend: shared.BackendMemory},
		Auth: core.AuthConfig{
			Backends: []string{shared.BackendStatic, shared.BackendMemory},
			Admins:   []core.StaticAccount{{Username: "root", PasswordHash: testutil.Secret("root"), SDO: "Regional Office"}},
		},
	}
	backends, err := shared.OpenBackends(context.Background(), conf, shared.BackendOptions{})
	require.NoError(t, err)
	accountRepo, err := backends.AccountRepository()
	require.NoError(t, err)
	overrideRepo, err := backends.OverrideRepository()
	require.NoError(t, err)

	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	logger := testutil.NewLogger()
	validate, translator := shared.NewValidator()
	out := new(bytes.Buffer)
	return fixture{
		cli: &commandLine{
			db:          sqlx.NewDb(mockDB, "postgres"),
			accountSvc:  account.NewService(accountRepo, logger, 0),
			overrideSvc: override.NewService(overrideRepo, logger, 0),
			validate:    validate,
			translator:  translator,
			out:         out,
		},
		out:         out,
		accountRepo: accountRepo,
	}
}

func stubPassword(t *testing.T, pwd string) {
	t.Helper()
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	f := setup(t)

	origRun := database.GooseRunFunc
	t.Cleanup(func() { database.GooseRunFunc = origRun })
	var ran []string
	database.GooseRunFunc = func(_ context.Context, command string, db *sql.DB, args ...string) error {
		require.NotNil(t, db)
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, f.cli.run(tt.args))
		})
	}
	assert.Equal(t, []string{"up", "up-by-one", "up-to", "down", "down-to", "redo", "reset", "status", "version", "fix"}, ran)

	f.cli.db = nil
	assert.EqualError(t, f.cli.run([]string{"migrate", "up"}), "migrate requires a database connection")
}

func Test_commandLine_root(t *testing.T) {
	f := setup(t)

	assert.Equal(t, errHelp, f.cli.run(nil))
	assert.Contains(t, f.out.String(), "adduser")
	assert.Error(t, f.cli.run([]string{"lol"}))
}

func Test_commandLine_addUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []cliTest{
		{name: "no username", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "--username", "jdoe", "--sdo", "SDO-A"}, wantErr: errHelp},
		{name: "weak password", args: []string{"adduser", "--username", "jdoe", "--sdo", "SDO-A"}, pwd: "12345678",
			wantErrStr: "password: password cannot be entirely numeric"},
		{name: "password like username", args: []string{"adduser", "--username", "sdo.bohol", "--sdo", "SDO-A"}, pwd: "sdo.bohol1",
			wantErrStr: "password: password cannot be similar to the username or email"},
		{name: "missing sdo", args: []string{"adduser", "--username", "jdoe"}, pwd: goodPwd,
			wantErrStr: "sdo: this field is required"},
		{name: "static account", args: []string{"adduser", "--username", "root", "--sdo", "SDO-A"}, pwd: goodPwd,
			wantErr: account.ErrReadOnly},
		{name: "create", args: []string{"adduser", "--username", " JDoe ", "--email", "j@x.org", "--sdo", "SDO-A", "--school", "School A"}, pwd: goodPwd},
		{name: "update", args: []string{"adduser", "--username", "jdoe", "--school", "School B"}, pwd: "N3w-secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPassword(t, tt.pwd)
			tt.check(t, f.cli.run(tt.args))
		})
	}

	acc, err := f.accountRepo.FindAccount(ctx, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, "SDO-A", acc.SDO)
	assert.Equal(t, "School B", acc.SchoolName)
	assert.Equal(t, "j@x.org", acc.Email)
	assert.True(t, acc.CheckSecret(account.Digest("N3w-secret")))
	assert.Contains(t, f.out.String(), `account "jdoe" saved (SDO-A)`)
}

func Test_commandLine_resetPassword(t *testing.T) {
	f := setup(t)
	acc := testutil.CreateAccount(t, f.accountRepo, "awe", "mdr", "awe@test.cd", "SDO-A", "")

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "--username", "awe"}, wantErr: errHelp},
		{name: "account not found", args: []string{"resetpassword", "--username", "lol"}, pwd: goodPwd, wantErr: account.ErrNotFound},
		{name: "weak password", args: []string{"resetpassword", "--username", "awe"}, pwd: "short", wantErrStr: "password: password must contain at least 8 characters"},
		{name: "reset", args: []string{"resetpassword", "--username", "AWE"}, pwd: goodPwd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPassword(t, tt.pwd)
			tt.check(t, f.cli.run(tt.args))
		})
	}

	refreshed, err := f.accountRepo.FindAccount(context.Background(), acc.Username)
	require.NoError(t, err)
	assert.NotEqual(t, acc.SecretHash, refreshed.SecretHash)
	assert.True(t, refreshed.CheckSecret(account.Digest(goodPwd)))
	assert.Equal(t, "SDO-A", refreshed.SDO)
}

func Test_commandLine_overrides(t *testing.T) {
	f := setup(t)

	tests := []cliTest{
		{name: "no subcommand", args: []string{"overrides"}, wantErr: errHelp},
		{name: "missing identity", args: []string{"overrides", "set", "--office", "SDO-A", "--status", "Completed"},
			wantErrStr: override.ErrMissingIdentity.Error()},
		{name: "set", args: []string{"overrides", "set", "--office", "SDO-A", "--division", "School A", "--period", "Q1", "--target", "1", "--status", "Completed"}},
		{name: "stale write", args: []string{"overrides", "set", "--office", "SDO-A", "--division", "School A", "--period", "Q1", "--target", "1", "--status", "Ongoing", "--if-status", ""},
			wantErr: override.ErrStatusConflict},
		{name: "conditional write", args: []string{"overrides", "set", "--office", "SDO-A", "--division", "School A", "--period", "Q1", "--target", "1", "--status", "Ongoing", "--if-status", "Completed"}},
		{name: "list", args: []string{"overrides", "list"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, f.cli.run(tt.args))
		})
	}

	out := f.out.String()
	assert.Contains(t, out, "SDO-A / School A / Q1 target 1: Completed")
	assert.Contains(t, out, "SDO-A / School A / Q1 target 1: Ongoing")
	assert.Contains(t, out, "1 override(s)")
	assert.Contains(t, out, "Ongoing")
	assert.Contains(t, out, "admin")
}
