package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	echoapi "github.com/ftad-ncr/tapmonitor/apps/api/echo"
	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/account"
	"github.com/ftad-ncr/tapmonitor/core/dashboard"
	"github.com/ftad-ncr/tapmonitor/core/feed"
	"github.com/ftad-ncr/tapmonitor/core/override"
	"github.com/ftad-ncr/tapmonitor/core/session"
	"github.com/ftad-ncr/tapmonitor/services/insights"
	inmemdb "github.com/ftad-ncr/tapmonitor/storage/database/inmem"
	"github.com/ftad-ncr/tapmonitor/testutil"
)

type stubFeed struct{ text string }

func (f stubFeed) FetchRows(context.Context) ([]feed.Row, error) {
	return feed.Tokenize(f.text), nil
}

var feedText = testutil.FeedCSV(
	[]string{"OFFICE", "DISTRICT", "DIVISION/SCHOOL", "PERIOD", "TA RECEIVER", "OBJECTIVE1", "STATUSCOMPLETION1", "OBJECTIVE2", "STATUSCOMPLETION2"},
	[]string{"SDO-A", "D1", "Rizal Elementary", "Q1", "M. Cruz", "Improve reading", "Done", "Train teachers", ""},
	[]string{"SDO-B", "D2", "Mabini High", "Q2", "J. Santos", "Reduce dropouts", "Not yet met", "", ""},
)

type fixture struct {
	cli         *commandLine
	out         *bytes.Buffer
	sessionFile string
	server      *echoapi.Server
}

func setup(t *testing.T) fixture {
	t.Helper()

	conf := &core.Config{AppName: "TAP Monitor", SecretKey: "test-secret", TestMode: true}
	logger := testutil.NewLogger()
	validate, translator := testutil.NewValidator()

	hash, err := bcrypt.GenerateFromPassword([]byte(testutil.Secret("admin pass")), bcrypt.MinCost)
	require.NoError(t, err)
	static := account.NewStaticRepository([]core.StaticAccount{
		{Username: "admin", PasswordHash: string(hash), SDO: "FTAD-REGIONAL", SchoolName: "Main Monitoring Unit"},
	})

	db := inmemdb.Open()
	overrideSvc := override.NewService(inmemdb.NewOverrideRepository(db), logger, 0)
	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		AccountSvc:  account.NewService(account.NewChainRepository(static, inmemdb.NewAccountRepository(db)), logger, 0),
		OverrideSvc: overrideSvc,
		Dashboard:   dashboard.NewService(stubFeed{text: feedText}, overrideSvc, logger, dashboard.Options{}),
		InsightsSvc: insights.NewService(nil, logger),
		Validate:    validate,
		Translator:  translator,
		Gatherer:    prometheus.NewRegistry(),

		DisableReqLogs: true,
	})
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	sessionFile := filepath.Join(t.TempDir(), "session.json")
	store, err := session.NewStore(session.FilePersister{Path: sessionFile})
	require.NoError(t, err)

	out := new(bytes.Buffer)
	return fixture{
		cli: &commandLine{
			store: store,
			api:   newAPIClient(ts.URL+"/", 5*time.Second),
			out:   out,
		},
		out:         out,
		sessionFile: sessionFile,
		server:      server,
	}
}

func stubPassword(t *testing.T, pwd string) {
	t.Helper()
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func assertAPIError(t *testing.T, err error, code int, msg string) {
	t.Helper()
	var aerr apiError
	if assert.True(t, errors.As(err, &aerr), "err = %v", err) {
		assert.Equal(t, code, aerr.Code)
		assert.Equal(t, msg, aerr.Message)
	}
}

func Test_commandLine_ping(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.cli.run([]string{"ping"}))
	assert.Equal(t, "Cloud & Edge Sync Active (TAP Monitor)\n", f.out.String())
}

func Test_commandLine_loggedOut(t *testing.T) {
	f := setup(t)

	assert.Equal(t, errHelp, f.cli.run(nil))
	for _, cmd := range []string{"whoami", "records", "stats", "refresh", "set-status"} {
		t.Run(cmd, func(t *testing.T) {
			assert.Equal(t, errNotLoggedIn, f.cli.run([]string{cmd}))
		})
	}
}

func Test_commandLine_login(t *testing.T) {
	f := setup(t)

	stubPassword(t, "")
	assert.Equal(t, errHelp, f.cli.run([]string{"login"}))
	assert.Equal(t, errHelp, f.cli.run([]string{"login", "--username", "admin"}))

	stubPassword(t, "wrong pass")
	assertAPIError(t, f.cli.run([]string{"login", "--username", "admin"}), http.StatusUnauthorized, "incorrect credentials")
	_, ok := f.cli.store.Current()
	assert.False(t, ok)

	stubPassword(t, "admin pass")
	assertAPIError(t, f.cli.run([]string{"login", "--username", "nobody"}), http.StatusNotFound, "account not found")

	require.NoError(t, f.cli.run([]string{"login", "--username", " Admin "}))
	assert.Contains(t, f.out.String(), "signed in as admin (Main Monitoring Unit)")

	sess, ok := f.cli.store.Current()
	require.True(t, ok)
	assert.Equal(t, "FTAD-REGIONAL", sess.SDO)
	assert.NotEmpty(t, sess.Token)

	// the session survives the process
	reloaded, err := session.NewStore(session.FilePersister{Path: f.sessionFile})
	require.NoError(t, err)
	again, ok := reloaded.Current()
	require.True(t, ok)
	assert.Equal(t, sess, again)

	f.out.Reset()
	require.NoError(t, f.cli.run([]string{"whoami"}))
	assert.Contains(t, f.out.String(), "username: admin")
	assert.Contains(t, f.out.String(), "sdo:      FTAD-REGIONAL")

	require.NoError(t, f.cli.run([]string{"logout"}))
	assert.Equal(t, errNotLoggedIn, f.cli.run([]string{"whoami"}))
	_, err = os.Stat(f.sessionFile)
	assert.True(t, os.IsNotExist(err))
}

func login(t *testing.T, f fixture) {
	t.Helper()
	sess := account.Session{Username: "admin", SDO: "FTAD-REGIONAL", SchoolName: "Main Monitoring Unit"}
	token, err := f.server.GenerateToken(sess)
	require.NoError(t, err)
	require.NoError(t, f.cli.store.Replace(session.Session{Session: sess, Token: token}))
}

func Test_commandLine_records(t *testing.T) {
	f := setup(t)
	login(t, f)

	require.NoError(t, f.cli.run([]string{"records"}))
	out := f.out.String()
	assert.Contains(t, out, "Rizal Elementary")
	assert.Contains(t, out, "Train teachers")
	assert.Contains(t, out, "Mabini High")
	assert.Contains(t, out, "2 record(s)")

	f.out.Reset()
	require.NoError(t, f.cli.run([]string{"records", "--office", "SDO-B"}))
	out = f.out.String()
	assert.NotContains(t, out, "Rizal Elementary")
	assert.Contains(t, out, "Not yet met")
	assert.Contains(t, out, "1 record(s)")

	f.out.Reset()
	require.NoError(t, f.cli.run([]string{"records", "--search", "cruz"}))
	assert.Contains(t, f.out.String(), "1 record(s)")
}

func Test_commandLine_stats(t *testing.T) {
	f := setup(t)
	login(t, f)

	require.NoError(t, f.cli.run([]string{"stats", "--top", "1"}))
	out := f.out.String()
	assert.Contains(t, out, "interventions:   2\n")
	assert.Contains(t, out, "TA requests:     3\n")
	assert.Contains(t, out, "DIVISION")
	assert.Contains(t, out, "Rizal Elementary")
	assert.NotContains(t, out, "Mabini High")
}

func Test_commandLine_setStatus(t *testing.T) {
	f := setup(t)
	login(t, f)
	require.NoError(t, f.cli.run([]string{"records"}))

	args := []string{"set-status", "--office", "SDO-B", "--division", "Mabini High", "--period", "Q2", "--target", "0", "--status", "Completed"}
	f.out.Reset()
	require.NoError(t, f.cli.run(args))
	assert.Contains(t, f.out.String(), "Status synchronized with Cloud DB.")

	assertAPIError(t, f.cli.run(append(args, "--if-status", "")), http.StatusConflict, "status was changed by someone else")
	assertAPIError(t, f.cli.run([]string{"set-status", "--office", "SDO-B", "--status", "Completed"}),
		http.StatusBadRequest, override.ErrMissingIdentity.Error())

	// served at once, no refresh needed
	f.out.Reset()
	require.NoError(t, f.cli.run([]string{"records", "--office", "SDO-B"}))
	assert.Contains(t, f.out.String(), "Completed")

	f.out.Reset()
	require.NoError(t, f.cli.run([]string{"refresh"}))
	assert.Equal(t, "2 record(s), 0 orphaned override(s)\n", f.out.String())
}

func Test_commandLine_staleToken(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.cli.store.Replace(session.Session{
		Session: account.Session{Username: "admin"},
		Token:   "not-a-jwt",
	}))

	assert.Equal(t, errNotLoggedIn, f.cli.run([]string{"records"}))
	_, ok := f.cli.store.Current()
	assert.False(t, ok)
}
