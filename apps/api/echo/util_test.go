package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	echoapi "github.com/ftad-ncr/tapmonitor/apps/api/echo"
	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/account"
	"github.com/ftad-ncr/tapmonitor/core/dashboard"
	"github.com/ftad-ncr/tapmonitor/core/feed"
	"github.com/ftad-ncr/tapmonitor/core/override"
	"github.com/ftad-ncr/tapmonitor/services/insights"
	inmemdb "github.com/ftad-ncr/tapmonitor/storage/database/inmem"
	"github.com/ftad-ncr/tapmonitor/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type stubFeed struct {
	mu   sync.Mutex
	text string
	err  error
}

func (f *stubFeed) FetchRows(context.Context) ([]feed.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return feed.Tokenize(f.text), nil
}

func (f *stubFeed) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type stubGenerator struct{ text string }

func (g stubGenerator) Generate(context.Context, string, string) (string, error) { return g.text, nil }

type fixture struct {
	server    *echoapi.Server
	logger    *testutil.Logger
	accounts  account.Repository
	overrides override.Repository
	feed      *stubFeed
}

var feedText = testutil.FeedCSV(
	[]string{"TA monitoring sheet"},
	[]string{"OFFICE", "DISTRICT", "DIVISION/SCHOOL", "PERIOD", "TA RECEIVER", "OBJECTIVE1", "STATUSCOMPLETION1", "OBJECTIVE2", "STATUSCOMPLETION2", "QUALITYSTATUS1", "QUALITYISSUE1"},
	[]string{"SDO-A", "D1", "Rizal Elementary", "Q1", "M. Cruz", "Improve reading", "Done", "Train teachers", "", "ok", "none"},
	[]string{"SDO-B", "D2", "Mabini High", "Q2", "J. Santos", "Reduce dropouts", "Not yet met", "", "", "", ""},
)

func setup(t *testing.T, gen insights.Generator, edits ...func(*core.Config)) fixture {
	t.Helper()

	conf := &core.Config{
		AppName:   "TAP Monitor",
		SecretKey: "test-secret",
		TestMode:  true,
		Server:    core.ServerConfig{CORSOrigins: []string{"*"}},
	}
	for _, edit := range edits {
		edit(conf)
	}
	logger := testutil.NewLogger()
	validate, translator := testutil.NewValidator()

	hash, err := bcrypt.GenerateFromPassword([]byte(testutil.Secret("admin pass")), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	static := account.NewStaticRepository([]core.StaticAccount{
		{Username: "admin", PasswordHash: string(hash), SDO: "FTAD-REGIONAL", SchoolName: "Main Monitoring Unit", Email: "admin@ftad-ncr.gov.ph"},
	})

	db := inmemdb.Open()
	accRepo := inmemdb.NewAccountRepository(db)
	ovRepo := inmemdb.NewOverrideRepository(db)
	src := &stubFeed{text: feedText}

	overrideSvc := override.NewService(ovRepo, logger, 0)
	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		AccountSvc:  account.NewService(account.NewChainRepository(static, accRepo), logger, 0),
		OverrideSvc: overrideSvc,
		Dashboard:   dashboard.NewService(src, overrideSvc, logger, dashboard.Options{}),
		InsightsSvc: insights.NewService(gen, logger),
		Validate:    validate,
		Translator:  translator,
		Gatherer:    prometheus.NewRegistry(),

		DisableReqLogs: true,
	})
	return fixture{server: server, logger: logger, accounts: accRepo, overrides: ovRepo, feed: src}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, server *echoapi.Server, sess account.Session) string {
	token, err := server.GenerateToken(sess)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, server http.Handler, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}
