package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"

	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/account"
	"github.com/ftad-ncr/tapmonitor/core/dashboard"
	"github.com/ftad-ncr/tapmonitor/core/override"
	"github.com/ftad-ncr/tapmonitor/services/insights"
)

type (
	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		AccountSvc  *account.Service
		OverrideSvc *override.Service
		Dashboard   *dashboard.Service
		InsightsSvc *insights.Service
		Validate    *validator.Validate
		Translator  ut.Translator

		// RateStore backs the auth rate limiter (nil = in-memory).
		RateStore limiter.Store
		// Gatherer is exposed under /metrics (nil = prometheus.DefaultGatherer).
		Gatherer       prometheus.Gatherer
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: conf.Server.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	gatherer := s.deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s.app.GET("/", home)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.auth.jwtConfig)
	rateLimit := newRateLimitMiddleware(conf.Server.AuthRateLimit, s.deps.RateStore, s.deps.Logger)

	registerAccountAPI(v1, jwt, rateLimit, accountApi{
		svc:      s.deps.AccountSvc,
		auth:     s.auth,
		validate: s.deps.Validate,
		node:     conf.AppName,
	})
	registerDataAPI(v1, jwt, dataApi{
		overrides: s.deps.OverrideSvc,
		dashboard: s.deps.Dashboard,
		insights:  s.deps.InsightsSvc,
		validate:  s.deps.Validate,
	})
}

// Start blocks serving HTTP. Listener failures are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// GenerateToken signs a session token for sess.
func (s *Server) GenerateToken(sess account.Session) (string, error) {
	return s.auth.GenerateToken(sess)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the FTAD TAP Monitor API!")
}
