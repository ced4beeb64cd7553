package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ftad-ncr/tapmonitor/core/account"
	"github.com/ftad-ncr/tapmonitor/core/session"
)

const pingStatus = "Cloud & Edge Sync Active"

type PingResponse struct {
	Status string `json:"status"`
	Node   string `json:"node"`
}

type accountApi struct {
	svc      *account.Service
	auth     *authenticator
	validate *validator.Validate
	node     string
}

func registerAccountAPI(g *echo.Group, jwt, rateLimit echo.MiddlewareFunc, api accountApi) {
	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login, rateLimit)
	ag.POST("/signup", api.signup, rateLimit)

	// authed endpoints
	ag.POST("/update", api.update, jwt)
}

func (api *accountApi) respond(ctx echo.Context, code int, sess account.Session) error {
	token, err := api.auth.GenerateToken(sess)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(code, session.Session{Session: sess, Token: token})
}

// Handlers

func (api *accountApi) login(ctx echo.Context) error {
	var data account.Credentials
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Credentials")
	}
	if data.Ping {
		return ctx.JSON(http.StatusOK, PingResponse{Status: pingStatus, Node: api.node})
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.Authenticate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	return api.respond(ctx, http.StatusOK, sess)
}

func (api *accountApi) signup(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering account")
	}
	return api.respond(ctx, http.StatusCreated, sess)
}

func (api *accountApi) update(ctx echo.Context) error {
	ctxSess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	orig, err := api.svc.Get(ctx.Request().Context(), ctxSess.Username)
	if err != nil {
		return errors.Wrap(err, "getting account")
	}

	var data account.UpdateAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAccount")
	}
	if err := data.Validate(api.validate, orig); err != nil {
		return err
	}

	sess, err := api.svc.Update(ctx.Request().Context(), orig, data)
	if err != nil {
		return errors.Wrap(err, "updating account")
	}
	return api.respond(ctx, http.StatusOK, sess)
}
