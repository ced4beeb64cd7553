package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/account"
	"github.com/ftad-ncr/tapmonitor/core/dashboard"
	"github.com/ftad-ncr/tapmonitor/core/override"
	"github.com/ftad-ncr/tapmonitor/services/insights"
)

var (
	errUnauthorized    = echo.NewHTTPError(http.StatusUnauthorized, "operator not authenticated")
	errTooManyRequests = echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")

	// domainErrors maps service errors to HTTP status codes. Their message is sent as is.
	domainErrors = map[error]int{
		account.ErrNotFound:             http.StatusNotFound,
		account.ErrIncorrectCredentials: http.StatusUnauthorized,
		account.ErrUsernameExists:       http.StatusConflict,
		account.ErrEmailExists:          http.StatusConflict,
		account.ErrReadOnly:             http.StatusForbidden,
		override.ErrStatusConflict:      http.StatusConflict,
		dashboard.ErrSyncFailed:         http.StatusBadGateway,
		insights.ErrDisabled:            http.StatusServiceUnavailable,
	}
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if c, ok := domainErrors[origErr]; ok {
				code = c
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var sess account.Session
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				sess = claims.session()
			}
			logger.Error(msg, errors.Wrap(err, msg), sess)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			body := echo.Map{"error": m}
			// debug responses also carry the wrapped chain
			if _, wrapped := err.(interface{ Cause() error }); wrapped && ctx.Echo().Debug {
				body["detail"] = err.Error()
			}
			message = body
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
