package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ftad-ncr/tapmonitor/core"
)

// newRateLimitMiddleware limits requests per client IP at the formatted rate ("20-M").
// An empty or invalid rate disables limiting.
func newRateLimitMiddleware(formatted string, store limiter.Store, logger core.Logger) echo.MiddlewareFunc {
	if formatted == "" {
		return passThrough
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		logger.Warn("invalid auth rate limit, limiting disabled", err, map[string]interface{}{"rate": formatted})
		return passThrough
	}
	if store == nil {
		store = memory.NewStore()
	}
	lim := limiter.New(store, rate)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			lctx, err := lim.Get(ctx.Request().Context(), ctx.RealIP())
			if err != nil {
				return errors.Wrap(err, "checking rate limit")
			}
			h := ctx.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
			if lctx.Reached {
				return errTooManyRequests
			}
			return next(ctx)
		}
	}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
