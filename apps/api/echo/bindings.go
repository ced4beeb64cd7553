package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ftad-ncr/tapmonitor/core/dashboard"
)

const (
	topParam      = "top"
	defaultTopDiv = 5
)

// RecordQuery binds the record filters from the query string.
type RecordQuery struct {
	dashboard.Query
	Top int
}

func (rq *RecordQuery) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	rq.Search = strings.TrimSpace(data.Get("search"))
	rq.Period = strings.TrimSpace(data.Get("period"))
	rq.District = strings.TrimSpace(data.Get("district"))
	rq.Office = strings.TrimSpace(data.Get("office"))

	rq.Top = defaultTopDiv
	if val := data.Get(topParam); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			rq.Top = n
		}
	}
}
