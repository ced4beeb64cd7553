package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ftad-ncr/tapmonitor/core/dashboard"
	"github.com/ftad-ncr/tapmonitor/core/feed"
	"github.com/ftad-ncr/tapmonitor/core/override"
	"github.com/ftad-ncr/tapmonitor/core/stats"
	"github.com/ftad-ncr/tapmonitor/services/insights"
)

const statusSynced = "Status synchronized with Cloud DB."

type (
	OverridesResponse struct {
		Overrides []override.Override `json:"overrides"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}

	RecordsResponse struct {
		Records     []feed.Record           `json:"records"`
		Options     dashboard.FilterOptions `json:"options"`
		RefreshedAt time.Time               `json:"refreshedAt"`
	}

	RefreshResponse struct {
		Records     int       `json:"records"`
		Orphans     int       `json:"orphans"`
		RefreshedAt time.Time `json:"refreshedAt"`
	}

	InsightsResponse struct {
		Insights string `json:"insights"`
	}
)

type dataApi struct {
	overrides *override.Service
	dashboard *dashboard.Service
	insights  *insights.Service
	validate  *validator.Validate
}

func registerDataAPI(g *echo.Group, jwt echo.MiddlewareFunc, api dataApi) {
	dg := g.Group("/data")

	// un-authed endpoints
	dg.GET("/overrides", api.listOverrides)

	// authed endpoints
	ag := dg.Group("", jwt)
	ag.POST("/update-status", api.updateStatus)
	ag.GET("/records", api.records)
	ag.GET("/stats", api.stats)
	ag.POST("/refresh", api.refresh)
	ag.GET("/insights", api.generateInsights)
}

// snapshot returns the current records, refreshing first when nothing was ever loaded.
func (api *dataApi) snapshot(ctx echo.Context) (dashboard.Snapshot, error) {
	snap := api.dashboard.Snapshot()
	if !snap.RefreshedAt.IsZero() {
		return snap, nil
	}
	return api.dashboard.Refresh(ctx.Request().Context())
}

// Handlers

func (api *dataApi) listOverrides(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, OverridesResponse{Overrides: api.overrides.List(ctx.Request().Context())})
}

func (api *dataApi) updateStatus(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var data override.NewOverride
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOverride")
	}
	data.Username = sess.Username
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	o, err := api.overrides.Upsert(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "upserting override")
	}
	api.dashboard.Apply(o)
	return ctx.JSON(http.StatusOK, MessageResponse{Message: statusSynced})
}

func (api *dataApi) records(ctx echo.Context) error {
	var query RecordQuery
	query.Bind(ctx)

	snap, err := api.snapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "loading records")
	}
	return ctx.JSON(http.StatusOK, RecordsResponse{
		Records:     dashboard.Filter(snap.Records, query.Query),
		Options:     dashboard.NewFilterOptions(snap.Records),
		RefreshedAt: snap.RefreshedAt,
	})
}

func (api *dataApi) stats(ctx echo.Context) error {
	var query RecordQuery
	query.Bind(ctx)

	snap, err := api.snapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "loading records")
	}
	return ctx.JSON(http.StatusOK, stats.NewReport(dashboard.Filter(snap.Records, query.Query), query.Top))
}

func (api *dataApi) refresh(ctx echo.Context) error {
	snap, err := api.dashboard.Refresh(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "refreshing")
	}
	return ctx.JSON(http.StatusOK, RefreshResponse{
		Records:     len(snap.Records),
		Orphans:     len(snap.Orphans),
		RefreshedAt: snap.RefreshedAt,
	})
}

func (api *dataApi) generateInsights(ctx echo.Context) error {
	if !api.insights.Enabled() {
		return insights.ErrDisabled
	}
	var query RecordQuery
	query.Bind(ctx)

	snap, err := api.snapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "loading records")
	}
	text, err := api.insights.Generate(ctx.Request().Context(), stats.NewReport(dashboard.Filter(snap.Records, query.Query), query.Top))
	if err != nil {
		return errors.Wrap(err, "generating insights")
	}
	return ctx.JSON(http.StatusOK, InsightsResponse{Insights: text})
}
