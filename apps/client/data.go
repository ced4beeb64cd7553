package main

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	echoapi "github.com/ftad-ncr/tapmonitor/apps/api/echo"
	"github.com/ftad-ncr/tapmonitor/apps/shared"
	"github.com/ftad-ncr/tapmonitor/core/dashboard"
	"github.com/ftad-ncr/tapmonitor/core/override"
	"github.com/ftad-ncr/tapmonitor/core/stats"
)

func queryFlags(cmd *cobra.Command, q *dashboard.Query) {
	cmd.Flags().StringVar(&q.Search, "search", "", "search office, district, division, receiver and provider")
	cmd.Flags().StringVar(&q.Period, "period", "", "only this period")
	cmd.Flags().StringVar(&q.District, "district", "", "only this district")
	cmd.Flags().StringVar(&q.Office, "office", "", "only this office")
}

func queryValues(q dashboard.Query) url.Values {
	vals := make(url.Values)
	for key, val := range map[string]string{"search": q.Search, "period": q.Period, "district": q.District, "office": q.Office} {
		if val != "" {
			vals.Set(key, val)
		}
	}
	return vals
}

func (cli *commandLine) recordsCmd() *cobra.Command {
	var q dashboard.Query

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List TA records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := cli.token()
			if err != nil {
				return err
			}
			var resp echoapi.RecordsResponse
			if err := cli.api.do(cmd.Context(), http.MethodGet, "/v1/data/records", queryValues(q), token, nil, &resp); err != nil {
				return cli.authorized(err)
			}

			rows := make([][]string, 0, len(resp.Records))
			for _, rec := range resp.Records {
				for idx, target := range rec.Targets {
					rows = append(rows, []string{
						rec.Office, rec.District, rec.DivisionSchool, rec.Period, strconv.Itoa(idx), target.Objective, target.CompletionStatus(),
					})
				}
				if len(rec.Targets) == 0 {
					rows = append(rows, []string{rec.Office, rec.District, rec.DivisionSchool, rec.Period, "-", "", ""})
				}
			}
			cli.printf("%s\n", shared.Table([]string{"OFFICE", "DISTRICT", "DIVISION", "PERIOD", "TARGET", "OBJECTIVE", "STATUS"}, rows))
			cli.printf("%d record(s), refreshed %s\n", len(resp.Records), resp.RefreshedAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	queryFlags(cmd, &q)
	return cmd
}

func (cli *commandLine) statsCmd() *cobra.Command {
	var (
		q   dashboard.Query
		top int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show TAP completion statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := cli.token()
			if err != nil {
				return err
			}
			vals := queryValues(q)
			vals.Set("top", strconv.Itoa(top))

			var report stats.Report
			if err := cli.api.do(cmd.Context(), http.MethodGet, "/v1/data/stats", vals, token, nil, &report); err != nil {
				return cli.authorized(err)
			}

			cli.printf("interventions:   %d\n", report.TotalInterventions)
			cli.printf("TA requests:     %d\n", report.TotalTARequests)
			cli.printf("accomplished:    %d\n", report.AccomplishedTAPs)
			cli.printf("partial:         %d\n", report.PartialTAPs)
			cli.printf("unaccomplished:  %d\n", report.UnaccomplishedTAPs)
			cli.printf("pending:         %d\n", report.PendingTAPs)
			cli.printf("resolution rate: %.1f%%\n", report.ResolutionRate)

			if len(report.Divisions) > 0 {
				rows := make([][]string, 0, len(report.Divisions))
				for _, d := range report.Divisions {
					rows = append(rows, []string{d.Division, strconv.Itoa(d.Targets), strconv.Itoa(d.Accomplished)})
				}
				cli.printf("%s\n", shared.Table([]string{"DIVISION", "TARGETS", "ACCOMPLISHED"}, rows))
			}
			return nil
		},
	}
	queryFlags(cmd, &q)
	cmd.Flags().IntVar(&top, "top", 5, "number of divisions listed")
	return cmd
}

func (cli *commandLine) setStatusCmd() *cobra.Command {
	var (
		no               override.NewOverride
		idx              int
		status, ifStatus string
	)

	cmd := &cobra.Command{
		Use:   "set-status --office OFFICE --division DIVISION [--period PERIOD] --target N --status STATUS",
		Short: "Store the completion status of one target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := cli.token()
			if err != nil {
				return err
			}
			no.TargetIndex = &idx
			no.Status = &status
			if cmd.Flags().Changed("if-status") {
				no.IfStatus = &ifStatus
			}

			var resp echoapi.MessageResponse
			if err := cli.api.do(cmd.Context(), http.MethodPost, "/v1/data/update-status", nil, token, no, &resp); err != nil {
				return cli.authorized(err)
			}
			cli.printf("%s\n", resp.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&no.Office, "office", "", "office of the record")
	cmd.Flags().StringVar(&no.Division, "division", "", "division or school of the record")
	cmd.Flags().StringVar(&no.Period, "period", "", "period of the record")
	cmd.Flags().IntVar(&idx, "target", 0, "0-based target index")
	cmd.Flags().StringVar(&status, "status", "", "new completion status")
	cmd.Flags().StringVar(&ifStatus, "if-status", "", "only write when the stored status is this value (\"\" = none stored)")
	return cmd
}

func (cli *commandLine) refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Ask the API to reload the spreadsheet feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := cli.token()
			if err != nil {
				return err
			}
			var resp echoapi.RefreshResponse
			if err := cli.api.do(cmd.Context(), http.MethodPost, "/v1/data/refresh", nil, token, nil, &resp); err != nil {
				return cli.authorized(err)
			}
			cli.printf("%d record(s), %d orphaned override(s)\n", resp.Records, resp.Orphans)
			return nil
		},
	}
}
