package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ftad-ncr/tapmonitor/apps/shared"
	"github.com/ftad-ncr/tapmonitor/core/override"
)

func (cli *commandLine) overridesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overrides",
		Short: "Inspect or edit stored status overrides",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	cmd.AddCommand(cli.listOverridesCmd())
	cmd.AddCommand(cli.setOverrideCmd())
	return cmd
}

func (cli *commandLine) listOverridesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every stored override",
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides := cli.overrideSvc.List(cmd.Context())
			rows := make([][]string, 0, len(overrides))
			for _, o := range overrides {
				updated := ""
				if !o.UpdatedAt.IsZero() {
					updated = o.UpdatedAt.Format("2006-01-02 15:04")
				}
				rows = append(rows, []string{o.Office, o.Division, o.Period, strconv.Itoa(o.TargetIndex), o.Status, o.UpdatedBy, updated})
			}
			_, _ = fmt.Fprintln(cli.out, shared.Table(
				[]string{"OFFICE", "DIVISION", "PERIOD", "TARGET", "STATUS", "BY", "UPDATED"}, rows,
			))
			_, _ = fmt.Fprintf(cli.out, "%d override(s)\n", len(overrides))
			return nil
		},
	}
}

func (cli *commandLine) setOverrideCmd() *cobra.Command {
	var (
		no                override.NewOverride
		idx               int
		status, ifStatus string
	)

	cmd := &cobra.Command{
		Use:   "set --office OFFICE --division DIVISION [--period PERIOD] --target N --status STATUS",
		Short: "Store the completion status of one target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			no.TargetIndex = &idx
			no.Status = &status
			if cmd.Flags().Changed("if-status") {
				no.IfStatus = &ifStatus
			}
			if err := no.Validate(cli.validate); err != nil {
				return cli.translate(err)
			}
			o, err := cli.overrideSvc.Upsert(cmd.Context(), no)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "%s / %s / %s target %d: %s\n", o.Office, o.Division, o.Period, o.TargetIndex, o.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&no.Office, "office", "", "office of the record")
	cmd.Flags().StringVar(&no.Division, "division", "", "division or school of the record")
	cmd.Flags().StringVar(&no.Period, "period", "", "period of the record")
	cmd.Flags().IntVar(&idx, "target", 0, "0-based target index")
	cmd.Flags().StringVar(&status, "status", "", "new completion status")
	cmd.Flags().StringVar(&ifStatus, "if-status", "", "only write when the stored status is this value (\"\" = none stored)")
	cmd.Flags().StringVar(&no.Username, "by", "admin", "author recorded with the override")
	return cmd
}
