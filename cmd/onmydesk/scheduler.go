package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuongbtq/onmydesk/internal/dateutil"
	"github.com/cuongbtq/onmydesk/internal/scheduler"
)

// NewSchedulerCmd creates the scheduler command group
func NewSchedulerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Run report schedulers",
	}
	cmd.AddCommand(newSchedulerRunCmd())
	return cmd
}

func newSchedulerRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create and process a record for every scheduler due on a date",
		Long: `Run is meant to be called once a day, typically from cron:

  0 6 * * * onmydesk scheduler run`,
		Args: cobra.NoArgs,
		RunE: runSchedulerRunCmd,
	}
	cmd.Flags().StringP("date", "d", "", "Run date as YYYY-MM-DD (default: today)")
	return cmd
}

func runSchedulerRunCmd(cmd *cobra.Command, _ []string) error {
	raw, _ := cmd.Flags().GetString("date")
	date, err := parseRunDate(raw, time.Now())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, err := openServices(ctx, cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	summary, err := svc.Schedulers.RunDue(ctx, date)
	if err != nil {
		return err
	}
	if err := printSummary(cmd.OutOrStdout(), summary); err != nil {
		return err
	}
	if failed := summary.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d schedulers failed", failed, len(summary.Results))
	}
	return nil
}

func parseRunDate(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return now, nil
	}
	date, err := time.Parse(dateutil.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", raw)
	}
	return date, nil
}

func printSummary(w io.Writer, summary *scheduler.RunSummary) error {
	fmt.Fprintf(w, "Schedulers due on %s: %d\n\n", summary.Date.Format(dateutil.DateLayout), len(summary.Results))
	rows := make([][]string, 0, len(summary.Results))
	for _, r := range summary.Results {
		status := "ok"
		if r.Error != "" {
			status = r.Error
		}
		rows = append(rows, []string{r.SchedulerID, r.Report, r.ReportID, status})
	}
	return printTable(w, []string{"Scheduler", "Report", "Record", "Result"}, rows)
}
