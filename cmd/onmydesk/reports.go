package main

import (
	"fmt"
	"io"
	"os/user"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cuongbtq/onmydesk/internal/catalog"
	"github.com/cuongbtq/onmydesk/internal/domain"
	"github.com/cuongbtq/onmydesk/internal/report"
)

// NewReportsCmd creates the reports command, listing registered definitions.
// It needs no database.
func NewReportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List the registered report definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := report.NewRegistry()
			if err := catalog.Register(registry); err != nil {
				return err
			}
			return printDefinitions(cmd.OutOrStdout(), registry.Definitions())
		},
	}
}

func printDefinitions(w io.Writer, defs []report.Definition) error {
	rows := make([][]string, 0, len(defs))
	for _, def := range defs {
		fields := make([]string, 0, len(def.Fields))
		for _, f := range def.Fields {
			field := f.Name + ":" + f.Type
			if f.Required {
				field += "*"
			}
			if f.Default != nil {
				field += fmt.Sprintf("=%v", f.Default)
			}
			fields = append(fields, field)
		}
		rows = append(rows, []string{def.Name, def.Title, strings.Join(fields, " ")})
	}
	return printTable(w, []string{"Name", "Title", "Params"}, rows)
}

// NewCreateCmd creates the create command
func NewCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <report>",
		Short: "Create a report record, optionally processing it right away",
		Long: `Create stores a pending record for the named report definition.

Examples:
  onmydesk create onmydesk.StatusSummary --param start=D-30 --param end=D+1
  onmydesk create onmydesk.ProcessTimes --process`,
		Args: cobra.ExactArgs(1),
		RunE: runCreateCmd,
	}

	cmd.Flags().StringArrayP("param", "p", nil, "Report param as key=value (repeatable)")
	cmd.Flags().Bool("process", false, "Process the record in this process after creating it")
	cmd.Flags().String("owner", "", "Owner recorded as created_by (default: current user)")

	return cmd
}

func runCreateCmd(cmd *cobra.Command, args []string) error {
	pairs, _ := cmd.Flags().GetStringArray("param")
	process, _ := cmd.Flags().GetBool("process")
	owner, _ := cmd.Flags().GetString("owner")

	params, err := parseParams(pairs)
	if err != nil {
		return err
	}
	if owner == "" {
		owner = currentUser()
	}

	ctx := cmd.Context()
	svc, err := openServices(ctx, cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	rec, err := svc.Reports.Create(ctx, args[0], params, owner)
	if err != nil {
		return err
	}

	if process {
		// the record holds the failure; still print it
		err = svc.Reports.Process(ctx, rec)
	}
	if printErr := printRecord(cmd.OutOrStdout(), svc.Reports.Label(rec), rec); printErr != nil {
		return printErr
	}
	return err
}

// NewProcessCmd creates the process command. Unlike the queue, it also
// reprocesses records that were already processed.
func NewProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <report-id>",
		Short: "Process a stored report record in this process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := openServices(ctx, cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			rec, err := svc.Reports.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if rec.Status == domain.StatusProcessing {
				return fmt.Errorf("%s is being processed", svc.Reports.Label(rec))
			}

			err = svc.Reports.Process(ctx, rec)
			if printErr := printRecord(cmd.OutOrStdout(), svc.Reports.Label(rec), rec); printErr != nil {
				return printErr
			}
			return err
		},
	}
}

func printRecord(w io.Writer, label string, rec *domain.Report) error {
	rows := [][]string{
		{"Record", label},
		{"Status", rec.Status},
	}
	if rec.ProcessTime.Valid {
		rows = append(rows, []string{"Process time", rec.ProcessTime.Decimal.StringFixed(4) + "s"})
	}
	for _, result := range rec.ResultsAsList() {
		rows = append(rows, []string{"Output", result})
	}
	if rec.ErrorMessage.Valid {
		rows = append(rows, []string{"Error", rec.ErrorMessage.String})
	}
	return printTable(w, []string{"Field", "Value"}, rows)
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}
