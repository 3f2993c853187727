package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/boothdesk/internal/bulk"
	"github.com/verte-zerg/boothdesk/internal/client"
	"github.com/verte-zerg/boothdesk/internal/logging"
	"github.com/verte-zerg/boothdesk/internal/model"
	"github.com/verte-zerg/boothdesk/internal/server"
	"github.com/verte-zerg/boothdesk/internal/stats"
	"github.com/verte-zerg/boothdesk/internal/store"
)

func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Print ranked alliance results for one scope",
		Args:  cobra.NoArgs,
		RunE:  runResultsCmd,
	}
	addKindFlag(cmd)
	addScopeFlag(cmd)
	cmd.Flags().StringVar(&resultsXLSX, "xlsx", "", "also write the results to an xlsx workbook")
	cmd.Flags().IntVar(&resultsWidth, "width", 0, "output width for share bars (default: terminal width)")
	return cmd
}

func runResultsCmd(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	if s.Scope <= 0 {
		return fmt.Errorf("--scope must be > 0")
	}
	if resultsWidth < 0 {
		return fmt.Errorf("--width must be >= 0")
	}
	log, err := logging.New(s.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	c, err := client.New(s.BaseURL, s.Timeout, log)
	if err != nil {
		return err
	}

	kind := model.Kind(s.Kind)
	report, err := stats.BuildReport(cmd.Context(), c, kind, s.Scope, log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	title := fmt.Sprintf("%s results for %s %d", strings.ToUpper(string(kind)[:1])+string(kind)[1:], kind.ScopeName(), s.Scope)
	if err := stats.RenderResultsTable(out, title, report.Ranked, report.Verdicts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(report.Ranked) > 0 {
		if _, err := fmt.Fprintln(out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := stats.RenderSummary(out, report.Summary, report.Totals, len(report.Ranked)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := stats.RenderShareBars(out, report.Totals, resultsWidth, false); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	if resultsXLSX == "" {
		return nil
	}
	if err := writeWorkbook(resultsXLSX, report); err != nil {
		return err
	}
	logErrf("Wrote %s\n", resultsXLSX)
	return nil
}

func writeWorkbook(path string, report stats.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create xlsx dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create xlsx: %w", err)
	}
	if err := stats.ExportXLSX(f, report.Ranked, report.Verdicts); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close xlsx: %w", err)
	}
	return nil
}

func newAssignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign booths to a localbody or wards to an assembly",
		Args:  cobra.NoArgs,
		RunE:  runAssignCmd,
	}
	addKindFlag(cmd)
	cmd.Flags().StringVar(&assignIDs, "ids", "", "comma separated entity ids")
	cmd.Flags().Int64Var(&assignTarget, "target", 0, "localbody id for booths, assembly id for wards")
	cmd.Flags().BoolVar(&assignUnassign, "unassign", false, "clear the assignment instead")
	return cmd
}

func runAssignCmd(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	ids, err := parseIDs(assignIDs)
	if err != nil {
		return err
	}
	if assignUnassign && cmd.Flags().Changed("target") {
		return fmt.Errorf("--target cannot be combined with --unassign")
	}
	var target *int64
	if assignTarget > 0 {
		t := assignTarget
		target = &t
	} else if assignTarget < 0 {
		return fmt.Errorf("--target must be > 0")
	}

	log, err := logging.New(s.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	c, err := client.New(s.BaseURL, s.Timeout, log)
	if err != nil {
		return err
	}
	kind := model.Kind(s.Kind)
	outcome, err := bulk.New(c).Apply(cmd.Context(), bulk.OpFor(kind, assignUnassign), ids, target)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), outcome.Message); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// parseIDs reads a comma separated id list. Empty input yields no ids.
func parseIDs(input string) ([]int64, error) {
	parts := strings.Split(input, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q in --ids", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API from a local database",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&settings.Addr, "addr", settings.Addr, "listen address")
	cmd.Flags().StringSliceVar(&settings.Origins, "origins", nil, "allowed CORS origins (default: any)")
	addStoreFlags(cmd)
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	log, err := logging.New(s.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	st, err := store.Open(s.Driver, s.DSN)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.WithField("driver", s.Driver).Info("database ready")
	return server.New(st, log, s.Origins).ListenAndServe(ctx, s.Addr)
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a CSV or XLSX file into a table",
		Long:  "Import a CSV or XLSX file into a table. Rows are upserted by key.\nTables: " + strings.Join(store.TableNames(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importTable, "table", "", "target table")
	addStoreFlags(cmd)
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	table := strings.ToLower(strings.TrimSpace(importTable))
	if _, ok := store.LookupTable(table); !ok {
		return fmt.Errorf("--table must be one of: %s", strings.Join(store.TableNames(), ", "))
	}
	st, err := store.Open(s.Driver, s.DSN)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	n, err := st.ImportFile(cmd.Context(), table, args[0])
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows into %s\n", n, table); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
