package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ibportal/backend/internal/domain/grid"
	"github.com/ibportal/backend/internal/domain/portal"
	"github.com/ibportal/backend/internal/infrastructure/export"
)

type exportOptions struct {
	page        string
	rowsFile    string
	format      string
	pagesFile   string
	outDir      string
	query       string
	selects     map[string]string
	from        string
	to          string
	sort        string
	dir         string
	orientation string
	verbose     bool
	now         func() time.Time
}

func newRootCmd() *cobra.Command {
	opts := &exportOptions{now: time.Now}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a portal page from a saved payload",
		Long: `Export renders the rows of a portal page to an xlsx or pdf file.

The rows file is the JSON array the gateway returned for the page. Filters and
sort are applied the same way the portal applies them, and the whole filtered
set is exported.

Examples:
  # Export the commissions page to a spreadsheet
  export --page commissions --rows commissions.json

  # Active clients registered in March, as PDF
  export --page clients --rows clients.json --format pdf \
    --select status=active --from 2024-03-01 --to 2024-03-31`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, rows, err := runExport(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", rows, path)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.page, "page", "p", "", "page id from the catalog")
	f.StringVarP(&opts.rowsFile, "rows", "r", "", "JSON file with the page rows")
	f.StringVarP(&opts.format, "format", "f", string(export.FormatXLSX), "output format: xlsx or pdf")
	f.StringVar(&opts.pagesFile, "pages-file", "", "page catalog YAML (default: built-in catalog)")
	f.StringVarP(&opts.outDir, "out", "o", ".", "output directory")
	f.StringVarP(&opts.query, "query", "q", "", "free-text search")
	f.StringToStringVar(&opts.selects, "select", nil, "select filter as key=value (repeatable)")
	f.StringVar(&opts.from, "from", "", "start of the date range")
	f.StringVar(&opts.to, "to", "", "end of the date range")
	f.StringVar(&opts.sort, "sort", "", "column key to sort by")
	f.StringVar(&opts.dir, "dir", string(grid.Ascending), "sort direction: asc or desc")
	f.StringVar(&opts.orientation, "orientation", string(export.Landscape), "pdf orientation: portrait or landscape")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress")
	_ = cmd.MarkFlagRequired("page")
	_ = cmd.MarkFlagRequired("rows")

	return cmd
}

// runExport writes the export file and returns its path and row count
func runExport(ctx context.Context, opts *exportOptions) (string, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := zap.NewNop()
	if opts.verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			log = l
		}
	}

	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return "", 0, err
	}

	catalog, err := portal.LoadCatalogFile(opts.pagesFile)
	if err != nil {
		return "", 0, err
	}
	page, err := catalog.Find(opts.page)
	if err != nil {
		return "", 0, fmt.Errorf("page %q: %w", opts.page, err)
	}

	data, err := os.ReadFile(opts.rowsFile)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read rows: %w", err)
	}
	rows, err := grid.RowsFromJSON(data)
	if err != nil {
		return "", 0, err
	}
	if page.Aggregate != nil {
		var skipped int
		rows, skipped = page.Aggregate.Apply(rows)
		if skipped > 0 {
			log.Warn("Rows without a parseable date were left out of the aggregation", zap.Int("skipped", skipped))
		}
	}

	g := grid.New(rows, page.GridConfig(nil))
	state := grid.State{
		Query:   opts.query,
		Selects: opts.selects,
		From:    opts.from,
		To:      opts.to,
		Page:    1,
	}
	if opts.sort != "" {
		state.Sort = grid.SortState{Key: opts.sort, Direction: grid.Direction(strings.ToLower(opts.dir))}
	}
	if err := g.Restore(state); err != nil {
		return "", 0, fmt.Errorf("invalid filters: %w", err)
	}

	table, err := g.ExportTable()
	if err != nil {
		if errors.Is(err, grid.ErrEmptyExport) {
			return "", 0, errors.New("no rows match the filters")
		}
		return "", 0, err
	}

	exporter := export.NewExporter(
		export.WithLogger(log),
		export.WithOptions(export.Options{
			Orientation:    export.Orientation(opts.orientation),
			MaxColumnWidth: export.DefaultOptions().MaxColumnWidth,
		}),
	)
	defer exporter.Close()

	out, err := exporter.Export(ctx, table, format)
	if err != nil {
		return "", 0, err
	}

	path := filepath.Join(opts.outDir, export.Filename(opts.now(), format))
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", 0, fmt.Errorf("failed to write export: %w", err)
	}
	log.Info("Export written", zap.String("path", path), zap.Int("rows", table.Len()))
	return path, table.Len(), nil
}
