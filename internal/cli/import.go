package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sjohnston82/tome-tracker1/internal/config"
	"github.com/sjohnston82/tome-tracker1/internal/importers"
	"github.com/sjohnston82/tome-tracker1/internal/services"
)

type importOptions struct {
	DatabasePath string
	Username     string
	Format       string
	Mapping      string
	DryRun       bool
	Verbose      bool
}

func newImportCommand() *cobra.Command {
	opts := importOptions{}

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a Goodreads, StoryGraph or generic CSV export into the catalog",
		Long: `Import a spreadsheet export directly into the local catalog database.

The format and column mapping are detected from the header row unless
given explicitly. Rows whose ISBN is already in the catalog are counted
as duplicates and skipped.`,
		Example: `  tome import goodreads_library_export.csv
  tome import books.csv --mapping '{"title":"Name","author":"Writer"}'
  tome import books.csv --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.DatabasePath, "db", config.DefaultDatabasePath, "path to the catalog database")
	cmd.Flags().StringVarP(&opts.Username, "user", "u", "default", "user that owns the imported books")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "export format: goodreads, storygraph or csv (default: detected)")
	cmd.Flags().StringVarP(&opts.Mapping, "mapping", "m", "", "column mapping as JSON (default: suggested from headers)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "show the detected format and mapping without importing")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "print every row error")
	return cmd
}

func runImport(ctx context.Context, out io.Writer, path string, opts importOptions) error {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return fmt.Errorf("only .csv files are supported: %s", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	catalog, err := openCatalog(opts.DatabasePath)
	if err != nil {
		return err
	}
	defer catalog.Close()

	importer := services.NewImportService(services.NewCatalogImportStore(catalog.books))

	preview, err := importer.Preview(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	mapping := preview.SuggestedMapping
	if opts.Mapping != "" {
		mapping = importers.Mapping{}
		if err := json.Unmarshal([]byte(opts.Mapping), &mapping); err != nil {
			return fmt.Errorf("invalid --mapping: %w", err)
		}
	}
	format := string(preview.Format)
	if opts.Format != "" {
		format = opts.Format
	}

	fmt.Fprintf(out, "File:    %s\n", path)
	fmt.Fprintf(out, "Format:  %s\n", format)
	fmt.Fprintf(out, "Rows:    %d\n", preview.TotalRows)
	printMapping(out, mapping)

	if opts.DryRun {
		fmt.Fprintln(out, "\nDRY RUN - nothing imported")
		return nil
	}

	user, err := catalog.user(ctx, opts.Username)
	if err != nil {
		return err
	}

	result, err := importer.ExecuteCSV(ctx, user.ID, bytes.NewReader(raw), &mapping, format)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nImported:   %d\n", result.Imported)
	fmt.Fprintf(out, "Duplicates: %d\n", result.Duplicates)
	fmt.Fprintf(out, "Errors:     %d\n", len(result.Errors))
	if opts.Verbose {
		for _, rowErr := range result.Errors {
			fmt.Fprintf(out, "  row %d: %s\n", rowErr.Row, rowErr.Error)
		}
	}
	return nil
}

func printMapping(out io.Writer, m importers.Mapping) {
	fields := []struct {
		name   string
		column *string
	}{
		{"title", m.Title},
		{"author", m.Author},
		{"isbn", m.ISBN},
		{"series name", m.SeriesName},
		{"series number", m.SeriesNumber},
		{"publisher", m.Publisher},
		{"publication year", m.PublicationYear},
	}

	fmt.Fprintln(out, "Mapping:")
	for _, f := range fields {
		column := "-"
		if f.column != nil {
			column = *f.column
		}
		fmt.Fprintf(out, "  %-17s %s\n", f.name, column)
	}
}
