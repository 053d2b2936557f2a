package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sjohnston82/tome-tracker1/internal/config"
	"github.com/sjohnston82/tome-tracker1/internal/metadata"
	"github.com/sjohnston82/tome-tracker1/internal/services"
)

type lookupOptions struct {
	DatabasePath string
	Username     string
	JSON         bool
}

func newLookupCommand() *cobra.Command {
	opts := lookupOptions{}

	cmd := &cobra.Command{
		Use:   "lookup <code>",
		Short: "Resolve a scanned barcode or typed ISBN and check whether you own it",
		Example: `  tome lookup 9780765311788
  tome lookup 076531178X --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.DatabasePath, "db", config.DefaultDatabasePath, "path to the catalog database")
	cmd.Flags().StringVarP(&opts.Username, "user", "u", "default", "user whose catalog is checked")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the result as JSON")

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the metadata providers by title or author",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), opts.JSON)
		},
	}
	search.Flags().BoolVar(&opts.JSON, "json", false, "print the results as JSON")
	cmd.AddCommand(search)

	return cmd
}

func metadataChain() *metadata.Chain {
	cfg := config.NewConfig()
	return metadata.NewDefaultChain(
		cfg.Metadata.GoogleBooksAPIKey,
		metadata.WithTimeout(cfg.Metadata.Timeout),
		metadata.WithRequestsPerSecond(cfg.Metadata.RequestsPerSecond),
	)
}

func runLookup(ctx context.Context, out io.Writer, code string, opts lookupOptions) error {
	catalog, err := openCatalog(opts.DatabasePath)
	if err != nil {
		return err
	}
	defer catalog.Close()

	user, err := catalog.user(ctx, opts.Username)
	if err != nil {
		return err
	}

	lookup := services.NewLookupService(metadataChain(), services.NewBookService(catalog.books, catalog.authors))
	result, err := lookup.Lookup(ctx, user.ID, code)
	if err != nil {
		return err
	}

	if opts.JSON {
		return writeJSON(out, result)
	}

	if !result.IsISBN {
		fmt.Fprintf(out, "%q is not a valid ISBN\n", code)
		return nil
	}
	fmt.Fprintf(out, "ISBN:  %s\n", *result.NormalizedISBN)
	if result.Owned {
		fmt.Fprintf(out, "Owned: yes (book %s)\n", *result.BookID)
	} else {
		fmt.Fprintln(out, "Owned: no")
	}
	if result.Metadata == nil {
		fmt.Fprintln(out, "No provider knows this ISBN")
		return nil
	}
	printMetadata(out, result.Metadata)
	return nil
}

func runSearch(ctx context.Context, out io.Writer, query string, asJSON bool) error {
	lookup := services.NewLookupService(metadataChain(), nil)
	results, err := lookup.Search(ctx, query)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, results)
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No results")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "%2d. %s by %s", i+1, r.Title, joinOr(r.Authors, "unknown author"))
		if r.ISBN13 != "" {
			fmt.Fprintf(out, " [%s]", r.ISBN13)
		}
		if r.PublishedYear > 0 {
			fmt.Fprintf(out, " (%d)", r.PublishedYear)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func printMetadata(out io.Writer, m *metadata.BookMetadata) {
	fmt.Fprintf(out, "Title:  %s\n", m.Title)
	fmt.Fprintf(out, "Author: %s\n", joinOr(m.Authors, "unknown"))
	if m.SeriesName != "" {
		fmt.Fprintf(out, "Series: %s\n", m.SeriesName)
	}
	if m.Publisher != "" {
		fmt.Fprintf(out, "Publisher: %s\n", m.Publisher)
	}
	if m.PublishedYear > 0 {
		fmt.Fprintf(out, "Year:   %d\n", m.PublishedYear)
	}
	if m.PageCount > 0 {
		fmt.Fprintf(out, "Pages:  %d\n", m.PageCount)
	}
	if m.CoverURL != "" {
		fmt.Fprintf(out, "Cover:  %s\n", m.CoverURL)
	}
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
