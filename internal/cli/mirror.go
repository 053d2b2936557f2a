package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sjohnston82/tome-tracker1/internal/config"
	"github.com/sjohnston82/tome-tracker1/internal/isbn"
	"github.com/sjohnston82/tome-tracker1/internal/offline"
	"github.com/sjohnston82/tome-tracker1/internal/scheduler"
)

// mirrorSession is an opened mirror with the client that refreshes it.
type mirrorSession struct {
	profile config.ClientProfile
	mirror  *offline.Mirror
	client  *offline.Client
	network *offline.NetworkState
	library *offline.Library
}

func openMirrorSession(ctx context.Context, profilePath string) (*mirrorSession, error) {
	profile, err := config.LoadClientProfile(profilePath, config.ProfileFromConfig(config.NewConfig()))
	if err != nil {
		return nil, err
	}

	mirror, err := offline.OpenMirror(ctx, profile.MirrorPath)
	if err != nil {
		return nil, fmt.Errorf("open mirror %s: %w", profile.MirrorPath, err)
	}

	client := offline.NewClient(profile.ServerURL, profile.Token, profile.SyncTimeout)
	network := offline.NewNetworkState(true)
	return &mirrorSession{
		profile: profile,
		mirror:  mirror,
		client:  client,
		network: network,
		library: offline.NewLibrary(mirror, client, network, profile.SyncTimeout),
	}, nil
}

func (s *mirrorSession) Close() error {
	return s.mirror.Close()
}

func newMirrorCommand(profilePath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Keep a local, offline copy of your library",
		Long: `The mirror is a local SQLite copy of the server's library snapshot.
Server URL, token and mirror path come from the [client] section of the
profile, falling back to the MIRROR_* environment variables.`,
	}

	withSession := func(run func(cmd *cobra.Command, args []string, s *mirrorSession) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			s, err := openMirrorSession(cmd.Context(), *profilePath)
			if err != nil {
				return err
			}
			defer s.Close()
			return run(cmd, args, s)
		}
	}

	var offlineOnly bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the library, from the server when reachable and the mirror otherwise",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, args []string, s *mirrorSession) error {
			s.network.SetOnline(!offlineOnly)
			result, err := s.library.Get(cmd.Context())
			if err != nil {
				return err
			}
			printLibrary(cmd.OutOrStdout(), result)
			return nil
		}),
	}
	show.Flags().BoolVar(&offlineOnly, "offline", false, "read the mirror without contacting the server")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Download the library snapshot and replace the mirror",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, args []string, s *mirrorSession) error {
			result, err := s.library.Sync(cmd.Context())
			if err != nil {
				return err
			}
			books := 0
			for _, a := range result.Authors {
				books += len(a.Books)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d authors and %d books from %s\n", len(result.Authors), books, s.profile.ServerURL)
			return nil
		}),
	}

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the mirror by title or author",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *mirrorSession) error {
			hits, err := s.mirror.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(hits) == 0 {
				fmt.Fprintln(out, "No matches")
				return nil
			}
			for _, hit := range hits {
				fmt.Fprintf(out, "%s by %s%s\n", hit.Title, hit.AuthorName, seriesSuffix(hit.MirrorBook))
			}
			return nil
		}),
	}

	check := &cobra.Command{
		Use:   "check <isbn>",
		Short: "Check the mirror for a book by ISBN",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(cmd *cobra.Command, args []string, s *mirrorSession) error {
			code, ok := isbn.Normalize(args[0])
			if !ok {
				return fmt.Errorf("%q is not a valid ISBN", args[0])
			}
			owned, err := s.mirror.IsOwned(cmd.Context(), code)
			if err != nil {
				return err
			}
			if owned {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: owned\n", code)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: not in mirror\n", code)
			}
			return nil
		}),
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show what the mirror holds",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, args []string, s *mirrorSession) error {
			st, err := s.mirror.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mirror:    %s\n", s.profile.MirrorPath)
			fmt.Fprintf(out, "Authors:   %d\n", st.AuthorCount)
			fmt.Fprintf(out, "Books:     %d\n", st.BookCount)
			fmt.Fprintf(out, "Last sync: %s\n", formatLastSync(st.LastSync))
			return nil
		}),
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete everything from the mirror",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, args []string, s *mirrorSession) error {
			if err := s.mirror.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Mirror cleared")
			return nil
		}),
	}

	var probeInterval time.Duration
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Keep the mirror in sync on the profile's schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, args []string, s *mirrorSession) error {
			if err := scheduler.ValidateCronSchedule(s.profile.Schedule); err != nil {
				return fmt.Errorf("invalid schedule %q: %w", s.profile.Schedule, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			syncer := scheduler.NewMirrorSyncScheduler(s.library, s.client, s.network, scheduler.MirrorSyncConfig{
				Schedule:      s.profile.Schedule,
				SyncTimeout:   s.profile.SyncTimeout,
				ProbeInterval: probeInterval,
			})
			if err := syncer.Start(ctx); err != nil {
				return err
			}
			log.Printf("Watching %s, syncing %s", s.profile.ServerURL, scheduler.CronDescription(s.profile.Schedule))
			syncer.RunNow(ctx)

			<-ctx.Done()
			syncer.Stop()
			log.Printf("Mirror watch stopped")
			return nil
		}),
	}
	watch.Flags().DurationVar(&probeInterval, "probe-interval", 30*time.Second, "how often to probe the server while offline")

	cmd.AddCommand(show, syncCmd, search, check, stats, clearCmd, watch)
	return cmd
}

func printLibrary(out io.Writer, result *offline.Result) {
	source := string(result.Source)
	if result.Stale {
		source += ", may be out of date"
	}
	fmt.Fprintf(out, "Library (%s, last sync %s)\n", source, formatLastSync(result.LastSync))
	for _, author := range result.Authors {
		fmt.Fprintf(out, "\n%s\n", author.Name)
		for _, book := range author.Books {
			fmt.Fprintf(out, "  %s%s\n", book.Title, seriesSuffix(book))
		}
	}
}

func seriesSuffix(book offline.MirrorBook) string {
	if book.SeriesName == nil {
		return ""
	}
	if book.SeriesNumber != nil {
		return fmt.Sprintf(" (%s #%g)", *book.SeriesName, *book.SeriesNumber)
	}
	return fmt.Sprintf(" (%s)", *book.SeriesName)
}

func formatLastSync(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
