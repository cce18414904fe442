package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nepalihub/portal/internal/collection"
	"github.com/nepalihub/portal/internal/domain"
)

// catalogFlags are shared by the gallery listing commands
type catalogFlags struct {
	pages   int
	refresh bool
}

func (f *catalogFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.pages, "pages", "p", 1, "Number of pages to load")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "Bypass cached catalog pages")
}

// load fetches the requested pages of kind, dropping cached pages first
// when asked to.
func (f *catalogFlags) load(ctx context.Context, app *App, kind collection.Kind) error {
	if err := app.Config.ValidateCatalog(); err != nil {
		return err
	}
	if f.refresh {
		if err := app.Catalog.Invalidate(ctx); err != nil {
			app.Logger.Warn("failed to invalidate catalog cache", "error", err)
		}
	}
	return app.fetchPages(ctx, kind, f.pages)
}

func newVideosCommand() *cobra.Command {
	var flags catalogFlags
	var popular bool

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List channel videos",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			kind, c := collection.KindLatestVideos, app.Gallery.Latest
			if popular {
				kind, c = collection.KindPopularVideos, app.Gallery.Popular
			}
			if err := flags.load(ctx, app, kind); err != nil {
				return err
			}
			return printerFrom(cmd).Print(c.Snapshot().Items)
		}),
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&popular, "popular", false, "Order by view count instead of date")
	return cmd
}

func newPlaylistsCommand() *cobra.Command {
	var flags catalogFlags

	cmd := &cobra.Command{
		Use:   "playlists",
		Short: "List channel playlists",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			if err := flags.load(ctx, app, collection.KindPlaylists); err != nil {
				return err
			}
			return printerFrom(cmd).Print(app.Gallery.Playlists.Snapshot().Items)
		}),
	}

	flags.register(cmd)
	return cmd
}

func newPlaylistItemsCommand() *cobra.Command {
	var maxPages int

	cmd := &cobra.Command{
		Use:   "playlist-items <playlist-id>",
		Short: "List the videos inside a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			if err := app.Config.ValidateCatalog(); err != nil {
				return err
			}
			items, err := app.Catalog.AllPlaylistItems(ctx, args[0], 50, maxPages)
			if err != nil {
				return err
			}
			return printerFrom(cmd).Print(items)
		}),
	}

	cmd.Flags().IntVarP(&maxPages, "pages", "p", 0, "Maximum pages to follow (0 for all)")
	return cmd
}

func newSearchCommand() *cobra.Command {
	var flags catalogFlags

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Fuzzy search loaded videos and playlists by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			for _, kind := range collection.Kinds {
				if err := flags.load(ctx, app, kind); err != nil {
					return fmt.Errorf("load %s: %w", kind.Title(), err)
				}
			}
			app.Search.IndexVideos(app.Gallery.Latest.Snapshot().Items)
			app.Search.IndexVideos(app.Gallery.Popular.Snapshot().Items)
			app.Search.IndexPlaylists(app.Gallery.Playlists.Snapshot().Items)

			return printerFrom(cmd).Print(app.Search.Search(strings.Join(args, " ")))
		}),
	}

	flags.register(cmd)
	return cmd
}

func newOpenCommand() *cobra.Command {
	var playlist, browser bool

	cmd := &cobra.Command{
		Use:   "open <id>",
		Short: "Open a video or playlist in the configured player",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			url := domain.Video{ID: args[0]}.URL()
			if playlist {
				url = domain.Playlist{ID: args[0]}.URL()
			}
			launch := app.Launcher.Launch
			if browser {
				launch = app.Launcher.Open
			}
			if err := launch(url); err != nil {
				return fmt.Errorf("open %s: %w", url, err)
			}
			return printerFrom(cmd).Message("Opened %s", url)
		}),
	}

	cmd.Flags().BoolVar(&playlist, "playlist", false, "Treat the ID as a playlist")
	cmd.Flags().BoolVar(&browser, "browser", false, "Skip player detection and use the system handler")
	return cmd
}
