package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nepalihub/portal/internal/collection"
	"github.com/nepalihub/portal/internal/prefs"
	"github.com/nepalihub/portal/internal/service"
	"github.com/nepalihub/portal/internal/tui"
)

var _ tui.CacheInvalidator = (*service.CatalogService)(nil)

func newTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse the video gallery",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			return runTUI(ctx, cmd, app)
		}),
	}
}

// runTUI starts the gallery. The stored session is validated in the
// background while the first page loads.
func runTUI(ctx context.Context, cmd *cobra.Command, app *App) error {
	if err := app.Config.ValidateCatalog(); err != nil {
		// the gallery shows the configuration error in place of the videos
		app.Logger.Warn("catalog not configured", "error", err)
	}

	tab, err := collection.ParseKind(app.Prefs.DefaultTab)
	if err != nil {
		tab = collection.KindLatestVideos
	}

	m, err := tui.Run(ctx, tui.Options{
		Catalog:          app.Catalog,
		PageSize:         app.Config.Catalog.PageSize,
		Session:          app.Session,
		Bootstrap:        app.Bootstrap,
		Launcher:         app.Launcher,
		DefaultTab:       tab,
		ShowDescriptions: app.Prefs.ShowDescriptions,
		Logger:           app.Logger,
	})
	if err != nil {
		return err
	}

	p := app.Prefs
	p.DefaultTab = string(m.ActiveKind())
	p.ShowDescriptions = m.ShowDescriptions
	if p != app.Prefs {
		if err := prefs.Save(prefs.DefaultPath(), p); err != nil {
			app.Logger.Warn("failed to save preferences", "error", err)
		}
	}
	return nil
}
