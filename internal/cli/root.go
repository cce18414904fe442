package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:           "portal",
		Short:         "Portal - community site client",
		Long:          "Portal browses the community video catalog and manages events, articles, volunteers and sponsors on the community backend.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := newPrinter(cmd.OutOrStdout(), output)
			return err
		},
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			return runTUI(ctx, cmd, app)
		}),
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to config.yaml")
	cmd.PersistentFlags().StringVarP(&output, "output", "o", formatTable, "Output format: table, json or yaml")

	cmd.AddCommand(
		newVersionCommand(version),
		newTUICommand(),
		newLoginCommand(),
		newLogoutCommand(),
		newWhoAmICommand(),
		newRegisterCommand(),
		newVideosCommand(),
		newPlaylistsCommand(),
		newPlaylistItemsCommand(),
		newSearchCommand(),
		newOpenCommand(),
		newEventsCommand(),
		newArticlesCommand(),
		newVolunteersCommand(),
		newSponsorsCommand(),
		newUsersCommand(),
	)

	return cmd
}

// runFunc is a command body that receives the wired application
type runFunc func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error

// withApp wires the application for one command run and releases it after
func withApp(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		app, err := newApp(configPath)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return fn(ctx, cmd, app, args)
	}
}

// printerFrom returns the printer for the --output flag
func printerFrom(cmd *cobra.Command) *printer {
	format, _ := cmd.Flags().GetString("output")
	p, err := newPrinter(cmd.OutOrStdout(), format)
	if err != nil {
		p, _ = newPrinter(cmd.OutOrStdout(), formatTable)
	}
	return p
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "portal", version)
		},
	}
}
