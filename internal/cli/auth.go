package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/nepalihub/portal/internal/adapter/source/backend"
	"github.com/nepalihub/portal/internal/domain"
)

func newLoginCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the community backend",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			if password == "" {
				var err error
				email, password, err = backend.PromptCredentials(os.Stdin, cmd.ErrOrStderr(), email)
				if err != nil {
					return err
				}
			}

			user, err := app.Auth.Login(ctx, email, password)
			if err != nil {
				return err
			}
			return printerFrom(cmd).Message("Logged in as %s (%s)", displayName(*user), user.Role)
		}),
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVar(&password, "password", os.Getenv("PORTAL_PASSWORD"), "Account password (prompted when empty)")
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			app.Session.Restore()
			app.Auth.Logout()
			return printerFrom(cmd).Message("Logged out")
		}),
	}
}

func newWhoAmICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			if err := app.Bootstrap.Run(ctx); err != nil {
				return err
			}
			st := app.Session.Snapshot()
			if !st.IsAuthenticated() {
				return domain.ErrNotAuthenticated
			}
			return printerFrom(cmd).Print([]domain.User{*st.User})
		}),
	}
}

func newRegisterCommand() *cobra.Command {
	var req domain.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			if req.Password == "" {
				email, password, err := backend.PromptCredentials(os.Stdin, cmd.ErrOrStderr(), req.Email)
				if err != nil {
					return err
				}
				req.Email, req.Password = email, password
			}
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}

			user, err := app.Auth.Register(ctx, req)
			if err != nil {
				return err
			}
			return printerFrom(cmd).Message("Registered %s. Run 'portal login' to sign in.", user.Email)
		}),
	}

	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVar(&req.FullName, "name", "", "Full name")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (prompted when empty)")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "Password confirmation (defaults to --password)")
	return cmd
}

func displayName(u domain.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}
