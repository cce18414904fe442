package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nepalihub/portal/internal/adapter/source/backend"
	"github.com/nepalihub/portal/internal/domain"
	"github.com/nepalihub/portal/internal/session"
)

// resourceOps is the item-type independent view of a backend resource
type resourceOps struct {
	filters []string
	list    func(ctx context.Context, p domain.ListParams) (any, error)
	get     func(ctx context.Context, id string) (any, error)
	create  func(ctx context.Context, doc map[string]any) (any, error)
	update  func(ctx context.Context, id string, doc map[string]any) (any, error)
	del     func(ctx context.Context, id string) error
}

func opsFor[T any](r backend.Resource[T]) resourceOps {
	return resourceOps{
		filters: r.Filters(),
		list: func(ctx context.Context, p domain.ListParams) (any, error) {
			return r.List(ctx, p)
		},
		get: func(ctx context.Context, id string) (any, error) {
			item, err := r.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return []T{*item}, nil
		},
		create: func(ctx context.Context, doc map[string]any) (any, error) {
			var item T
			if err := convertDocument(doc, &item); err != nil {
				return nil, err
			}
			created, err := r.Create(ctx, item)
			if err != nil {
				return nil, err
			}
			return []T{*created}, nil
		},
		update: func(ctx context.Context, id string, doc map[string]any) (any, error) {
			updated, err := r.Update(ctx, id, doc)
			if err != nil {
				return nil, err
			}
			return []T{*updated}, nil
		},
		del: r.Delete,
	}
}

// access lists the roles allowed per operation. A nil list means any
// visitor, an empty non-nil list any signed-in user.
type access struct {
	read  []domain.Role
	write []domain.Role
}

var (
	editorsWrite = access{write: []domain.Role{domain.RoleAdmin, domain.RoleEditor}}
	adminsWrite  = access{write: []domain.Role{domain.RoleAdmin}}
	adminsOnly   = access{read: []domain.Role{domain.RoleAdmin}, write: []domain.Role{domain.RoleAdmin}}
)

// authorize restores the session and applies the role guard
func authorize(ctx context.Context, app *App, roles []domain.Role) error {
	if err := app.restoreSession(ctx); err != nil {
		return err
	}
	if roles == nil {
		return nil
	}
	return session.RequireVerified(app.Session.Snapshot(), roles...)
}

// newResourceCommand builds list, get, create, update and delete
// subcommands for one backend resource.
func newResourceCommand(use, short string, pick func(*backend.Client) resourceOps, acl access) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}

	var params domain.ListParams
	var filters []string
	list := &cobra.Command{
		Use:   "list",
		Short: "List " + use,
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			if err := authorize(ctx, app, acl.read); err != nil {
				return err
			}
			p := params
			f, err := parseFilters(filters)
			if err != nil {
				return err
			}
			p.Filters = f
			items, err := pick(app.Backend).list(ctx, p)
			if err != nil {
				return err
			}
			return printerFrom(cmd).Print(items)
		}),
	}
	list.Flags().IntVar(&params.Skip, "skip", 0, "Number of records to skip")
	list.Flags().IntVar(&params.Limit, "limit", 10, "Number of records to return (1-100)")
	list.Flags().StringArrayVarP(&filters, "filter", "f", nil, "Filter as key=value (repeatable)")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			if err := authorize(ctx, app, acl.read); err != nil {
				return err
			}
			item, err := pick(app.Backend).get(ctx, args[0])
			if err != nil {
				return err
			}
			return printerFrom(cmd).Print(item)
		}),
	}

	var createFile string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a record from a YAML or JSON file",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			if err := authorize(ctx, app, acl.write); err != nil {
				return err
			}
			doc, err := readDocument(createFile)
			if err != nil {
				return err
			}
			item, err := pick(app.Backend).create(ctx, doc)
			if err != nil {
				return err
			}
			return printerFrom(cmd).Print(item)
		}),
	}
	create.Flags().StringVarP(&createFile, "file", "F", "", "YAML or JSON document")
	_ = create.MarkFlagRequired("file")

	var updateFile string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a record with the fields of a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			if err := authorize(ctx, app, acl.write); err != nil {
				return err
			}
			doc, err := readDocument(updateFile)
			if err != nil {
				return err
			}
			item, err := pick(app.Backend).update(ctx, args[0], doc)
			if err != nil {
				return err
			}
			return printerFrom(cmd).Print(item)
		}),
	}
	update.Flags().StringVarP(&updateFile, "file", "F", "", "YAML or JSON document")
	_ = update.MarkFlagRequired("file")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			if err := authorize(ctx, app, acl.write); err != nil {
				return err
			}
			if err := pick(app.Backend).del(ctx, args[0]); err != nil {
				return err
			}
			return printerFrom(cmd).Message("Deleted %s", args[0])
		}),
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}

// actionCommand runs a signed-in action on one record and prints the
// backend's message.
func actionCommand(use, short string, roles []domain.Role, run func(ctx context.Context, c *backend.Client, id string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			if err := authorize(ctx, app, roles); err != nil {
				return err
			}
			msg, err := run(ctx, app.Backend, args[0])
			if err != nil {
				return err
			}
			return printerFrom(cmd).Message("%s", msg)
		}),
	}
}

var anyUser = []domain.Role{}

func newEventsCommand() *cobra.Command {
	cmd := newResourceCommand("events", "Community events",
		func(c *backend.Client) resourceOps { return opsFor(c.Events().Resource) }, editorsWrite)
	cmd.AddCommand(actionCommand("register", "Register for an event", anyUser,
		func(ctx context.Context, c *backend.Client, id string) (string, error) {
			return c.Events().Register(ctx, id)
		}))
	return cmd
}

func newArticlesCommand() *cobra.Command {
	cmd := newResourceCommand("articles", "Published articles",
		func(c *backend.Client) resourceOps { return opsFor(c.Articles().Resource) }, editorsWrite)
	cmd.AddCommand(actionCommand("like", "Like or unlike an article", anyUser,
		func(ctx context.Context, c *backend.Client, id string) (string, error) {
			return c.Articles().Like(ctx, id)
		}))
	return cmd
}

func newVolunteersCommand() *cobra.Command {
	cmd := newResourceCommand("volunteers", "Volunteer opportunities",
		func(c *backend.Client) resourceOps { return opsFor(c.Volunteers().Resource) }, editorsWrite)

	var application domain.Application
	apply := actionCommand("apply", "Apply to an opportunity", anyUser,
		func(ctx context.Context, c *backend.Client, id string) (string, error) {
			return c.Volunteers().Apply(ctx, id, application)
		})
	apply.Flags().StringVarP(&application.Message, "message", "m", "", "Why you want to help")
	apply.Flags().StringVar(&application.Availability, "availability", "", "When you are available")
	apply.Flags().StringVar(&application.ResumeURL, "resume-url", "", "Link to a resume")
	apply.Flags().StringVar(&application.PortfolioURL, "portfolio-url", "", "Link to a portfolio")
	_ = apply.MarkFlagRequired("message")
	_ = apply.MarkFlagRequired("availability")
	cmd.AddCommand(apply)
	return cmd
}

func newSponsorsCommand() *cobra.Command {
	cmd := newResourceCommand("sponsors", "Community sponsors",
		func(c *backend.Client) resourceOps { return opsFor(c.Sponsors().Resource) }, adminsWrite)

	var inq domain.Inquiry
	inquire := &cobra.Command{
		Use:   "inquire",
		Short: "Send a sponsorship inquiry",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			msg, err := app.Backend.Sponsors().Inquire(ctx, inq)
			if err != nil {
				return err
			}
			return printerFrom(cmd).Message("%s", msg)
		}),
	}
	inquire.Flags().StringVar(&inq.CompanyName, "company", "", "Company name")
	inquire.Flags().StringVar(&inq.ContactName, "contact", "", "Contact person")
	inquire.Flags().StringVar(&inq.Email, "email", "", "Contact email")
	inquire.Flags().StringVar(&inq.Phone, "phone", "", "Contact phone")
	inquire.Flags().StringVarP(&inq.Message, "message", "m", "", "Inquiry message")
	inquire.Flags().StringVar(&inq.DesiredTier, "tier", "", "Desired sponsorship tier")
	cmd.AddCommand(inquire)
	return cmd
}

func newUsersCommand() *cobra.Command {
	cmd := newResourceCommand("users", "User administration", userOps, adminsOnly)

	role := &cobra.Command{
		Use:   "role <id> <admin|editor|user>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, args []string) error {
			if err := authorize(ctx, app, adminsOnly.write); err != nil {
				return err
			}
			r, ok := domain.ParseRole(args[1])
			if !ok {
				return domain.NewError(domain.KindValidation, "cli.users.role", "unknown role "+args[1])
			}
			msg, err := app.Backend.Users().UpdateRole(ctx, args[0], r)
			if err != nil {
				return err
			}
			return printerFrom(cmd).Message("%s", msg)
		}),
	}

	var patch backend.ProfileUpdate
	profile := &cobra.Command{
		Use:   "update-profile",
		Short: "Update your own profile",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, app *App, _ []string) error {
			if err := authorize(ctx, app, anyUser); err != nil {
				return err
			}
			me := app.Session.Snapshot().User
			user, err := app.Backend.Users().UpdateMe(ctx, me.ID, patch)
			if err != nil {
				return err
			}
			return printerFrom(cmd).Print([]domain.User{*user})
		}),
	}
	profile.Flags().StringVar(&patch.FullName, "name", "", "Full name")
	profile.Flags().StringVar(&patch.Bio, "bio", "", "Short biography")
	profile.Flags().StringVar(&patch.Location, "location", "", "Location")
	profile.Flags().StringSliceVar(&patch.Interests, "interests", nil, "Comma separated interests")

	cmd.AddCommand(role, profile)
	return cmd
}

// userOps converts backend user records to domain users
func userOps(c *backend.Client) resourceOps {
	users := c.Users()
	ops := opsFor(users.Resource)
	ops.list = func(ctx context.Context, p domain.ListParams) (any, error) {
		return users.ListUsers(ctx, p)
	}
	ops.get = func(ctx context.Context, id string) (any, error) {
		user, err := users.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		return []domain.User{*user}, nil
	}
	ops.create = func(context.Context, map[string]any) (any, error) {
		return nil, domain.NewError(domain.KindValidation, "cli.users.create", "accounts are created with 'portal register'")
	}
	ops.update = func(ctx context.Context, id string, doc map[string]any) (any, error) {
		var patch backend.ProfileUpdate
		if err := convertDocument(doc, &patch); err != nil {
			return nil, err
		}
		user, err := users.UpdateMe(ctx, id, patch)
		if err != nil {
			return nil, err
		}
		return []domain.User{*user}, nil
	}
	return ops
}

// parseFilters turns repeated key=value flags into a filter map
func parseFilters(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filters := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q (want key=value)", pair)
		}
		filters[key] = strings.TrimSpace(value)
	}
	return filters, nil
}

// readDocument loads a YAML or JSON object. JSON is valid YAML.
func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", path, err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("document %s is empty", path)
	}
	return doc, nil
}

// convertDocument maps a decoded document onto a typed record through its
// JSON field names.
func convertDocument(doc map[string]any, dest any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
