package backend

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/nepalihub/portal/internal/domain"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

// Resource is a CRUD collection under one path of the API
type Resource[T any] struct {
	c       *Client
	name    string
	path    string
	filters []string // query filters the endpoint accepts
}

func newResource[T any](c *Client, name, path string, filters ...string) Resource[T] {
	return Resource[T]{c: c, name: name, path: path, filters: filters}
}

// Name is the resource's singular name, used in operation labels
func (r Resource[T]) Name() string {
	return r.name
}

// Filters lists the filter keys List accepts
func (r Resource[T]) Filters() []string {
	return r.filters
}

// List returns one page of the collection
func (r Resource[T]) List(ctx context.Context, p domain.ListParams) ([]T, error) {
	op := "backend." + r.name + ".list"
	query, err := r.listQuery(op, p)
	if err != nil {
		return nil, err
	}

	var items []T
	if err := r.c.getJSON(ctx, op, r.path+"/", query, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r Resource[T]) listQuery(op string, p domain.ListParams) (url.Values, error) {
	if p.Skip < 0 {
		return nil, domain.NewError(domain.KindValidation, op, "skip must not be negative")
	}
	limit := p.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit < 1 || limit > maxListLimit {
		return nil, domain.NewError(domain.KindValidation, op, "limit must be between 1 and 100")
	}

	query := url.Values{}
	query.Set("skip", strconv.Itoa(p.Skip))
	query.Set("limit", strconv.Itoa(limit))

	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !r.accepts(k) {
			return nil, domain.NewError(domain.KindValidation, op,
				"unknown filter "+strconv.Quote(k)+" (accepted: "+strings.Join(r.filters, ", ")+")")
		}
		if v := p.Filters[k]; v != "" {
			query.Set(k, v)
		}
	}
	return query, nil
}

func (r Resource[T]) accepts(key string) bool {
	return slices.Contains(r.filters, key)
}

// Get returns one item by ID
func (r Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	op := "backend." + r.name + ".get"
	if err := requireID(op, id); err != nil {
		return nil, err
	}
	var item T
	if err := r.c.getJSON(ctx, op, r.itemPath(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create submits a new item and returns the stored version
func (r Resource[T]) Create(ctx context.Context, item T) (*T, error) {
	var created T
	if err := r.c.sendJSON(ctx, "backend."+r.name+".create", http.MethodPost, r.path+"/", item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces fields of an item. patch may be a T or a partial map.
func (r Resource[T]) Update(ctx context.Context, id string, patch any) (*T, error) {
	op := "backend." + r.name + ".update"
	if err := requireID(op, id); err != nil {
		return nil, err
	}
	var updated T
	if err := r.c.sendJSON(ctx, op, http.MethodPut, r.itemPath(id), patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes an item
func (r Resource[T]) Delete(ctx context.Context, id string) error {
	op := "backend." + r.name + ".delete"
	if err := requireID(op, id); err != nil {
		return err
	}
	return r.c.sendJSON(ctx, op, http.MethodDelete, r.itemPath(id), nil, nil)
}

// action posts to a sub-path of an item and returns the server's message
func (r Resource[T]) action(ctx context.Context, id, verb string, payload any) (string, error) {
	op := "backend." + r.name + "." + verb
	if err := requireID(op, id); err != nil {
		return "", err
	}
	var resp messageResponse
	if err := r.c.sendJSON(ctx, op, http.MethodPost, r.itemPath(id)+"/"+verb, payload, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (r Resource[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

func requireID(op, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewError(domain.KindValidation, op, "id is required")
	}
	return nil
}

// === Typed resources ===

// Events is the community events collection
type Events struct{ Resource[domain.Event] }

// Events returns the events resource
func (c *Client) Events() Events {
	return Events{newResource[domain.Event](c, "event", "/events", "status", "category")}
}

// Register signs the current user up for an event
func (e Events) Register(ctx context.Context, id string) (string, error) {
	return e.action(ctx, id, "register", nil)
}

// Articles is the published articles collection
type Articles struct{ Resource[domain.Article] }

// Articles returns the articles resource
func (c *Client) Articles() Articles {
	return Articles{newResource[domain.Article](c, "article", "/articles", "tag", "status")}
}

// Like toggles the current user's like on an article
func (a Articles) Like(ctx context.Context, id string) (string, error) {
	return a.action(ctx, id, "like", nil)
}

// Volunteers is the volunteer opportunities collection
type Volunteers struct{ Resource[domain.Opportunity] }

// Volunteers returns the volunteer opportunities resource
func (c *Client) Volunteers() Volunteers {
	return Volunteers{newResource[domain.Opportunity](c, "volunteer", "/volunteers", "category", "status")}
}

// Apply submits an application to an opportunity
func (v Volunteers) Apply(ctx context.Context, id string, app domain.Application) (string, error) {
	return v.action(ctx, id, "apply", app)
}

// Sponsors is the sponsors collection
type Sponsors struct{ Resource[domain.Sponsor] }

// Sponsors returns the sponsors resource
func (c *Client) Sponsors() Sponsors {
	return Sponsors{newResource[domain.Sponsor](c, "sponsor", "/sponsors", "tier", "status")}
}

// Inquire submits a sponsorship inquiry. It needs no session.
func (s Sponsors) Inquire(ctx context.Context, inq domain.Inquiry) (string, error) {
	const op = "backend.sponsor.inquire"
	if strings.TrimSpace(inq.Email) == "" || strings.TrimSpace(inq.CompanyName) == "" {
		return "", domain.NewError(domain.KindValidation, op, "company name and email are required")
	}
	var resp messageResponse
	if err := s.c.sendJSON(ctx, op, http.MethodPost, s.path+"/inquire", inq, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Users is the user administration collection
type Users struct{ Resource[userRecord] }

// userRecord decodes the backend user shape and converts on the way out
type userRecord struct{ userDTO }

// Users returns the users resource
func (c *Client) Users() Users {
	return Users{newResource[userRecord](c, "user", "/users", "role")}
}

// ListUsers returns one page of users
func (u Users) ListUsers(ctx context.Context, p domain.ListParams) ([]domain.User, error) {
	records, err := u.List(ctx, p)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, len(records))
	for i, rec := range records {
		users[i] = rec.toDomain()
	}
	return users, nil
}

// GetUser returns one user by ID
func (u Users) GetUser(ctx context.Context, id string) (*domain.User, error) {
	rec, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user := rec.toDomain()
	return &user, nil
}

// UpdateRole changes a user's role. Only admins may do this.
func (u Users) UpdateRole(ctx context.Context, id string, role domain.Role) (string, error) {
	op := "backend.user.role"
	if err := requireID(op, id); err != nil {
		return "", err
	}
	if !role.Valid() {
		return "", domain.NewError(domain.KindValidation, op, "unknown role "+strconv.Quote(string(role)))
	}
	var resp messageResponse
	err := u.c.do(ctx, request{
		op:     op,
		method: http.MethodPut,
		path:   u.itemPath(id) + "/role",
		query:  url.Values{"role": {string(role)}},
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ProfileUpdate is a partial update of the signed-in user's profile
type ProfileUpdate struct {
	FullName  string   `json:"full_name,omitempty"`
	Avatar    string   `json:"avatar,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Location  string   `json:"location,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

// UpdateMe updates the signed-in user's own profile
func (u Users) UpdateMe(ctx context.Context, id string, patch ProfileUpdate) (*domain.User, error) {
	rec, err := u.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	user := rec.toDomain()
	return &user, nil
}
