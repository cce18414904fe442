package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/nepalihub/portal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListEncodesParams(t *testing.T) {
	c := newTestClient(t, &fakeSession{token: "t"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/events/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "20", q.Get("skip"))
		assert.Equal(t, "5", q.Get("limit"))
		assert.Equal(t, "upcoming", q.Get("status"))
		assert.Equal(t, "culture", q.Get("category"))
		w.Write([]byte(`[{"_id":"e1","title":"Dashain Meetup","capacity":50,"registered_count":12}]`))
	})

	events, err := c.Events().List(context.Background(), domain.ListParams{
		Skip:    20,
		Limit:   5,
		Filters: map[string]string{"status": "upcoming", "category": "culture"},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, 12, events[0].RegisteredCount)
}

func TestListDefaultLimit(t *testing.T) {
	c := newTestClient(t, &fakeSession{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("skip"))
		w.Write([]byte(`[]`))
	})
	_, err := c.Articles().List(context.Background(), domain.ListParams{})
	require.NoError(t, err)
}

func TestListRejectsBadParamsWithoutRequest(t *testing.T) {
	called := false
	c := newTestClient(t, &fakeSession{}, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	ctx := context.Background()

	_, err := c.Sponsors().List(ctx, domain.ListParams{Limit: 101})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = c.Sponsors().List(ctx, domain.ListParams{Skip: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = c.Sponsors().List(ctx, domain.ListParams{Filters: map[string]string{"category": "x"}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.False(t, called)
}

func TestGetUpdateDelete(t *testing.T) {
	var methods []string
	c := newTestClient(t, &fakeSession{token: "t"}, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"_id":"a1","title":"Old","tags":["news"]}`))
		case http.MethodPut:
			var patch map[string]any
			data, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(data, &patch))
			assert.Equal(t, "New", patch["title"])
			w.Write([]byte(`{"_id":"a1","title":"New","tags":["news"]}`))
		case http.MethodDelete:
			w.Write([]byte(`{"message":"Article deleted successfully"}`))
		}
	})
	ctx := context.Background()
	articles := c.Articles()

	a, err := articles.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Old", a.Title)

	a, err = articles.Update(ctx, "a1", map[string]any{"title": "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", a.Title)

	require.NoError(t, articles.Delete(ctx, "a1"))

	assert.Equal(t, []string{"GET /api/v1/articles/a1", "PUT /api/v1/articles/a1", "DELETE /api/v1/articles/a1"}, methods)
}

func TestEmptyIDRejected(t *testing.T) {
	c := NewClient(Config{}, nil, nil, nil)
	_, err := c.Events().Get(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, c.Events().Delete(context.Background(), " "), domain.ErrValidation)
}

func TestCreate(t *testing.T) {
	c := newTestClient(t, &fakeSession{token: "t"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/volunteers/", r.URL.Path)
		var o domain.Opportunity
		require.NoError(t, json.NewDecoder(r.Body).Decode(&o))
		o.ID = "v1"
		o.Status = "open"
		json.NewEncoder(w).Encode(o)
	})

	created, err := c.Volunteers().Create(context.Background(), domain.Opportunity{Title: "Translator", Capacity: 3})
	require.NoError(t, err)
	assert.Equal(t, "v1", created.ID)
	assert.Equal(t, "open", created.Status)
}

func TestActions(t *testing.T) {
	var paths []string
	c := newTestClient(t, &fakeSession{token: "t"}, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"message":"ok"}`))
	})
	ctx := context.Background()

	msg, err := c.Events().Register(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "ok", msg)

	_, err = c.Articles().Like(ctx, "a1")
	require.NoError(t, err)

	_, err = c.Volunteers().Apply(ctx, "v1", domain.Application{Message: "hi", Availability: "weekends"})
	require.NoError(t, err)

	_, err = c.Sponsors().Inquire(ctx, domain.Inquiry{CompanyName: "Himal Co", Email: "x@himal.co"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/api/v1/events/e1/register",
		"/api/v1/articles/a1/like",
		"/api/v1/volunteers/v1/apply",
		"/api/v1/sponsors/inquire",
	}, paths)
}

func TestInquireValidation(t *testing.T) {
	c := NewClient(Config{}, nil, nil, nil)
	_, err := c.Sponsors().Inquire(context.Background(), domain.Inquiry{Email: "x@y.z"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUsers(t *testing.T) {
	c := newTestClient(t, &fakeSession{token: "t"}, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/users/":
			assert.Equal(t, "editor", r.URL.Query().Get("role"))
			w.Write([]byte(`[{"_id":"u1","email":"e@b.org","full_name":"Ed","role":"editor"}]`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/users/u1/role":
			assert.Equal(t, "admin", r.URL.Query().Get("role"))
			w.Write([]byte(`{"message":"User role updated to admin"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	ctx := context.Background()

	users, err := c.Users().ListUsers(ctx, domain.ListParams{Filters: map[string]string{"role": "editor"}})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, domain.RoleEditor, users[0].Role)
	assert.Equal(t, "Ed", users[0].DisplayName)

	msg, err := c.Users().UpdateRole(ctx, "u1", domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "User role updated to admin", msg)

	_, err = c.Users().UpdateRole(ctx, "u1", domain.Role("owner"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
