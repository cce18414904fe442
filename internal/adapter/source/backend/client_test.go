package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/nepalihub/portal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession is a TokenSource and SessionHandle
type fakeSession struct {
	mu          sync.Mutex
	token       string
	invalidated []string
}

func (f *fakeSession) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeSession) Invalidate(token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, token)
	if f.token != token {
		return false
	}
	f.token = ""
	return true
}

func newTestClient(t *testing.T, sess *fakeSession, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Config{BaseURL: srv.URL + "/api/v1/"}, sess, sess, nil)
	c.requestID = func() string { return "req-1" }
	return c
}

func TestRequestHeaders(t *testing.T) {
	sess := &fakeSession{token: "abc"}
	var got http.Header
	c := newTestClient(t, sess, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		assert.Equal(t, "/api/v1/auth/me", r.URL.Path)
		w.Write([]byte(`{"_id":"u1","email":"a@b.org","full_name":"Asha","role":"editor","is_active":true}`))
	})

	user, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "req-1", got.Get("X-Request-ID"))
	assert.Equal(t, domain.User{ID: "u1", Email: "a@b.org", DisplayName: "Asha", Role: domain.RoleEditor, IsActive: true}, *user)
}

func TestAnonymousRequestHasNoAuthorization(t *testing.T) {
	sess := &fakeSession{}
	c := newTestClient(t, sess, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	})

	_, err := c.Events().List(context.Background(), domain.ListParams{})
	require.NoError(t, err)
}

func TestUnauthorizedLogsOut(t *testing.T) {
	sess := &fakeSession{token: "stale"}
	c := newTestClient(t, sess, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	})

	_, err := c.CurrentUser(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, SessionExpiredMessage, domain.Message(err))
	assert.Equal(t, []string{"stale"}, sess.invalidated)
	assert.Empty(t, sess.Token())
	assert.False(t, domain.IsRetryable(err))
}

func TestUnauthorizedOnEveryEndpoint(t *testing.T) {
	ctx := context.Background()
	calls := map[string]func(c *Client) error{
		"events.list": func(c *Client) error {
			_, err := c.Events().List(ctx, domain.ListParams{})
			return err
		},
		"articles.like": func(c *Client) error {
			_, err := c.Articles().Like(ctx, "a1")
			return err
		},
		"sponsors.delete": func(c *Client) error {
			return c.Sponsors().Delete(ctx, "s1")
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			sess := &fakeSession{token: "tok"}
			c := newTestClient(t, sess, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			})
			assert.ErrorIs(t, call(c), domain.ErrSessionExpired)
			assert.Empty(t, sess.Token())
		})
	}
}

func TestLoginFailureKeepsServerMessage(t *testing.T) {
	sess := &fakeSession{}
	c := newTestClient(t, sess, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Incorrect email or password"}`))
	})

	_, err := c.Login(context.Background(), "a@b.org", "wrongpass")
	require.Error(t, err)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	assert.Equal(t, "Incorrect email or password", domain.Message(err))
	assert.Empty(t, sess.invalidated)
}

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    domain.ErrorKind
		message string
	}{
		{"forbidden", 403, `{"detail":"Not enough permissions"}`, domain.KindForbidden, "Not enough permissions"},
		{"not found", 404, `{"detail":"Event not found"}`, domain.KindNotFound, "Event not found"},
		{"bad request", 400, `{"detail":"Already registered for this event"}`, domain.KindValidation, "Already registered for this event"},
		{"field errors", 422, `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address"},{"loc":["query","limit"],"msg":"ensure this value is less than or equal to 100"}]}`,
			domain.KindValidation, "email: value is not a valid email address; limit: ensure this value is less than or equal to 100"},
		{"rate limited", 429, ``, domain.KindTransient, "Request failed (429): Too Many Requests"},
		{"server error", 503, `<html>`, domain.KindTransient, "Request failed (503): Service Unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := classifyResponse("op", tt.status, []byte(tt.body), true)
			assert.Equal(t, tt.want, e.Kind)
			assert.Equal(t, tt.message, e.Message)
			assert.Equal(t, tt.status, e.Status)
		})
	}
}

func TestTransportFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, nil, nil, nil)
	_, err := c.CurrentUser(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransient)
	assert.True(t, domain.IsRetryable(err))
}

func TestMalformedBodyIsTransient(t *testing.T) {
	c := newTestClient(t, &fakeSession{}, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})
	_, err := c.CurrentUser(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransient)
}

func TestLoginSendsForm(t *testing.T) {
	var form url.Values
	var contentType string
	c := newTestClient(t, &fakeSession{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Write([]byte(`{"access_token":"jwt","token_type":"bearer","user":{"_id":"u1","email":"a@b.org","full_name":"Asha","role":"admin","is_active":true}}`))
	})

	res, err := c.Login(context.Background(), " a@b.org ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", contentType)
	assert.Equal(t, "a@b.org", form.Get("username"))
	assert.Equal(t, "secret123", form.Get("password"))
	assert.Equal(t, "jwt", res.Token)
	assert.Equal(t, "bearer", res.TokenType)
	assert.Equal(t, domain.RoleAdmin, res.User.Role)
	assert.Equal(t, "u1", res.User.ID)
}

func TestLoginRequiresCredentials(t *testing.T) {
	c := NewClient(Config{}, nil, nil, nil)
	_, err := c.Login(context.Background(), "", "x")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRegister(t *testing.T) {
	var body map[string]string
	c := newTestClient(t, &fakeSession{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/register", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))
		w.Write([]byte(`{"email":"new@b.org","full_name":"New User","disabled":false}`))
	})

	user, err := c.Register(context.Background(), domain.RegisterRequest{
		Email: "new@b.org", Password: "longenough", ConfirmPassword: "longenough", FullName: "New User",
	})
	require.NoError(t, err)
	assert.Equal(t, "longenough", body["confirm_password"])
	assert.Equal(t, "New User", body["full_name"])
	assert.Equal(t, "New User", user.DisplayName)
	assert.True(t, user.IsActive)
	assert.Empty(t, user.Role)
}

func TestValidateRegistration(t *testing.T) {
	valid := domain.RegisterRequest{Email: "a@b.org", FullName: "A", Password: "12345678", ConfirmPassword: "12345678"}
	assert.NoError(t, ValidateRegistration(valid))

	mismatch := valid
	mismatch.ConfirmPassword = "87654321"
	err := ValidateRegistration(mismatch)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Passwords do not match", domain.Message(err))

	short := valid
	short.Password, short.ConfirmPassword = "short", "short"
	assert.ErrorIs(t, ValidateRegistration(short), domain.ErrValidation)

	noName := valid
	noName.FullName = " "
	assert.ErrorIs(t, ValidateRegistration(noName), domain.ErrValidation)
}

func TestUserDTORoleHandling(t *testing.T) {
	assert.Equal(t, domain.RoleUser, userDTO{Role: "superhero"}.toDomain().Role)
	assert.Equal(t, domain.Role(""), userDTO{}.toDomain().Role)
	assert.Equal(t, "x", userDTO{AltID: "x"}.toDomain().ID)
	assert.False(t, userDTO{Disabled: true}.toDomain().IsActive)
}
