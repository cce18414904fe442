package backend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/nepalihub/portal/internal/domain"
)

const minPasswordLength = 8

var _ domain.AuthAPI = (*Client)(nil)

// userDTO is the backend's user record
type userDTO struct {
	ID       string `json:"_id"`
	AltID    string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
	Disabled bool   `json:"disabled"`
}

func (u userDTO) toDomain() domain.User {
	id := u.ID
	if id == "" {
		id = u.AltID
	}
	// role stays empty when the endpoint omits it
	role, ok := domain.ParseRole(u.Role)
	if !ok && u.Role != "" {
		role = domain.RoleUser
	}
	active := !u.Disabled
	if u.IsActive != nil {
		active = *u.IsActive
	}
	return domain.User{
		ID:          id,
		Email:       u.Email,
		DisplayName: u.FullName,
		Role:        role,
		IsActive:    active,
	}
}

type loginResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	User        userDTO `json:"user"`
}

// Login exchanges email and password for a bearer token. The backend
// expects an OAuth2 password form with the email as username.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	const op = "backend.login"

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.NewError(domain.KindValidation, op, "email and password are required")
	}

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var resp loginResponse
	err := c.do(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, domain.NewError(domain.KindTransient, op, "login response carried no token")
	}

	return &domain.AuthResult{
		Token:     resp.AccessToken,
		TokenType: resp.TokenType,
		User:      resp.User.toDomain(),
	}, nil
}

// ValidateRegistration applies the checks the backend would reject
func ValidateRegistration(req domain.RegisterRequest) error {
	const op = "backend.register"
	switch {
	case strings.TrimSpace(req.Email) == "":
		return domain.NewError(domain.KindValidation, op, "email is required")
	case strings.TrimSpace(req.FullName) == "":
		return domain.NewError(domain.KindValidation, op, "full name is required")
	case len(req.Password) < minPasswordLength:
		return domain.NewError(domain.KindValidation, op, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	case req.Password != req.ConfirmPassword:
		return domain.NewError(domain.KindValidation, op, "Passwords do not match")
	}
	return nil
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if err := ValidateRegistration(req); err != nil {
		return nil, err
	}

	var dto userDTO
	if err := c.sendJSON(ctx, "backend.register", http.MethodPost, "/auth/register", req, &dto); err != nil {
		return nil, err
	}
	user := dto.toDomain()
	return &user, nil
}

// CurrentUser returns the canonical record of the signed-in user
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var dto userDTO
	if err := c.getJSON(ctx, "backend.me", "/auth/me", nil, &dto); err != nil {
		return nil, err
	}
	user := dto.toDomain()
	return &user, nil
}

// PromptCredentials asks for an email (unless given) and a hidden password.
// When in is not a terminal the password is read as a plain line.
func PromptCredentials(in *os.File, out io.Writer, email string) (string, string, error) {
	reader := bufio.NewReader(in)

	if email == "" {
		fmt.Fprint(out, "Email: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}

	fmt.Fprint(out, "Password: ")
	var password string
	if term.IsTerminal(int(in.Fd())) {
		passwordBytes, err := term.ReadPassword(int(in.Fd()))
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = string(passwordBytes)
		fmt.Fprintln(out)
	} else {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	return email, password, nil
}
