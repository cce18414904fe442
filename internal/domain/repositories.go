package domain

import (
	"context"
	"time"
)

// CatalogSource fetches pages from the external video catalog
type CatalogSource interface {
	// FetchVideos returns a page of channel videos, newest first
	FetchVideos(ctx context.Context, pageSize int, pageToken string) (Page[Video], error)

	// FetchPopularVideos returns a page of channel videos, most viewed first
	FetchPopularVideos(ctx context.Context, pageSize int, pageToken string) (Page[Video], error)

	// FetchPlaylists returns a page of channel playlists
	FetchPlaylists(ctx context.Context, pageSize int, pageToken string) (Page[Playlist], error)

	// FetchPlaylistItems returns a page of videos inside a playlist
	FetchPlaylistItems(ctx context.Context, playlistID string, pageSize int, pageToken string) (Page[PlaylistItem], error)
}

// ConfigValidator is implemented by catalog sources that can report
// missing configuration without a network call
type ConfigValidator interface {
	Validate() error
}

// CacheScoper is implemented by catalog sources whose pages depend on
// their configuration. Pages cached under one scope are never served
// under another.
type CacheScoper interface {
	CacheScope() string
}

// SessionStorage mirrors the session to persisted client storage.
// It holds two keys: "token" and "user".
type SessionStorage interface {
	// LoadSession returns the persisted token and user.
	// Missing keys come back as "" and nil.
	LoadSession() (token string, user *User, err error)

	// SaveSession writes both keys
	SaveSession(token string, user User) error

	// ClearSession removes both keys
	ClearSession() error
}

// PageCache caches raw catalog pages keyed by request
type PageCache interface {
	GetPage(ctx context.Context, key string, dest any) bool
	PutPage(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidatePages(ctx context.Context, prefix string) error
}

// CurrentUserFetcher returns the canonical record of the logged-in user
type CurrentUserFetcher interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// AuthResult is the outcome of a successful login
type AuthResult struct {
	Token     string
	TokenType string
	User      User
}

// AuthAPI covers the backend authentication endpoints
type AuthAPI interface {
	CurrentUserFetcher
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Register(ctx context.Context, req RegisterRequest) (*User, error)
}

// RegisterRequest is a new account submission
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	FullName        string `json:"full_name"`
	ConfirmPassword string `json:"confirm_password"`
}
