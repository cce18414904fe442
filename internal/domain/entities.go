package domain

import (
	"strings"
	"time"
)

// Video is one catalog video, normalized for display.
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Thumbnail   string    `json:"thumbnail"`
	PublishedAt time.Time `json:"publishDate"`
	Duration    string    `json:"duration,omitempty"` // H:MM:SS or M:SS
	Views       string    `json:"views,omitempty"`    // 1.5K, 2.5M, 999
	ViewCount   uint64    `json:"viewCount,omitempty"`
}

// URL returns the public watch URL for the video
func (v Video) URL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// Playlist is one catalog playlist
type Playlist struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Thumbnail   string `json:"thumbnail"`
	VideoCount  int    `json:"videoCount"`
}

// URL returns the public playlist URL
func (p Playlist) URL() string {
	return "https://www.youtube.com/playlist?list=" + p.ID
}

// PlaylistItem is a video entry inside a playlist
type PlaylistItem struct {
	ID          string    `json:"id"`
	VideoID     string    `json:"videoId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Thumbnail   string    `json:"thumbnail"`
	Position    int       `json:"position"`
	PublishedAt time.Time `json:"publishDate"`
}

// Page is one page of a cursor-paginated collection.
// An empty NextPageToken means no further page exists.
type Page[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// HasMore reports whether a continuation cursor was returned
func (p Page[T]) HasMore() bool {
	return p.NextPageToken != ""
}

// Role is a backend user role
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleUser   Role = "user"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleUser:
		return true
	}
	return false
}

// ParseRole converts a string to a Role, case-insensitively
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// User is the identity record kept in the session
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
	IsActive    bool   `json:"isActive"`
}

// === Backend resources ===

// Event is a community event
type Event struct {
	ID              string     `json:"_id,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Date            string     `json:"date"`
	Time            string     `json:"time"`
	Location        string     `json:"location"`
	Capacity        int        `json:"capacity"`
	Category        string     `json:"category"`
	Status          string     `json:"status,omitempty"`
	RegisteredCount int        `json:"registered_count,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// Article is a published article
type Article struct {
	ID            string     `json:"_id,omitempty"`
	Title         string     `json:"title"`
	Excerpt       string     `json:"excerpt"`
	Content       string     `json:"content"`
	ImageURL      string     `json:"image_url"`
	Tags          []string   `json:"tags"`
	Status        string     `json:"status,omitempty"`
	LikesCount    int        `json:"likes_count,omitempty"`
	ViewsCount    int        `json:"views_count,omitempty"`
	CommentsCount int        `json:"comments_count,omitempty"`
	Author        *Author    `json:"author,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// Author is the embedded author of an article
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Opportunity is a volunteer opportunity
type Opportunity struct {
	ID                string     `json:"_id,omitempty"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Requirements      []string   `json:"requirements"`
	Category          string     `json:"category"`
	Location          string     `json:"location"`
	Commitment        string     `json:"commitment"`
	Capacity          int        `json:"capacity"`
	Status            string     `json:"status,omitempty"`
	ApplicationsCount int        `json:"applications_count,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
}

// Application is a volunteer's application to an opportunity
type Application struct {
	Message      string              `json:"message"`
	ResumeURL    string              `json:"resume_url,omitempty"`
	PortfolioURL string              `json:"portfolio_url,omitempty"`
	Availability string              `json:"availability"`
	References   []map[string]string `json:"references,omitempty"`
}

// Sponsor is an organization sponsoring the community
type Sponsor struct {
	ID          string         `json:"_id,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	LogoURL     string         `json:"logo_url"`
	WebsiteURL  string         `json:"website_url"`
	Tier        string         `json:"tier"`
	Status      string         `json:"status,omitempty"`
	Contact     SponsorContact `json:"contact"`
	CreatedAt   *time.Time     `json:"created_at,omitempty"`
}

// SponsorContact is the contact person of a sponsor
type SponsorContact struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Position string `json:"position,omitempty"`
}

// Inquiry is a sponsorship inquiry from a prospective sponsor
type Inquiry struct {
	CompanyName string `json:"company_name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	DesiredTier string `json:"desired_tier"`
}

// ListParams are the paging and filter parameters accepted by backend list endpoints
type ListParams struct {
	Skip    int
	Limit   int               // 1..100, zero means server default
	Filters map[string]string // status, category, tag, tier, role
}
