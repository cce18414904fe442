package youtube

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nepalihub/portal/internal/domain"
)

const (
	DefaultBaseURL  = "https://www.googleapis.com/youtube/v3"
	defaultTimeout  = 30 * time.Second
	maxPageSize     = 50
	defaultPageSize = 9
)

// Search orderings
const (
	OrderDate      = "date"
	OrderViewCount = "viewCount"
)

// reasons the API uses for bad credentials or unknown targets
var configReasons = map[string]bool{
	"keyInvalid":          true,
	"keyExpired":          true,
	"accessNotConfigured": true,
	"forbidden":           true,
	"ipRefererBlocked":    true,
	"channelNotFound":     true,
	"invalidChannelId":    true,
	"playlistNotFound":    true,
}

// reasons the API uses for rate limiting
var rateLimitReasons = map[string]bool{
	"quotaExceeded":         true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"dailyLimitExceeded":    true,
}

// Config holds the catalog credentials
type Config struct {
	APIKey    string
	ChannelID string
	BaseURL   string        // defaults to DefaultBaseURL
	Timeout   time.Duration // defaults to 30s
}

// Client fetches channel videos and playlists from the YouTube Data API
type Client struct {
	apiKey     string
	channelID  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var (
	_ domain.CatalogSource   = (*Client)(nil)
	_ domain.ConfigValidator = (*Client)(nil)
	_ domain.CacheScoper     = (*Client)(nil)
)

// NewClient creates a new catalog client. Missing credentials are reported
// by each fetch, not here, so the client can be built before config is fixed.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		channelID: strings.TrimSpace(cfg.ChannelID),
		baseURL:   strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchVideos returns a page of channel videos, newest first
func (c *Client) FetchVideos(ctx context.Context, pageSize int, pageToken string) (domain.Page[domain.Video], error) {
	return c.fetchVideos(ctx, "youtube.videos", OrderDate, pageSize, pageToken)
}

// FetchPopularVideos returns a page of channel videos, most viewed first
func (c *Client) FetchPopularVideos(ctx context.Context, pageSize int, pageToken string) (domain.Page[domain.Video], error) {
	return c.fetchVideos(ctx, "youtube.popular", OrderViewCount, pageSize, pageToken)
}

// fetchVideos runs the two-stage fetch: search for IDs, then look up
// statistics and durations for those IDs.
func (c *Client) fetchVideos(ctx context.Context, op, order string, pageSize int, pageToken string) (domain.Page[domain.Video], error) {
	var page domain.Page[domain.Video]
	if err := c.checkConfig(op); err != nil {
		return page, err
	}

	query := c.baseQuery()
	query.Set("channelId", c.channelID)
	query.Set("part", "snippet,id")
	query.Set("order", order)
	query.Set("maxResults", strconv.Itoa(clampPageSize(pageSize)))
	query.Set("type", "video")
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	var search SearchResponse
	if err := c.doRequest(ctx, op, "/search", query, &search); err != nil {
		return page, err
	}

	videos := MapSearchItems(search.Items)
	page.NextPageToken = search.NextPageToken

	if len(videos) == 0 {
		page.Items = videos
		return page, nil
	}

	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}

	detailQuery := c.baseQuery()
	detailQuery.Set("id", strings.Join(ids, ","))
	detailQuery.Set("part", "snippet,statistics,contentDetails")

	var details VideosResponse
	if err := c.doRequest(ctx, op, "/videos", detailQuery, &details); err != nil {
		return domain.Page[domain.Video]{}, err
	}

	if len(details.Items) != len(videos) {
		c.logger.Debug("video details count differs from search results",
			"op", op, "search", len(videos), "details", len(details.Items))
	}

	page.Items = EnrichVideos(videos, details.Items)
	return page, nil
}

// FetchPlaylists returns a page of channel playlists
func (c *Client) FetchPlaylists(ctx context.Context, pageSize int, pageToken string) (domain.Page[domain.Playlist], error) {
	const op = "youtube.playlists"
	var page domain.Page[domain.Playlist]
	if err := c.checkConfig(op); err != nil {
		return page, err
	}

	query := c.baseQuery()
	query.Set("channelId", c.channelID)
	query.Set("part", "snippet,contentDetails")
	query.Set("maxResults", strconv.Itoa(clampPageSize(pageSize)))
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	var resp PlaylistsResponse
	if err := c.doRequest(ctx, op, "/playlists", query, &resp); err != nil {
		return page, err
	}

	page.Items = MapPlaylists(resp.Items)
	page.NextPageToken = resp.NextPageToken
	return page, nil
}

// FetchPlaylistItems returns a page of videos inside a playlist
func (c *Client) FetchPlaylistItems(ctx context.Context, playlistID string, pageSize int, pageToken string) (domain.Page[domain.PlaylistItem], error) {
	const op = "youtube.playlistItems"
	var page domain.Page[domain.PlaylistItem]
	if c.apiKey == "" {
		return page, domain.NewError(domain.KindConfig, op, "YouTube API key is not configured")
	}
	if strings.TrimSpace(playlistID) == "" {
		return page, domain.NewError(domain.KindValidation, op, "playlist ID is required")
	}

	query := c.baseQuery()
	query.Set("playlistId", playlistID)
	query.Set("part", "snippet")
	query.Set("maxResults", strconv.Itoa(clampPageSize(pageSize)))
	if pageToken != "" {
		query.Set("pageToken", pageToken)
	}

	var resp PlaylistItemsResponse
	if err := c.doRequest(ctx, op, "/playlistItems", query, &resp); err != nil {
		return page, err
	}

	page.Items = MapPlaylistEntries(resp.Items)
	page.NextPageToken = resp.NextPageToken
	return page, nil
}

// checkConfig fails before any network call when credentials are missing
// Validate reports missing credentials without contacting the API
func (c *Client) Validate() error {
	return c.checkConfig("youtube.validate")
}

// CacheScope names the channel and API key pages are fetched with. The
// key is hashed so it never lands in a cache.
func (c *Client) CacheScope() string {
	sum := sha256.Sum256([]byte(c.apiKey))
	return c.channelID + "@" + hex.EncodeToString(sum[:4])
}

func (c *Client) checkConfig(op string) error {
	switch {
	case c.apiKey == "" && c.channelID == "":
		return domain.NewError(domain.KindConfig, op, "YouTube API key and channel ID are not configured")
	case c.apiKey == "":
		return domain.NewError(domain.KindConfig, op, "YouTube API key is not configured")
	case c.channelID == "":
		return domain.NewError(domain.KindConfig, op, "YouTube channel ID is not configured")
	}
	return nil
}

func (c *Client) baseQuery() url.Values {
	query := url.Values{}
	query.Set("key", c.apiKey)
	return query
}

// doRequest performs a GET and decodes a 2xx body into dest.
// Non-2xx responses are classified into config or transient errors.
func (c *Client) doRequest(ctx context.Context, op, path string, query url.Values, dest any) error {
	reqURL := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.WrapError(domain.KindTransient, op, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("youtube request", "op", op, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("youtube request failed", "op", op, "error", err)
		return domain.WrapError(domain.KindTransient, op, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.WrapError(domain.KindTransient, op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		classified := classifyResponse(op, resp.StatusCode, body)
		c.logger.Error("youtube request error",
			"op", op,
			"status", resp.StatusCode,
			"kind", classified.Kind.String(),
			"message", classified.Message,
		)
		return classified
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return domain.WrapError(domain.KindTransient, op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// classifyResponse maps an error response to a classified error.
// Bad credentials and unknown channels are configuration errors; rate
// limits, server errors and anything unrecognized are transient.
func classifyResponse(op string, status int, body []byte) *domain.Error {
	var apiErr ErrorResponse
	_ = json.Unmarshal(body, &apiErr)
	reason := apiErr.Reason()
	detail := apiErr.Error.Message
	if detail == "" {
		detail = http.StatusText(status)
	}

	kind := domain.KindTransient
	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		kind = domain.KindTransient
	case rateLimitReasons[reason]:
		kind = domain.KindTransient
	case configReasons[reason]:
		kind = domain.KindConfig
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = domain.KindConfig
	case status == http.StatusNotFound:
		// channel and playlist IDs come from config
		kind = domain.KindConfig
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(detail), "api key"):
		kind = domain.KindConfig
	}

	var msg string
	if kind == domain.KindConfig {
		msg = "YouTube API configuration error: " + detail
	} else {
		msg = fmt.Sprintf("YouTube API request failed (%d): %s", status, detail)
	}

	return &domain.Error{Kind: kind, Op: op, Message: msg, Status: status}
}

func clampPageSize(n int) int {
	if n <= 0 {
		return defaultPageSize
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}
