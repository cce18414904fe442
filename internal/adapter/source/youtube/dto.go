package youtube

// SearchResponse is the body of /search
type SearchResponse struct {
	NextPageToken string       `json:"nextPageToken"`
	Items         []SearchItem `json:"items"`
}

// SearchItem is one /search hit
type SearchItem struct {
	ID      SearchID `json:"id"`
	Snippet Snippet  `json:"snippet"`
}

// SearchID identifies the resource a search hit points at
type SearchID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

// Snippet is the common snippet part of videos, playlists and playlist items
type Snippet struct {
	PublishedAt  string               `json:"publishedAt"`
	ChannelID    string               `json:"channelId"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Thumbnails   map[string]Thumbnail `json:"thumbnails"`
	Position     int                  `json:"position"`   // playlist items only
	ResourceID   *ResourceID          `json:"resourceId"` // playlist items only
	PlaylistID   string               `json:"playlistId"`
	ChannelTitle string               `json:"channelTitle"`
}

// Thumbnail is one thumbnail rendition
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ResourceID points a playlist item at its video
type ResourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

// VideosResponse is the body of /videos
type VideosResponse struct {
	Items []VideoItem `json:"items"`
}

// VideoItem is the detail record of a single video
type VideoItem struct {
	ID             string         `json:"id"`
	Snippet        Snippet        `json:"snippet"`
	Statistics     Statistics     `json:"statistics"`
	ContentDetails ContentDetails `json:"contentDetails"`
}

// Statistics counts are returned as decimal strings
type Statistics struct {
	ViewCount    string `json:"viewCount"`
	LikeCount    string `json:"likeCount"`
	CommentCount string `json:"commentCount"`
}

// ContentDetails carries the ISO-8601 duration of a video
type ContentDetails struct {
	Duration string `json:"duration"`
}

// PlaylistsResponse is the body of /playlists
type PlaylistsResponse struct {
	NextPageToken string         `json:"nextPageToken"`
	Items         []PlaylistItem `json:"items"`
}

// PlaylistItem is one playlist resource
type PlaylistItem struct {
	ID             string                 `json:"id"`
	Snippet        Snippet                `json:"snippet"`
	ContentDetails PlaylistContentDetails `json:"contentDetails"`
}

// PlaylistContentDetails carries the number of videos in a playlist
type PlaylistContentDetails struct {
	ItemCount int `json:"itemCount"`
}

// PlaylistItemsResponse is the body of /playlistItems
type PlaylistItemsResponse struct {
	NextPageToken string          `json:"nextPageToken"`
	Items         []PlaylistEntry `json:"items"`
}

// PlaylistEntry is one video inside a playlist
type PlaylistEntry struct {
	ID      string  `json:"id"`
	Snippet Snippet `json:"snippet"`
}

// ErrorResponse is the error envelope returned on non-2xx responses
type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Domain  string `json:"domain"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"error"`
}

// Reason returns the first machine-readable reason, if any
func (e ErrorResponse) Reason() string {
	if len(e.Error.Errors) == 0 {
		return ""
	}
	return e.Error.Errors[0].Reason
}
