package youtube

import (
	"time"

	"github.com/nepalihub/portal/internal/domain"
)

// thumbnailOrder is the preference order for thumbnail renditions
var thumbnailOrder = []string{"high", "medium", "default"}

// MapSearchItems converts search hits to videos, skipping non-video hits
func MapSearchItems(items []SearchItem) []domain.Video {
	videos := make([]domain.Video, 0, len(items))
	for _, item := range items {
		if item.ID.VideoID == "" {
			continue
		}
		videos = append(videos, domain.Video{
			ID:          item.ID.VideoID,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			Thumbnail:   pickThumbnail(item.Snippet.Thumbnails),
			PublishedAt: parseTime(item.Snippet.PublishedAt),
			Duration:    FormatDuration(""),
			Views:       FormatViewCount(0),
		})
	}
	return videos
}

// EnrichVideos fills duration and view counts from detail records.
// Details are matched by video ID, so their order does not matter.
// Videos without a detail record keep their zero values.
func EnrichVideos(videos []domain.Video, details []VideoItem) []domain.Video {
	byID := make(map[string]VideoItem, len(details))
	for _, d := range details {
		byID[d.ID] = d
	}

	for i := range videos {
		d, ok := byID[videos[i].ID]
		if !ok {
			continue
		}
		count := ParseViewCount(d.Statistics.ViewCount)
		videos[i].ViewCount = count
		videos[i].Views = FormatViewCount(count)
		videos[i].Duration = FormatDuration(d.ContentDetails.Duration)
		if videos[i].Description == "" {
			videos[i].Description = d.Snippet.Description
		}
	}
	return videos
}

// MapPlaylists converts playlist resources
func MapPlaylists(items []PlaylistItem) []domain.Playlist {
	playlists := make([]domain.Playlist, 0, len(items))
	for _, item := range items {
		playlists = append(playlists, domain.Playlist{
			ID:          item.ID,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			Thumbnail:   pickThumbnail(item.Snippet.Thumbnails),
			VideoCount:  item.ContentDetails.ItemCount,
		})
	}
	return playlists
}

// MapPlaylistEntries converts playlist item resources
func MapPlaylistEntries(items []PlaylistEntry) []domain.PlaylistItem {
	entries := make([]domain.PlaylistItem, 0, len(items))
	for _, item := range items {
		videoID := ""
		if item.Snippet.ResourceID != nil {
			videoID = item.Snippet.ResourceID.VideoID
		}
		entries = append(entries, domain.PlaylistItem{
			ID:          item.ID,
			VideoID:     videoID,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			Thumbnail:   pickThumbnail(item.Snippet.Thumbnails),
			Position:    item.Snippet.Position,
			PublishedAt: parseTime(item.Snippet.PublishedAt),
		})
	}
	return entries
}

func pickThumbnail(thumbs map[string]Thumbnail) string {
	for _, key := range thumbnailOrder {
		if t, ok := thumbs[key]; ok && t.URL != "" {
			return t.URL
		}
	}
	return ""
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
