package service

import (
	"fmt"

	"github.com/nepalihub/portal/internal/collection"
)

// Cache key prefixes for catalog pages. The scope after the prefix names
// the channel and API key the page was fetched with.
const (
	// PrefixVideos is the prefix for newest-first video pages (videos:{scope}:{size}:{token})
	PrefixVideos = "videos:"

	// PrefixPopular is the prefix for most-viewed video pages (popular:{scope}:{size}:{token})
	PrefixPopular = "popular:"

	// PrefixPlaylists is the prefix for playlist pages (playlists:{scope}:{size}:{token})
	PrefixPlaylists = "playlists:"

	// PrefixPlaylistItems is the prefix for playlist contents (items:{scope}:{playlistID}:{size}:{token})
	PrefixPlaylistItems = "items:"
)

var kindPrefixes = map[collection.Kind]string{
	collection.KindLatestVideos:  PrefixVideos,
	collection.KindPopularVideos: PrefixPopular,
	collection.KindPlaylists:     PrefixPlaylists,
}

// CatalogCachePrefixes returns every prefix invalidated by a catalog refresh
func CatalogCachePrefixes() []string {
	return []string{PrefixVideos, PrefixPopular, PrefixPlaylists, PrefixPlaylistItems}
}

func pageKey(prefix, scope string, pageSize int, pageToken string) string {
	return fmt.Sprintf("%s%s:%d:%s", prefix, scope, pageSize, pageToken)
}
