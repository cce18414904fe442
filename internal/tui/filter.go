package tui

import (
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/nepalihub/portal/internal/collection"
)

// entry is one row of the gallery, independent of the item type
type entry struct {
	ID          string
	Title       string
	Meta        string
	Description string
	URL         string
}

// filterMatch maps a visible row to its entry and the matched title runes
type filterMatch struct {
	Index   int
	Matched []int
}

// entriesFor flattens the loaded items of a collection into rows
func entriesFor(g *collection.Gallery, kind collection.Kind) []entry {
	switch kind {
	case collection.KindPlaylists:
		items := g.Playlists.Snapshot().Items
		out := make([]entry, len(items))
		for i, p := range items {
			out[i] = entry{
				ID:          p.ID,
				Title:       p.Title,
				Meta:        pluralize(p.VideoCount, "video"),
				Description: p.Description,
				URL:         p.URL(),
			}
		}
		return out
	default:
		c := g.Latest
		if kind == collection.KindPopularVideos {
			c = g.Popular
		}
		items := c.Snapshot().Items
		out := make([]entry, len(items))
		for i, v := range items {
			meta := []string{v.Duration, v.Views + " views"}
			if !v.PublishedAt.IsZero() {
				meta = append(meta, v.PublishedAt.Format("Jan 2, 2006"))
			}
			out[i] = entry{
				ID:          v.ID,
				Title:       v.Title,
				Meta:        strings.Join(meta, " · "),
				Description: v.Description,
				URL:         v.URL(),
			}
		}
		return out
	}
}

// applyFilter fuzzy matches titles case-insensitively. An empty query
// returns nil, meaning no filter.
func applyFilter(items []entry, query string) []filterMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	lowerTitles := make([]string, len(items))
	for i, it := range items {
		lowerTitles[i] = strings.ToLower(it.Title)
	}

	matches := fuzzy.Find(strings.ToLower(query), lowerTitles)
	out := make([]filterMatch, len(matches))
	for i, m := range matches {
		out[i] = filterMatch{Index: m.Index, Matched: m.MatchedIndexes}
	}
	return out
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
