package service

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/nepalihub/portal/internal/domain"
)

// ResultKind tells what a search result points at
type ResultKind string

const (
	ResultVideo    ResultKind = "video"
	ResultPlaylist ResultKind = "playlist"
)

// SearchItem is one indexed catalog entry
type SearchItem struct {
	Kind  ResultKind
	ID    string
	Title string
	URL   string
	Item  any // domain.Video or domain.Playlist
}

// SearchResult is a ranked match
type SearchResult struct {
	SearchItem
	Score int // lower is better
}

// SearchService ranks loaded catalog entries against a query. Only what
// the collections already fetched is searched; the catalog API is not
// queried.
type SearchService struct {
	logger *slog.Logger

	mu      sync.RWMutex
	items   []SearchItem
	indexed map[string]bool // kind:id
}

// NewSearchService creates an empty search index
func NewSearchService(logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchService{
		logger:  logger,
		indexed: make(map[string]bool),
	}
}

// IndexVideos adds videos, skipping ones already indexed
func (s *SearchService) IndexVideos(videos []domain.Video) {
	items := make([]SearchItem, len(videos))
	for i, v := range videos {
		items[i] = SearchItem{Kind: ResultVideo, ID: v.ID, Title: v.Title, URL: v.URL(), Item: v}
	}
	s.index(items)
}

// IndexPlaylists adds playlists, skipping ones already indexed
func (s *SearchService) IndexPlaylists(playlists []domain.Playlist) {
	items := make([]SearchItem, len(playlists))
	for i, p := range playlists {
		items[i] = SearchItem{Kind: ResultPlaylist, ID: p.ID, Title: p.Title, URL: p.URL(), Item: p}
	}
	s.index(items)
}

func (s *SearchService) index(items []SearchItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, item := range items {
		key := string(item.Kind) + ":" + item.ID
		if s.indexed[key] {
			continue
		}
		s.indexed[key] = true
		s.items = append(s.items, item)
		added++
	}
	s.logger.Debug("indexed items for search", "added", added, "skipped", len(items)-added, "total", len(s.items))
}

// Count returns the number of indexed entries
func (s *SearchService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear empties the index
func (s *SearchService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.indexed = make(map[string]bool)
}

// Search returns indexed entries matching query, best first. An entry
// matches when its title contains the query or the query's letters in order.
func (s *SearchService) Search(query string) []SearchResult {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []SearchResult
	for _, item := range s.items {
		title := strings.ToLower(item.Title)
		if !fuzzy.MatchNormalizedFold(query, title) {
			continue
		}
		results = append(results, SearchResult{SearchItem: item, Score: calculateMatchScore(title, query, item.Kind)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})

	s.logger.Debug("search complete", "query", query, "results", len(results))
	return results
}

// calculateMatchScore calculates a match score for ranking
// Lower score = better match
func calculateMatchScore(title, query string, kind ResultKind) int {
	if title == query {
		return 0
	}
	if strings.HasPrefix(title, query) {
		return 10
	}

	score := 100 + fuzzy.LevenshteinDistance(query, title)
	if strings.Contains(title, query) {
		score = 50
	}

	// single words are more often a video title than a playlist name
	if len(strings.Fields(query)) == 1 && kind == ResultVideo {
		score -= 5
	}
	return score
}
