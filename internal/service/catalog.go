package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nepalihub/portal/internal/collection"
	"github.com/nepalihub/portal/internal/domain"
)

// DefaultCacheTTL is how long catalog pages stay fresh
const DefaultCacheTTL = 15 * time.Minute

// CatalogService fronts the catalog source with page caches. Caches are
// consulted in order (shared first, local last) and every tier is filled
// on a miss. Failed fetches are never cached. A source that can validate
// its configuration is asked to before any cache is read, so a missing
// key is reported even when pages are cached.
type CatalogService struct {
	source domain.CatalogSource
	caches []domain.PageCache
	ttl    time.Duration
	scope  string
	logger *slog.Logger
}

var _ domain.CatalogSource = (*CatalogService)(nil)

// NewCatalogService creates a caching catalog. Nil caches are skipped.
func NewCatalogService(source domain.CatalogSource, ttl time.Duration, logger *slog.Logger, caches ...domain.PageCache) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	var tiers []domain.PageCache
	for _, c := range caches {
		if c != nil {
			tiers = append(tiers, c)
		}
	}
	s := &CatalogService{source: source, caches: tiers, ttl: ttl, logger: logger}
	if sc, ok := source.(domain.CacheScoper); ok {
		s.scope = sc.CacheScope()
	}
	return s
}

// Validate runs the source's configuration check, if it has one
func (s *CatalogService) Validate() error {
	if v, ok := s.source.(domain.ConfigValidator); ok {
		return v.Validate()
	}
	return nil
}

func (s *CatalogService) FetchVideos(ctx context.Context, pageSize int, pageToken string) (domain.Page[domain.Video], error) {
	return cachedPage(ctx, s, pageKey(PrefixVideos, s.scope, pageSize, pageToken), func(ctx context.Context) (domain.Page[domain.Video], error) {
		return s.source.FetchVideos(ctx, pageSize, pageToken)
	})
}

func (s *CatalogService) FetchPopularVideos(ctx context.Context, pageSize int, pageToken string) (domain.Page[domain.Video], error) {
	return cachedPage(ctx, s, pageKey(PrefixPopular, s.scope, pageSize, pageToken), func(ctx context.Context) (domain.Page[domain.Video], error) {
		return s.source.FetchPopularVideos(ctx, pageSize, pageToken)
	})
}

func (s *CatalogService) FetchPlaylists(ctx context.Context, pageSize int, pageToken string) (domain.Page[domain.Playlist], error) {
	return cachedPage(ctx, s, pageKey(PrefixPlaylists, s.scope, pageSize, pageToken), func(ctx context.Context) (domain.Page[domain.Playlist], error) {
		return s.source.FetchPlaylists(ctx, pageSize, pageToken)
	})
}

func (s *CatalogService) FetchPlaylistItems(ctx context.Context, playlistID string, pageSize int, pageToken string) (domain.Page[domain.PlaylistItem], error) {
	key := pageKey(PrefixPlaylistItems, s.scope+":"+playlistID, pageSize, pageToken)
	return cachedPage(ctx, s, key, func(ctx context.Context) (domain.Page[domain.PlaylistItem], error) {
		return s.source.FetchPlaylistItems(ctx, playlistID, pageSize, pageToken)
	})
}

// AllPlaylistItems reads up to maxPages pages of a playlist
func (s *CatalogService) AllPlaylistItems(ctx context.Context, playlistID string, pageSize, maxPages int) ([]domain.PlaylistItem, error) {
	return fetchPages(ctx, func(ctx context.Context, token string) (domain.Page[domain.PlaylistItem], error) {
		return s.FetchPlaylistItems(ctx, playlistID, pageSize, token)
	}, maxPages, func(loaded, pages int) {
		s.logger.Debug("playlist items loaded", "playlist", playlistID, "items", loaded, "pages", pages)
	})
}

// Invalidate drops every cached catalog page
func (s *CatalogService) Invalidate(ctx context.Context) error {
	for _, prefix := range CatalogCachePrefixes() {
		if err := s.invalidatePrefix(ctx, prefix); err != nil {
			return err
		}
	}
	s.logger.Info("Catalog cache invalidated")
	return nil
}

// InvalidateKind drops the cached pages behind one gallery collection so
// the next fetch reaches the source
func (s *CatalogService) InvalidateKind(ctx context.Context, kind collection.Kind) error {
	prefix, ok := kindPrefixes[kind]
	if !ok {
		return fmt.Errorf("unknown collection %q", kind)
	}
	if err := s.invalidatePrefix(ctx, prefix); err != nil {
		return err
	}
	s.logger.Debug("catalog cache invalidated", "kind", kind)
	return nil
}

func (s *CatalogService) invalidatePrefix(ctx context.Context, prefix string) error {
	for _, c := range s.caches {
		if err := c.InvalidatePages(ctx, prefix); err != nil {
			return fmt.Errorf("failed to invalidate %s pages: %w", prefix, err)
		}
	}
	return nil
}

func cachedPage[T any](ctx context.Context, s *CatalogService, key string, fetch func(context.Context) (domain.Page[T], error)) (domain.Page[T], error) {
	if err := s.Validate(); err != nil {
		return domain.Page[T]{}, err
	}

	for i, c := range s.caches {
		var page domain.Page[T]
		if c.GetPage(ctx, key, &page) {
			s.logger.Debug("catalog cache hit", "key", key, "tier", i)
			// backfill faster tiers that missed
			for _, earlier := range s.caches[:i] {
				if err := earlier.PutPage(ctx, key, page, s.ttl); err != nil {
					s.logger.Warn("Failed to backfill catalog cache", "key", key, "error", err)
				}
			}
			return page, nil
		}
	}

	page, err := fetch(ctx)
	if err != nil {
		return page, err
	}

	for _, c := range s.caches {
		if err := c.PutPage(ctx, key, page, s.ttl); err != nil {
			s.logger.Warn("Failed to cache catalog page", "key", key, "error", err)
		}
	}
	return page, nil
}
