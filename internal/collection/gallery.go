package collection

import (
	"context"
	"fmt"

	"github.com/nepalihub/portal/internal/domain"
)

// Kind names one of the gallery's collections
type Kind string

const (
	KindLatestVideos  Kind = "latestVideos"
	KindPopularVideos Kind = "popularVideos"
	KindPlaylists     Kind = "playlists"
)

// Kinds lists the gallery collections in display order
var Kinds = []Kind{KindLatestVideos, KindPopularVideos, KindPlaylists}

// DefaultErrorMessage is the message used when a failure carries none
func (k Kind) DefaultErrorMessage() string {
	switch k {
	case KindLatestVideos:
		return "Failed to fetch videos"
	case KindPopularVideos:
		return "Failed to fetch popular videos"
	case KindPlaylists:
		return "Failed to fetch playlists"
	default:
		return "Failed to fetch " + string(k)
	}
}

// Title is the human label of the collection
func (k Kind) Title() string {
	switch k {
	case KindLatestVideos:
		return "Latest"
	case KindPopularVideos:
		return "Popular"
	case KindPlaylists:
		return "Playlists"
	default:
		return string(k)
	}
}

// ParseKind accepts the kind names and their short forms
func ParseKind(s string) (Kind, error) {
	switch s {
	case string(KindLatestVideos), "latest", "videos":
		return KindLatestVideos, nil
	case string(KindPopularVideos), "popular":
		return KindPopularVideos, nil
	case string(KindPlaylists), "playlist":
		return KindPlaylists, nil
	}
	return "", fmt.Errorf("unknown collection %q", s)
}

// Gallery holds the three catalog collections of the video page
type Gallery struct {
	Latest    *Collection[domain.Video]
	Popular   *Collection[domain.Video]
	Playlists *Collection[domain.Playlist]
}

// NewGallery wires the three collections to a catalog source
func NewGallery(src domain.CatalogSource, opts Options) *Gallery {
	return &Gallery{
		Latest:    New[domain.Video](KindLatestVideos, src.FetchVideos, opts),
		Popular:   New[domain.Video](KindPopularVideos, src.FetchPopularVideos, opts),
		Playlists: New[domain.Playlist](KindPlaylists, src.FetchPlaylists, opts),
	}
}

// controller is the item-type independent part of a collection
type controller interface {
	Fetch(ctx context.Context) error
	Refresh(ctx context.Context) error
	Retry(ctx context.Context) error
	ResetRetryCount()
	ResetList()
	Status() Status
}

func (g *Gallery) get(kind Kind) (controller, error) {
	switch kind {
	case KindLatestVideos:
		return g.Latest, nil
	case KindPopularVideos:
		return g.Popular, nil
	case KindPlaylists:
		return g.Playlists, nil
	}
	return nil, fmt.Errorf("unknown collection %q", kind)
}

// Fetch requests the next page of a collection
func (g *Gallery) Fetch(ctx context.Context, kind Kind) error {
	c, err := g.get(kind)
	if err != nil {
		return err
	}
	return c.Fetch(ctx)
}

// Refresh reloads a collection from its first page
func (g *Gallery) Refresh(ctx context.Context, kind Kind) error {
	c, err := g.get(kind)
	if err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// Retry is the manual retry action: reset the ceiling and fetch again
func (g *Gallery) Retry(ctx context.Context, kind Kind) error {
	c, err := g.get(kind)
	if err != nil {
		return err
	}
	return c.Retry(ctx)
}

// ResetRetryCount zeroes a collection's retry count and configuration flag
func (g *Gallery) ResetRetryCount(kind Kind) error {
	c, err := g.get(kind)
	if err != nil {
		return err
	}
	c.ResetRetryCount()
	return nil
}

// ResetList discards a collection's loaded pages
func (g *Gallery) ResetList(kind Kind) error {
	c, err := g.get(kind)
	if err != nil {
		return err
	}
	c.ResetList()
	return nil
}

// Status returns the summary of a collection
func (g *Gallery) Status(kind Kind) (Status, error) {
	c, err := g.get(kind)
	if err != nil {
		return Status{}, err
	}
	return c.Status(), nil
}
