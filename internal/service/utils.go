package service

import (
	"context"

	"github.com/nepalihub/portal/internal/domain"
)

// fetchPages follows continuation tokens until the source runs out or
// maxPages pages were read (maxPages <= 0 means no limit).
func fetchPages[T any](
	ctx context.Context,
	fetch func(ctx context.Context, pageToken string) (domain.Page[T], error),
	maxPages int,
	onProgress func(loaded, pages int),
) ([]T, error) {
	var all []T
	token := ""

	for pages := 1; ; pages++ {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		page, err := fetch(ctx, token)
		if err != nil {
			return all, err
		}

		all = append(all, page.Items...)

		if onProgress != nil {
			onProgress(len(all), pages)
		}

		if !page.HasMore() || len(page.Items) == 0 || (maxPages > 0 && pages >= maxPages) {
			break
		}
		token = page.NextPageToken
	}

	return all, nil
}
