package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
	"github.com/ewilliams-labs/moodmatch/internal/logging"
)

const searchPageSize = 50

// FetchByYear pages through year:YYYY track search until limit tracks were
// read or a page comes back empty. A failure after the first page keeps the
// tracks already fetched.
func (c *Client) FetchByYear(ctx context.Context, year, limit int) ([]domain.Track, error) {
	if limit <= 0 {
		limit = searchPageSize
	}

	tracks := make([]domain.Track, 0, limit)
	for offset := 0; offset < limit; offset += searchPageSize {
		pageSize := min(searchPageSize, limit-offset)
		items, err := c.searchTracks(ctx, fmt.Sprintf("year:%d", year), pageSize, offset)
		if err != nil {
			if offset == 0 || errors.Is(err, domain.ErrAuthFailure) || ctx.Err() != nil {
				return nil, fmt.Errorf("spotify adapter: search year %d: %w", year, err)
			}
			logging.Ctx(ctx).Warn().Err(err).Int("year", year).Int("offset", offset).
				Int("kept", len(tracks)).Msg("spotify adapter: stopping year search early")
			break
		}
		if len(items) == 0 {
			break
		}
		tracks = append(tracks, mapTracksToDomain(items)...)
	}

	return tracks, nil
}

func (c *Client) searchTracks(ctx context.Context, q string, limit, offset int) ([]*spotifyTrack, error) {
	searchURL, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: invalid search url: %w", err)
	}

	query := searchURL.Query()
	query.Set("q", q)
	query.Set("type", "track")
	query.Set("market", c.market)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	searchURL.RawQuery = query.Encode()

	logging.Ctx(ctx).Debug().Str("url", searchURL.String()).Msg("spotify adapter: track search")

	var body trackSearchResponse
	if err := c.getJSON(ctx, searchURL.String(), &body); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return body.Tracks.Items, nil
}
