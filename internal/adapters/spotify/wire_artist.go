package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
	"github.com/ewilliams-labs/moodmatch/internal/logging"
)

const artistSearchLimit = 5

// ArtistTopTracks resolves artistName to a Spotify artist and returns that
// artist's top tracks. An artist Spotify does not know yields no tracks.
func (c *Client) ArtistTopTracks(ctx context.Context, artistName string) ([]domain.Track, error) {
	artist, ok, err := c.searchArtist(ctx, artistName)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: find artist %q: %w", artistName, err)
	}
	if !ok {
		logging.Ctx(ctx).Info().Str("artist", artistName).Msg("spotify adapter: no artist found")
		return []domain.Track{}, nil
	}

	items, err := c.getTopTracks(ctx, artist.ID)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: top tracks for %q: %w", artistName, err)
	}
	return mapTracksToDomain(items), nil
}

func (c *Client) searchArtist(ctx context.Context, artistName string) (spotifyArtist, bool, error) {
	searchURL, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return spotifyArtist{}, false, fmt.Errorf("invalid search url: %w", err)
	}

	query := searchURL.Query()
	query.Set("q", artistName)
	query.Set("type", "artist")
	query.Set("limit", fmt.Sprint(artistSearchLimit))
	query.Set("market", c.market)
	searchURL.RawQuery = query.Encode()

	var body artistSearchResponse
	if err := c.getJSON(ctx, searchURL.String(), &body); err != nil {
		if errors.Is(err, errNotFound) {
			return spotifyArtist{}, false, nil
		}
		return spotifyArtist{}, false, err
	}

	artist, ok := pickArtist(artistName, body.Artists.Items)
	return artist, ok, nil
}

func (c *Client) getTopTracks(ctx context.Context, artistID string) ([]*spotifyTrack, error) {
	topURL := fmt.Sprintf("%s/artists/%s/top-tracks?market=%s", c.baseURL, url.PathEscape(artistID), url.QueryEscape(c.market))

	var body topTracksResponse
	if err := c.getJSON(ctx, topURL, &body); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return body.Tracks, nil
}
