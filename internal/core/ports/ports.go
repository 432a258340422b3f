// Package ports declares the collaborators the recommendation core depends on.
package ports

import (
	"context"

	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
)

// TrackSource fetches cleaned candidate tracks from the music catalog.
type TrackSource interface {
	// FetchByYear returns up to limit tracks released in year.
	FetchByYear(ctx context.Context, year, limit int) ([]domain.Track, error)
	// ArtistTopTracks returns the artist's top tracks. An unknown artist yields an empty slice.
	ArtistTopTracks(ctx context.Context, artistName string) ([]domain.Track, error)
}

// TagSource looks up folksonomy tags for an artist. No data is an empty slice, not an error.
type TagSource interface {
	GetTopTags(ctx context.Context, artistName string) ([]string, error)
}

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// TagStore persists artist tag lookups.
type TagStore interface {
	Get(ctx context.Context, artistName string) ([]string, bool, error)
	Set(ctx context.Context, artistName string, tags []string) error
}
