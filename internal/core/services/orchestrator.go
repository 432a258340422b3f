// Package services holds the recommendation pipeline.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
	"github.com/ewilliams-labs/moodmatch/internal/core/ports"
	"github.com/ewilliams-labs/moodmatch/internal/logging"
	"github.com/ewilliams-labs/moodmatch/internal/metrics"
)

const (
	DefaultTopN                = 5
	DefaultCatalogLimit        = 50
	DefaultSimilarityThreshold = 0.6
)

// Orchestrator runs description and artist based recommendations.
type Orchestrator struct {
	tracks    ports.TrackSource
	assigner  *TagAssigner
	matcher   *Matcher
	taxonomy  *domain.Taxonomy
	topN      int
	limit     int
	threshold float64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTopN sets how many tags are selected from the vocabulary.
func WithTopN(n int) Option {
	return func(o *Orchestrator) { o.topN = n }
}

// WithCatalogLimit sets how many tracks are fetched per year.
func WithCatalogLimit(n int) Option {
	return func(o *Orchestrator) { o.limit = n }
}

// WithSimilarityThreshold sets the artist mode match threshold.
func WithSimilarityThreshold(f float64) Option {
	return func(o *Orchestrator) { o.threshold = f }
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(tracks ports.TrackSource, assigner *TagAssigner, matcher *Matcher, taxonomy *domain.Taxonomy, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tracks:    tracks,
		assigner:  assigner,
		matcher:   matcher,
		taxonomy:  taxonomy,
		topN:      DefaultTopN,
		limit:     DefaultCatalogLimit,
		threshold: DefaultSimilarityThreshold,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Taxonomy returns the seed taxonomy in use.
func (o *Orchestrator) Taxonomy() *domain.Taxonomy {
	return o.taxonomy
}

// Recommend finds tracks from year whose tags match the free-text description.
// A year with no catalog tracks yields an empty result and no error.
func (o *Orchestrator) Recommend(ctx context.Context, description string, year int) (rec domain.Recommendation, err error) {
	ctx = logging.EnsureCorrelationID(ctx)
	start := time.Now()
	defer func() { observe("description", start, err) }()

	if strings.TrimSpace(description) == "" {
		return domain.Recommendation{}, domain.InvalidInputError("description is required")
	}
	if year <= 0 {
		return domain.Recommendation{}, domain.InvalidInputError("year must be positive, got %d", year)
	}

	candidates, err := o.tracks.FetchByYear(ctx, year, o.limit)
	if err != nil {
		return domain.Recommendation{}, fetchError("service: fetch tracks", err)
	}
	if len(candidates) == 0 {
		logging.Ctx(ctx).Info().Int("year", year).Msg("no catalog tracks for year")
		return emptyRecommendation(), nil
	}

	tagged, err := o.assigner.Assign(ctx, candidates)
	if err != nil {
		return domain.Recommendation{}, fetchError("service: assign tags", err)
	}

	vocabulary := domain.DistinctTags(tagged)
	selected, err := o.matcher.RankTags(ctx, description, vocabulary, o.topN)
	if err != nil {
		return domain.Recommendation{}, fmt.Errorf("service: rank tags: %w", err)
	}

	mapped := make([]string, 0, len(selected))
	mappedSet := make(map[string]struct{}, len(selected))
	for _, tag := range selected {
		seed := o.taxonomy.MapTagToSeed(tag)
		if _, ok := mappedSet[seed]; ok {
			continue
		}
		mappedSet[seed] = struct{}{}
		mapped = append(mapped, seed)
	}

	filtered := make([]domain.Track, 0)
	for _, t := range tagged {
		if t.HasAnyTag(mappedSet, o.taxonomy.MapTagToSeed) {
			filtered = append(filtered, t)
		}
	}

	logging.Ctx(ctx).Info().
		Int("year", year).
		Int("candidates", len(candidates)).
		Int("vocabulary", len(vocabulary)).
		Strs("selected_tags", selected).
		Strs("mapped_seed_tags", mapped).
		Int("matched", len(filtered)).
		Dur("elapsed", time.Since(start)).
		Msg("recommendation complete")

	return domain.Recommendation{
		FilteredTracks: filtered,
		SelectedTags:   selected,
		MappedSeedTags: mapped,
		Vocabulary:     vocabulary,
	}, nil
}

// FilterTracksByArtistMood returns the artist's top tracks when the artist's
// tags resemble both genre and mood. The tags are looked up once for the
// artist and compared before normalization.
func (o *Orchestrator) FilterTracksByArtistMood(ctx context.Context, artistName, genre, mood string) (tracks []domain.Track, err error) {
	ctx = logging.EnsureCorrelationID(ctx)
	start := time.Now()
	defer func() { observe("artist", start, err) }()

	artistName = strings.TrimSpace(artistName)
	switch {
	case artistName == "":
		return nil, domain.InvalidInputError("artist is required")
	case strings.TrimSpace(genre) == "":
		return nil, domain.InvalidInputError("genre is required")
	case strings.TrimSpace(mood) == "":
		return nil, domain.InvalidInputError("mood is required")
	}

	top, err := o.tracks.ArtistTopTracks(ctx, artistName)
	if err != nil {
		return nil, fetchError("service: fetch artist top tracks", err)
	}
	if len(top) == 0 {
		logging.Ctx(ctx).Info().Str("artist", artistName).Msg("no top tracks for artist")
		return []domain.Track{}, nil
	}

	raw, normalized := o.assigner.TagsFor(ctx, artistName)
	if err := ctx.Err(); err != nil {
		return nil, fetchError("service: tag artist", err)
	}

	genreOK, err := o.matcher.MatchAny(ctx, raw, genre, o.threshold)
	if err != nil {
		return nil, fmt.Errorf("service: match genre: %w", err)
	}
	moodOK := false
	if genreOK {
		moodOK, err = o.matcher.MatchAny(ctx, raw, mood, o.threshold)
		if err != nil {
			return nil, fmt.Errorf("service: match mood: %w", err)
		}
	}

	out := make([]domain.Track, 0, len(top))
	if genreOK && moodOK {
		for _, t := range top {
			c := t
			c.Artists = append([]domain.Artist(nil), t.Artists...)
			c.ArtistName = artistName
			c.RawTags = append([]string{}, raw...)
			c.Tags = append([]string{}, normalized...)
			out = append(out, c)
		}
	}

	logging.Ctx(ctx).Info().
		Str("artist", artistName).
		Str("genre", genre).
		Str("mood", mood).
		Int("tags", len(raw)).
		Bool("genre_match", genreOK).
		Bool("mood_match", moodOK).
		Int("matched", len(out)).
		Msg("artist filter complete")

	return out, nil
}

func emptyRecommendation() domain.Recommendation {
	return domain.Recommendation{
		FilteredTracks: []domain.Track{},
		SelectedTags:   []string{},
		MappedSeedTags: []string{},
		Vocabulary:     []string{},
	}
}

// fetchError keeps auth failures distinct and reports everything else from
// the catalog as unavailable.
func fetchError(op string, err error) error {
	if errors.Is(err, domain.ErrAuthFailure) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return domain.UpstreamError(op, err)
}

func observe(mode string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = domain.KindOf(err)
	}
	metrics.RecommendationsTotal.WithLabelValues(mode, outcome).Inc()
	metrics.PipelineDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
