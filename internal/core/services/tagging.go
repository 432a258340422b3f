package services

import (
	"context"
	"fmt"

	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
	"github.com/ewilliams-labs/moodmatch/internal/core/ports"
	"github.com/ewilliams-labs/moodmatch/internal/logging"
	"github.com/ewilliams-labs/moodmatch/internal/metrics"
	"github.com/ewilliams-labs/moodmatch/internal/worker"
)

// TagAssigner attaches artist tags to tracks.
type TagAssigner struct {
	source   ports.TagSource
	taxonomy *domain.Taxonomy
	pool     *worker.Pool
}

// NewTagAssigner constructs a TagAssigner. A nil pool runs lookups one at a time.
func NewTagAssigner(source ports.TagSource, taxonomy *domain.Taxonomy, pool *worker.Pool) *TagAssigner {
	return &TagAssigner{source: source, taxonomy: taxonomy, pool: pool}
}

// Assign returns copies of tracks with RawTags, Tags and ArtistName filled in.
// Each distinct primary artist is looked up once. A failed lookup leaves that
// artist's tracks untagged and does not affect the others. The only error is
// ctx ending before every lookup finished.
func (a *TagAssigner) Assign(ctx context.Context, tracks []domain.Track) ([]domain.Track, error) {
	artists := make([]string, 0)
	slot := make(map[string]int)
	for _, t := range tracks {
		name, ok := t.PrimaryArtist()
		if !ok {
			continue
		}
		if _, seen := slot[name]; !seen {
			slot[name] = len(artists)
			artists = append(artists, name)
		}
	}

	results := make([][]string, len(artists))
	lookup := func(ctx context.Context, i int) {
		results[i] = a.lookup(ctx, artists[i])
	}

	var err error
	if a.pool != nil {
		err = a.pool.Map(ctx, len(artists), lookup)
	} else {
		for i := range artists {
			if err = ctx.Err(); err != nil {
				break
			}
			lookup(ctx, i)
		}
	}
	if err == nil {
		// Lookups that ran past the deadline come back empty; that is a
		// timeout, not an untagged catalog.
		err = ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("tag assigner: %w", err)
	}

	out := make([]domain.Track, len(tracks))
	for i, t := range tracks {
		c := t
		c.Artists = append([]domain.Artist(nil), t.Artists...)
		c.RawTags = []string{}
		c.Tags = []string{}
		if name, ok := t.PrimaryArtist(); ok {
			raw := results[slot[name]]
			c.ArtistName = name
			c.RawTags = append(c.RawTags, raw...)
			c.Tags = a.taxonomy.NormalizeTags(raw)
		}
		out[i] = c
	}
	return out, nil
}

// TagsFor looks up and normalizes the tags of a single artist.
func (a *TagAssigner) TagsFor(ctx context.Context, artist string) (raw, normalized []string) {
	raw = a.lookup(ctx, artist)
	return raw, a.taxonomy.NormalizeTags(raw)
}

func (a *TagAssigner) lookup(ctx context.Context, artist string) []string {
	tags, err := a.source.GetTopTags(ctx, artist)
	if err != nil {
		metrics.TagLookupsTotal.WithLabelValues("error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("artist", artist).Msg("tag lookup failed, continuing without tags")
		return []string{}
	}
	if len(tags) == 0 {
		metrics.TagLookupsTotal.WithLabelValues("empty").Inc()
		return []string{}
	}
	metrics.TagLookupsTotal.WithLabelValues("ok").Inc()
	return tags
}
