// Package tagcache puts a TagStore in front of a TagSource so repeated
// lookups for the same artist skip the network.
package tagcache

import (
	"context"
	"strings"

	"github.com/ewilliams-labs/moodmatch/internal/core/ports"
	"github.com/ewilliams-labs/moodmatch/internal/logging"
	"github.com/ewilliams-labs/moodmatch/internal/metrics"
)

// Source is a caching ports.TagSource. Store failures are logged and the
// lookup falls through to the wrapped source. Source errors are returned and
// never stored.
type Source struct {
	source ports.TagSource
	store  ports.TagStore
	name   string
}

var _ ports.TagSource = (*Source)(nil)

// New wraps source with store. name labels the store in logs and metrics.
func New(source ports.TagSource, store ports.TagStore, name string) *Source {
	return &Source{source: source, store: store, name: name}
}

func (s *Source) GetTopTags(ctx context.Context, artistName string) ([]string, error) {
	key := Key(artistName)

	tags, ok, err := s.store.Get(ctx, key)
	switch {
	case err != nil:
		metrics.TagCacheTotal.WithLabelValues(s.name, "error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("store", s.name).Str("artist", artistName).Msg("tagcache: read failed")
	case ok:
		metrics.TagCacheTotal.WithLabelValues(s.name, "hit").Inc()
		return tags, nil
	default:
		metrics.TagCacheTotal.WithLabelValues(s.name, "miss").Inc()
	}

	tags, err = s.source.GetTopTags(ctx, artistName)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}

	if err := s.store.Set(ctx, key, tags); err != nil {
		metrics.TagCacheTotal.WithLabelValues(s.name, "error").Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("store", s.name).Str("artist", artistName).Msg("tagcache: write failed")
	}
	return tags, nil
}

// Key folds artist names so "Adele" and " adele " share an entry.
func Key(artistName string) string {
	return strings.ToLower(strings.TrimSpace(artistName))
}
