package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
	"github.com/ewilliams-labs/moodmatch/internal/worker"
)

func newTestOrchestrator(src *mockTrackSource, tags *mockTagSource, emb *stubEmbedder, opts ...Option) *Orchestrator {
	tax := domain.DefaultTaxonomy()
	return NewOrchestrator(src, NewTagAssigner(tags, tax, nil), NewMatcher(emb), tax, opts...)
}

func TestOrchestrator_Recommend(t *testing.T) {
	tracks := []domain.Track{
		track("Fix You", "Coldplay"),
		track("Lose Yourself", "Eminem"),
		track("Yellow", "Coldplay"),
		track("Untitled"),
	}
	tags := &mockTagSource{tags: map[string][]string{
		"Coldplay": {"Mellow", "indie"},
		"Eminem":   {"rap"},
	}}
	emb := &stubEmbedder{
		dim: 3,
		vectors: map[string][]float64{
			"calm evening music": {1, 0, 0},
			"calm":               {1, 0, 0},
			"indie":              {0.5, 0.5, 0},
			"hip hop":            {0, 0, 1},
		},
	}
	src := &mockTrackSource{byYear: tracks}
	o := newTestOrchestrator(src, tags, emb, WithTopN(1), WithCatalogLimit(100))

	got, err := o.Recommend(context.Background(), "calm evening music", 2015)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.gotYear != 2015 || src.gotLimit != 100 {
		t.Fatalf("fetch args: got (%d, %d)", src.gotYear, src.gotLimit)
	}
	if !reflect.DeepEqual(got.SelectedTags, []string{"calm"}) {
		t.Fatalf("selected: got %v", got.SelectedTags)
	}
	if !reflect.DeepEqual(got.MappedSeedTags, []string{"calm"}) {
		t.Fatalf("mapped: got %v", got.MappedSeedTags)
	}
	if !reflect.DeepEqual(got.Vocabulary, []string{"calm", "indie", "hip hop"}) {
		t.Fatalf("vocabulary: got %v", got.Vocabulary)
	}
	var names []string
	for _, tr := range got.FilteredTracks {
		names = append(names, tr.Name)
	}
	if !reflect.DeepEqual(names, []string{"Fix You", "Yellow"}) {
		t.Fatalf("filtered: got %v", names)
	}
	if tags.callsFor("Coldplay") != 1 {
		t.Fatalf("expected one Coldplay lookup, got %d", tags.callsFor("Coldplay"))
	}
}

func TestOrchestrator_RecommendMapsSelectedTagsInOrder(t *testing.T) {
	tracks := []domain.Track{track("a", "A"), track("b", "B")}
	tags := &mockTagSource{tags: map[string][]string{
		"A": {"sad", "Emotional"},
		"B": {"upbeat"},
	}}
	emb := &stubEmbedder{
		dim: 2,
		vectors: map[string][]float64{
			"desc":      {1, 0},
			"sad":       {1, 0},
			"energetic": {0.8, 0.6},
		},
	}
	o := newTestOrchestrator(&mockTrackSource{byYear: tracks}, tags, emb, WithTopN(5))

	got, err := o.Recommend(context.Background(), "desc", 2020)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got.SelectedTags, []string{"sad", "energetic"}) {
		t.Fatalf("selected: got %v", got.SelectedTags)
	}
	if !reflect.DeepEqual(got.MappedSeedTags, []string{"sad", "energetic"}) {
		t.Fatalf("mapped: got %v", got.MappedSeedTags)
	}
	if len(got.FilteredTracks) != 2 {
		t.Fatalf("expected both tracks, got %d", len(got.FilteredTracks))
	}
}

func TestOrchestrator_RecommendErrors(t *testing.T) {
	tests := []struct {
		name        string
		src         *mockTrackSource
		tags        *mockTagSource
		description string
		year        int
		wantErr     error
		wantEmpty   bool
	}{
		{
			name:        "no catalog tracks is an empty result",
			src:         &mockTrackSource{},
			tags:        &mockTagSource{},
			description: "energetic romantic pop",
			year:        2010,
			wantEmpty:   true,
		},
		{
			name:        "no resolvable artists is invalid input",
			src:         &mockTrackSource{byYear: []domain.Track{track("a"), track("b")}},
			tags:        &mockTagSource{},
			description: "anything",
			year:        2010,
			wantErr:     domain.ErrInvalidInput,
		},
		{
			name:        "every tag lookup failing is invalid input",
			src:         &mockTrackSource{byYear: []domain.Track{track("a", "A")}},
			tags:        &mockTagSource{errs: map[string]error{"A": errors.New("down")}},
			description: "anything",
			year:        2010,
			wantErr:     domain.ErrInvalidInput,
		},
		{
			name:        "catalog failure is upstream unavailable",
			src:         &mockTrackSource{err: errors.New("connection reset")},
			tags:        &mockTagSource{},
			description: "anything",
			year:        2010,
			wantErr:     domain.ErrUpstreamUnavailable,
		},
		{
			name:        "credential failure stays auth failure",
			src:         &mockTrackSource{err: domain.AuthError("spotify", nil)},
			tags:        &mockTagSource{},
			description: "anything",
			year:        2010,
			wantErr:     domain.ErrAuthFailure,
		},
		{
			name:        "blank description",
			src:         &mockTrackSource{},
			tags:        &mockTagSource{},
			description: " ",
			year:        2010,
			wantErr:     domain.ErrInvalidInput,
		},
		{
			name:        "bad year",
			src:         &mockTrackSource{},
			tags:        &mockTagSource{},
			description: "x",
			year:        0,
			wantErr:     domain.ErrInvalidInput,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := newTestOrchestrator(tc.src, tc.tags, &stubEmbedder{dim: 2})
			got, err := o.Recommend(context.Background(), tc.description, tc.year)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.wantEmpty && (got.FilteredTracks == nil || len(got.FilteredTracks) != 0) {
				t.Fatalf("expected empty non-nil tracks, got %#v", got.FilteredTracks)
			}
		})
	}
}

func TestOrchestrator_FilterTracksByArtistMood(t *testing.T) {
	top := []domain.Track{
		{Name: "Espresso", Popularity: 90, Artists: []domain.Artist{{Name: "Sabrina Carpenter"}}},
		{Name: "Please Please Please", Popularity: 80, Artists: []domain.Artist{{Name: "Sabrina Carpenter"}}},
	}
	emb := &stubEmbedder{
		dim: 3,
		vectors: map[string][]float64{
			"pop":       {1, 0, 0},
			"love":      {0, 1, 0},
			"metal":     {0, 0, 1},
			"dance pop": {0.9, 0.1, 0},
			"romance":   {0.1, 0.9, 0},
		},
	}

	tests := []struct {
		name      string
		genre     string
		mood      string
		wantCount int
	}{
		{name: "genre and mood both match", genre: "pop", mood: "love", wantCount: 2},
		{name: "genre misses", genre: "metal", mood: "love", wantCount: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tags := &mockTagSource{tags: map[string][]string{"Sabrina Carpenter": {"dance-pop", "romance"}}}
			src := &mockTrackSource{topTracks: top}
			o := newTestOrchestrator(src, tags, emb)

			got, err := o.FilterTracksByArtistMood(context.Background(), "Sabrina Carpenter", tc.genre, tc.mood)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tc.wantCount {
				t.Fatalf("got %d tracks, want %d", len(got), tc.wantCount)
			}
			if tags.callsFor("Sabrina Carpenter") != 1 {
				t.Fatalf("artist should be tagged once, got %d lookups", tags.callsFor("Sabrina Carpenter"))
			}
			if tc.wantCount > 0 && !reflect.DeepEqual(got[0].RawTags, []string{"dance-pop", "romance"}) {
				t.Fatalf("raw tags: got %v", got[0].RawTags)
			}
		})
	}
}

func TestOrchestrator_FilterTracksByArtistMoodEdgeCases(t *testing.T) {
	emb := &stubEmbedder{dim: 2}

	t.Run("unknown artist", func(t *testing.T) {
		o := newTestOrchestrator(&mockTrackSource{}, &mockTagSource{}, emb)
		got, err := o.FilterTracksByArtistMood(context.Background(), "Nobody", "pop", "love")
		if err != nil || got == nil || len(got) != 0 {
			t.Fatalf("expected empty result, got %v, %v", got, err)
		}
	})

	t.Run("artist without tags", func(t *testing.T) {
		src := &mockTrackSource{topTracks: []domain.Track{track("a", "X")}}
		o := newTestOrchestrator(src, &mockTagSource{}, emb)
		got, err := o.FilterTracksByArtistMood(context.Background(), "X", "pop", "love")
		if err != nil || len(got) != 0 {
			t.Fatalf("expected empty result, got %v, %v", got, err)
		}
	})

	t.Run("missing mood", func(t *testing.T) {
		o := newTestOrchestrator(&mockTrackSource{}, &mockTagSource{}, emb)
		if _, err := o.FilterTracksByArtistMood(context.Background(), "X", "pop", ""); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("catalog failure", func(t *testing.T) {
		o := newTestOrchestrator(&mockTrackSource{err: errors.New("timeout")}, &mockTagSource{}, emb)
		if _, err := o.FilterTracksByArtistMood(context.Background(), "X", "pop", "love"); !errors.Is(err, domain.ErrUpstreamUnavailable) {
			t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
		}
	})
}

func TestOrchestrator_TaggingTimeoutIsUpstreamFailure(t *testing.T) {
	pool := worker.NewPool(4, 8)
	pool.Start()
	defer pool.Stop()

	tax := domain.DefaultTaxonomy()
	src := &mockTrackSource{
		byYear:    []domain.Track{track("One", "Slow A"), track("Two", "Slow B")},
		topTracks: []domain.Track{track("Hit", "Slow A")},
	}
	emb := &stubEmbedder{dim: 2}
	o := NewOrchestrator(src, NewTagAssigner(blockingTagSource{}, tax, pool), NewMatcher(emb), tax)

	tests := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{
			name: "recommend",
			run: func(ctx context.Context) error {
				_, err := o.Recommend(ctx, "calm evening", 2015)
				return err
			},
		},
		{
			name: "artist mode",
			run: func(ctx context.Context) error {
				_, err := o.FilterTracksByArtistMood(ctx, "Slow A", "pop", "sad")
				return err
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			err := tc.run(ctx)
			if got := domain.KindOf(err); got != domain.KindUpstreamUnavailable {
				t.Fatalf("kind: got %q, want %q (err %v)", got, domain.KindUpstreamUnavailable, err)
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("expected the deadline to be kept in %v", err)
			}
			if emb.callCount() != 0 {
				t.Fatalf("embedder should not run after a tagging timeout")
			}
		})
	}
}
