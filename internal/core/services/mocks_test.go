package services

import (
	"context"
	"sync"

	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
)

// stubEmbedder returns fixed vectors per text; unknown texts embed to zero.
type stubEmbedder struct {
	vectors map[string][]float64
	dim     int
	err     error
	short   bool

	mu    sync.Mutex
	calls [][]string
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]string(nil), texts...))
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float64, 0, len(texts))
	for _, text := range texts {
		v, ok := s.vectors[text]
		if !ok {
			v = make([]float64, s.dim)
		}
		out = append(out, v)
	}
	if s.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type mockTagSource struct {
	tags map[string][]string
	errs map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *mockTagSource) GetTopTags(_ context.Context, artist string) ([]string, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[artist]++
	m.mu.Unlock()

	if err, ok := m.errs[artist]; ok {
		return nil, err
	}
	return m.tags[artist], nil
}

func (m *mockTagSource) callsFor(artist string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[artist]
}

type mockTrackSource struct {
	byYear    []domain.Track
	topTracks []domain.Track
	err       error

	gotYear   int
	gotLimit  int
	gotArtist string
}

func (m *mockTrackSource) FetchByYear(_ context.Context, year, limit int) ([]domain.Track, error) {
	m.gotYear, m.gotLimit = year, limit
	if m.err != nil {
		return nil, m.err
	}
	return m.byYear, nil
}

func (m *mockTrackSource) ArtistTopTracks(_ context.Context, artist string) ([]domain.Track, error) {
	m.gotArtist = artist
	if m.err != nil {
		return nil, m.err
	}
	return m.topTracks, nil
}

func track(name string, artists ...string) domain.Track {
	t := domain.Track{Name: name}
	for _, a := range artists {
		t.Artists = append(t.Artists, domain.Artist{Name: a})
	}
	return t
}

// blockingTagSource never answers; it returns once ctx ends.
type blockingTagSource struct{}

func (blockingTagSource) GetTopTags(ctx context.Context, _ string) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
