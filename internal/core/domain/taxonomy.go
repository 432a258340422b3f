package domain

import (
	"fmt"
	"strings"
)

// Seed is a canonical tag with the folksonomy variants that map onto it.
type Seed struct {
	Name     string   `toml:"name" json:"name"`
	Variants []string `toml:"variants" json:"variants"`
}

// Collision records a variant claimed by more than one seed. The earlier
// declared seed keeps it.
type Collision struct {
	Variant string
	Winner  string
	Loser   string
}

// Taxonomy maps free-form tags onto seed tags. It is immutable once built
// and safe for concurrent use.
type Taxonomy struct {
	seeds      []Seed
	index      map[string]string
	collisions []Collision
}

// NewTaxonomy builds a taxonomy from seeds in declaration order. Each seed
// name is also a variant of itself. A seed whose name is already a variant
// of an earlier seed is rejected, since normalizing it twice would not be
// stable.
func NewTaxonomy(seeds []Seed) (*Taxonomy, error) {
	t := &Taxonomy{
		seeds: make([]Seed, 0, len(seeds)),
		index: make(map[string]string),
	}
	names := make(map[string]struct{}, len(seeds))

	for i, s := range seeds {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" {
			return nil, fmt.Errorf("%w: seed %d has an empty name", ErrInvalidTaxonomy, i)
		}
		if _, dup := names[name]; dup {
			return nil, fmt.Errorf("%w: seed %q declared twice", ErrInvalidTaxonomy, name)
		}
		if owner, taken := t.index[name]; taken {
			return nil, fmt.Errorf("%w: seed name %q is already a variant of %q", ErrInvalidTaxonomy, name, owner)
		}
		names[name] = struct{}{}
		t.index[name] = name

		variants := make([]string, 0, len(s.Variants))
		for _, v := range s.Variants {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" {
				continue
			}
			variants = append(variants, v)
			if owner, taken := t.index[v]; taken {
				if owner != name {
					t.collisions = append(t.collisions, Collision{Variant: v, Winner: owner, Loser: name})
				}
				continue
			}
			t.index[v] = name
		}
		t.seeds = append(t.seeds, Seed{Name: name, Variants: variants})
	}

	return t, nil
}

// MapTagToSeed lower-cases tag and returns its seed name, or the lower-cased
// tag when no seed claims it.
func (t *Taxonomy) MapTagToSeed(tag string) string {
	lowered := strings.ToLower(tag)
	if seed, ok := t.index[lowered]; ok {
		return seed
	}
	return lowered
}

// NormalizeTags maps every tag, keeping order and duplicates.
func (t *Taxonomy) NormalizeTags(tags []string) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = t.MapTagToSeed(tag)
	}
	return out
}

// Seeds returns a copy of the seeds in declaration order.
func (t *Taxonomy) Seeds() []Seed {
	out := make([]Seed, len(t.seeds))
	for i, s := range t.seeds {
		out[i] = Seed{Name: s.Name, Variants: append([]string(nil), s.Variants...)}
	}
	return out
}

// Len is the number of seeds.
func (t *Taxonomy) Len() int {
	return len(t.seeds)
}

// Collisions lists variants that more than one seed declared.
func (t *Taxonomy) Collisions() []Collision {
	return append([]Collision(nil), t.collisions...)
}

// DefaultSeeds is the built-in mood, genre and regional seed list.
func DefaultSeeds() []Seed {
	return []Seed{
		// moods
		{Name: "calm", Variants: []string{"calm", "soothing", "mellow", "relaxing", "chill", "tranquil", "ambient"}},
		{Name: "happy", Variants: []string{"happy", "cheerful", "uplifting", "positive", "joyful", "bright"}},
		{Name: "sad", Variants: []string{"sad", "melancholy", "emotional", "blue", "heartbroken", "downbeat"}},
		{Name: "energetic", Variants: []string{"energetic", "upbeat", "fast", "lively", "motivational", "intense"}},
		{Name: "romantic", Variants: []string{"romantic", "love", "passionate", "sensual", "intimate"}},
		{Name: "dark", Variants: []string{"dark", "moody", "gloomy", "introspective", "haunting"}},
		{Name: "epic", Variants: []string{"epic", "powerful", "cinematic", "grand", "anthemic", "dramatic"}},

		// genres
		{Name: "rock", Variants: []string{"rock", "alt rock", "indie rock", "hard rock", "punk", "garage rock"}},
		{Name: "pop", Variants: []string{"pop", "synthpop", "electropop", "teen pop", "pop rock"}},
		{Name: "hip hop", Variants: []string{"hip hop", "rap", "trap", "boom bap", "conscious rap"}},
		{Name: "electronic", Variants: []string{"electronic", "edm", "house", "techno", "trance", "dubstep"}},
		{Name: "jazz", Variants: []string{"jazz", "smooth jazz", "bebop", "fusion", "swing"}},
		{Name: "classical", Variants: []string{"classical", "orchestral", "symphony", "baroque", "piano"}},
		{Name: "indie", Variants: []string{"indie", "indie pop", "indie folk", "indietronica"}},
		{Name: "lo-fi", Variants: []string{"lo-fi", "lofi", "study beats", "chillhop", "downtempo"}},
		{Name: "metal", Variants: []string{"metal", "heavy metal", "death metal", "thrash", "black metal"}},
		{Name: "folk", Variants: []string{"folk", "acoustic", "americana", "bluegrass", "singer-songwriter"}},
		{Name: "funk", Variants: []string{"funk", "groove", "soul", "disco", "neo soul"}},

		// regional
		{Name: "bollywood", Variants: []string{"bollywood", "hindi", "desi", "indian pop"}},
		{Name: "k-pop", Variants: []string{"k-pop", "korean pop", "korean", "kpop"}},
		{Name: "j-pop", Variants: []string{"j-pop", "japanese pop", "anime", "japanese"}},
		{Name: "latin", Variants: []string{"latin", "reggaeton", "latin pop", "salsa", "bachata"}},
		{Name: "uk", Variants: []string{"uk drill", "grime", "british rap", "uk pop", "british"}},
		{Name: "punjabi", Variants: []string{"punjabi", "bhangra", "panjabi", "punjabi pop"}},
		{Name: "french", Variants: []string{"french", "chanson", "french pop", "francophone"}},
		{Name: "afrobeat", Variants: []string{"afrobeat", "afropop", "nigerian pop", "afrofusion"}},
	}
}

// DefaultTaxonomy builds the taxonomy from DefaultSeeds.
func DefaultTaxonomy() *Taxonomy {
	t, err := NewTaxonomy(DefaultSeeds())
	if err != nil {
		panic(fmt.Sprintf("domain: default taxonomy: %v", err))
	}
	return t
}
