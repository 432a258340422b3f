package domain

import (
	"sort"
	"strings"
	"time"
)

// Artist is a credited performer on a track.
type Artist struct {
	Name string `json:"name"`
}

// DatePrecision describes how much of a release date the catalog provided.
type DatePrecision string

const (
	PrecisionDay      DatePrecision = "day"
	PrecisionMonth    DatePrecision = "month"
	PrecisionYear     DatePrecision = "year"
	PrecisionUnparsed DatePrecision = "unparsed"
)

// ReleaseDate keeps the catalog's raw date string together with its parsed form.
type ReleaseDate struct {
	Raw       string
	Time      time.Time
	Precision DatePrecision
}

var releaseLayouts = []struct {
	layout    string
	precision DatePrecision
}{
	{"2006-01-02", PrecisionDay},
	{"2006-01", PrecisionMonth},
	{"2006", PrecisionYear},
}

// ParseReleaseDate interprets the catalog's date string. Strings that match no
// known layout keep their raw value with PrecisionUnparsed.
func ParseReleaseDate(raw string) ReleaseDate {
	trimmed := strings.TrimSpace(raw)
	for _, l := range releaseLayouts {
		if t, err := time.Parse(l.layout, trimmed); err == nil {
			return ReleaseDate{Raw: raw, Time: t, Precision: l.precision}
		}
	}
	return ReleaseDate{Raw: raw, Precision: PrecisionUnparsed}
}

// Parsed reports whether the raw string matched a known layout.
func (d ReleaseDate) Parsed() bool {
	return d.Precision != PrecisionUnparsed && d.Precision != ""
}

// Display renders the date for people, e.g. "June 05, 2015".
func (d ReleaseDate) Display() string {
	switch d.Precision {
	case PrecisionDay:
		return d.Time.Format("January 02, 2006")
	case PrecisionMonth:
		return d.Time.Format("January 2006")
	case PrecisionYear:
		return d.Time.Format("2006")
	default:
		return d.Raw
	}
}

// Track is a cleaned catalog record, optionally enriched with tags.
type Track struct {
	Name        string
	Artists     []Artist
	AlbumName   string
	ReleaseDate ReleaseDate
	CoverURL    string
	Popularity  int
	ExternalURL string

	// ArtistName is the primary artist the tags were resolved for.
	ArtistName string
	// RawTags is the tagging service response before normalization.
	RawTags []string
	// Tags holds the normalized tags.
	Tags []string
}

// PrimaryArtist returns the first credited artist's name.
func (t Track) PrimaryArtist() (string, bool) {
	if len(t.Artists) == 0 {
		return "", false
	}
	name := strings.TrimSpace(t.Artists[0].Name)
	if name == "" {
		return "", false
	}
	return name, true
}

// HasAnyTag reports whether any of the track's normalized tags, passed through
// normalize, is in set.
func (t Track) HasAnyTag(set map[string]struct{}, normalize func(string) string) bool {
	for _, tag := range t.Tags {
		if normalize != nil {
			tag = normalize(tag)
		}
		if _, ok := set[tag]; ok {
			return true
		}
	}
	return false
}

// SortByPopularity orders tracks by descending popularity, keeping the
// existing order among equals.
func SortByPopularity(tracks []Track) {
	sort.SliceStable(tracks, func(i, j int) bool {
		return tracks[i].Popularity > tracks[j].Popularity
	})
}
