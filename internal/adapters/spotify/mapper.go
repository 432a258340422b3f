package spotify

import "github.com/ewilliams-labs/moodmatch/internal/core/domain"

// mapTrackToDomain cleans a raw Spotify track. Missing fields become zero
// values; the cover is the first album image, or "" when there is none.
func mapTrackToDomain(st spotifyTrack) domain.Track {
	artists := make([]domain.Artist, 0, len(st.Artists))
	for _, a := range st.Artists {
		artists = append(artists, domain.Artist{Name: a.Name})
	}

	coverURL := ""
	if len(st.Album.Images) > 0 {
		coverURL = st.Album.Images[0].URL
	}

	return domain.Track{
		Name:        st.Name,
		Artists:     artists,
		AlbumName:   st.Album.Name,
		ReleaseDate: domain.ParseReleaseDate(st.Album.ReleaseDate),
		CoverURL:    coverURL,
		Popularity:  st.Popularity,
		ExternalURL: st.ExternalURLs.Spotify,
	}
}

// mapTracksToDomain cleans a page of results, skipping null entries.
func mapTracksToDomain(items []*spotifyTrack) []domain.Track {
	out := make([]domain.Track, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, mapTrackToDomain(*it))
	}
	return out
}
