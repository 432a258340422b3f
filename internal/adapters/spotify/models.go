package spotify

// spotifyTrack is the subset of the Spotify track object the catalog needs.
type spotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []spotifyArtist `json:"artists"`
	Album        spotifyAlbum    `json:"album"`
	Popularity   int             `json:"popularity"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []spotifyImage `json:"images"`
}

type spotifyImage struct {
	URL string `json:"url"`
}

type trackSearchResponse struct {
	Tracks struct {
		Items []*spotifyTrack `json:"items"`
		Total int             `json:"total"`
	} `json:"tracks"`
}

type artistSearchResponse struct {
	Artists struct {
		Items []spotifyArtist `json:"items"`
	} `json:"artists"`
}

type topTracksResponse struct {
	Tracks []*spotifyTrack `json:"tracks"`
}
