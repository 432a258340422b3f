package rest

import (
	"mime"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
	"github.com/ewilliams-labs/moodmatch/internal/logging"
)

const (
	errCodeInvalidInput = "INVALID_INPUT"
	errCodeAuthFailure  = "AUTH_FAILURE"
	errCodeUpstream     = "UPSTREAM_UNAVAILABLE"
	errCodeEmbedding    = "EMBEDDING_FAILED"
	errCodeInternal     = "INTERNAL"
	errCodeRateLimited  = "RATE_LIMITED"

	displayTagLimit = 10
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type artistRef struct {
	Name string `json:"name"`
}

type trackResponse struct {
	Name                 string      `json:"name"`
	Artist               string      `json:"artist"`
	Artists              []artistRef `json:"artists"`
	Album                string      `json:"album"`
	ReleaseDate          string      `json:"release_date"`
	ReleaseDatePrecision string      `json:"release_date_precision"`
	ReleaseDateDisplay   string      `json:"release_date_display"`
	CoverURL             string      `json:"cover_url,omitempty"`
	ExternalURL          string      `json:"external_url,omitempty"`
	Popularity           int         `json:"popularity"`
	Tags                 []string    `json:"tags"`
}

func presentTracks(tracks []domain.Track) []trackResponse {
	out := make([]trackResponse, 0, len(tracks))
	for _, t := range tracks {
		artist := t.ArtistName
		if artist == "" {
			artist, _ = t.PrimaryArtist()
		}
		artists := make([]artistRef, 0, len(t.Artists))
		for _, a := range t.Artists {
			artists = append(artists, artistRef{Name: a.Name})
		}
		tags := t.Tags
		if len(tags) > displayTagLimit {
			tags = tags[:displayTagLimit]
		}
		out = append(out, trackResponse{
			Name:                 t.Name,
			Artist:               artist,
			Artists:              artists,
			Album:                t.AlbumName,
			ReleaseDate:          t.ReleaseDate.Raw,
			ReleaseDatePrecision: string(t.ReleaseDate.Precision),
			ReleaseDateDisplay:   t.ReleaseDate.Display(),
			CoverURL:             t.CoverURL,
			ExternalURL:          t.ExternalURL,
			Popularity:           t.Popularity,
			Tags:                 nonNil(tags),
		})
	}
	return out
}

// writeDomainError maps core errors onto status codes. Auth failures surface
// as 503 with their own code so callers fix credentials instead of retrying.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	var status int
	var code string
	msg := err.Error()

	switch kind {
	case domain.KindInvalidInput:
		status, code = http.StatusBadRequest, errCodeInvalidInput
	case domain.KindAuthFailure:
		status, code = http.StatusServiceUnavailable, errCodeAuthFailure
		msg = "upstream credentials were rejected; check the service configuration"
	case domain.KindUpstreamUnavailable:
		status, code = http.StatusBadGateway, errCodeUpstream
	case domain.KindEmbedding:
		status, code = http.StatusBadGateway, errCodeEmbedding
	default:
		status, code = http.StatusInternalServerError, errCodeInternal
		msg = "internal error"
	}

	logging.Ctx(r.Context()).Warn().Err(err).Str("kind", kind).Int("status", status).Msg("request failed")
	writeErrorWithCode(w, status, msg, code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErrorWithCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func isJSONContentType(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
