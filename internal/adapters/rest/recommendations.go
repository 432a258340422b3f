package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/moodmatch/internal/core/domain"
)

const (
	maxBodyBytes = 1 << 16
	noSongsFound = "no songs found"
)

type recommendRequest struct {
	Description string `json:"description" validate:"required,max=500"`
	Year        int    `json:"year" validate:"required,gte=1900,lte=2100"`
}

type recommendResponse struct {
	FilteredTracks []trackResponse `json:"filtered_tracks"`
	SelectedTags   []string        `json:"selected_tags"`
	MappedSeedTags []string        `json:"mapped_seed_tags"`
	Vocabulary     []string        `json:"vocabulary"`
	Count          int             `json:"count"`
	Message        string          `json:"message,omitempty"`
}

type artistRequest struct {
	Artist string `json:"artist" validate:"required,max=200"`
	Genre  string `json:"genre" validate:"required,max=100"`
	Mood   string `json:"mood" validate:"required,max=100"`
}

type artistResponse struct {
	Tracks  []trackResponse `json:"tracks"`
	Count   int             `json:"count"`
	Message string          `json:"message,omitempty"`
}

// Recommend handles POST /recommendations
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.svc.Recommend(r.Context(), strings.TrimSpace(req.Description), req.Year)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	tracks := append([]domain.Track(nil), rec.FilteredTracks...)
	domain.SortByPopularity(tracks)

	resp := recommendResponse{
		FilteredTracks: presentTracks(tracks),
		SelectedTags:   nonNil(rec.SelectedTags),
		MappedSeedTags: nonNil(rec.MappedSeedTags),
		Vocabulary:     nonNil(rec.Vocabulary),
		Count:          len(tracks),
	}
	if len(tracks) == 0 {
		resp.Message = noSongsFound
	}
	writeJSON(w, http.StatusOK, resp)
}

// RecommendByArtist handles POST /recommendations/artist
func (h *Handler) RecommendByArtist(w http.ResponseWriter, r *http.Request) {
	var req artistRequest
	if !h.decode(w, r, &req) {
		return
	}

	tracks, err := h.svc.FilterTracksByArtistMood(r.Context(), req.Artist, req.Genre, req.Mood)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	tracks = append([]domain.Track(nil), tracks...)
	domain.SortByPopularity(tracks)

	resp := artistResponse{
		Tracks: presentTracks(tracks),
		Count:  len(tracks),
	}
	if len(tracks) == 0 {
		resp.Message = noSongsFound
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode reads a JSON body into dst and validates it, writing the error
// response itself when it returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, validationMessage(err), errCodeInvalidInput)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "gte", "lte":
			msgs = append(msgs, field+" must be between 1900 and 2100")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
