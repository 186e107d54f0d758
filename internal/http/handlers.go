package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"hamusic/internal/catalog"
	"hamusic/internal/core"
	"hamusic/internal/importer"
	"hamusic/internal/player"
	"hamusic/internal/youtube"
)

type handlers struct {
	repo       *catalog.Repository
	youtube    *youtube.Client
	dispatcher *player.Dispatcher
	importer   *importer.Importer
	metrics    *Metrics
	logger     *zap.Logger
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrNoVideo):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

func (h *handlers) listArtists(w http.ResponseWriter, r *http.Request) {
	artists, skipped, err := h.repo.GetAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.RecordsSkipped.Add(float64(skipped))
	writeJSON(w, http.StatusOK, artists)
}

func (h *handlers) searchArtists(w http.ResponseWriter, r *http.Request) {
	artists, skipped, err := h.repo.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.RecordsSkipped.Add(float64(skipped))
	writeJSON(w, http.StatusOK, artists)
}

type addArtistRequest struct {
	Name   string      `json:"name"`
	Avatar string      `json:"avatar"`
	Video  *core.Video `json:"video"`
}

func (h *handlers) addArtist(w http.ResponseWriter, r *http.Request) {
	var req addArtistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, core.ErrInvalidInput)
		return
	}
	if req.Name == "" {
		h.writeError(w, r, core.ErrInvalidInput)
		return
	}

	artist, err := h.repo.Add(r.Context(), req.Name, req.Avatar, req.Video)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, artist)
}

// editArtistRequest keeps video as raw JSON so "video absent" and
// "video: null" stay distinguishable: absent leaves the stored video alone,
// null clears it, anything else replaces it wholesale.
type editArtistRequest struct {
	Name   *string         `json:"name"`
	Avatar *string         `json:"avatar"`
	Video  json.RawMessage `json:"video"`
}

func (h *handlers) editArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req editArtistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, core.ErrInvalidInput)
		return
	}

	patch := catalog.ArtistPatch{Name: req.Name, Avatar: req.Avatar}
	if req.Video != nil {
		patch.VideoSet = true
		var video core.Video
		if err := video.UnmarshalJSON(req.Video); err != nil {
			h.writeError(w, r, core.ErrInvalidInput)
			return
		}
		if video != (core.Video{}) {
			patch.Video = &video
		}
	}

	artist, err := h.repo.Edit(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

func (h *handlers) deleteArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.repo.Remove(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handlers) playArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	artist, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.dispatcher.Play(r.Context(), artist); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Playing on TV",
	})
}

func (h *handlers) bulkAddArtists(w http.ResponseWriter, r *http.Request) {
	var entries []importer.Entry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		h.writeError(w, r, core.ErrInvalidInput)
		return
	}

	report, err := h.importer.Run(r.Context(), entries)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.ImportsSkipped.Add(float64(report.Skipped))
	writeJSON(w, http.StatusOK, report)
}

func (h *handlers) youtubeSearch(w http.ResponseWriter, r *http.Request) {
	results, err := h.youtube.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *handlers) youtubeVideo(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.writeError(w, r, core.ErrInvalidInput)
		return
	}

	video, err := h.youtube.ResolveURL(r.Context(), rawURL)
	if err != nil {
		if errors.Is(err, core.ErrResolutionFailed) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}
