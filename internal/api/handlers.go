// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cinelens/cinelens/internal/dataset"
	"github.com/cinelens/cinelens/internal/logging"
	"github.com/cinelens/cinelens/internal/recommend"
	"github.com/cinelens/cinelens/internal/store"
)

const requestTimeout = 10 * time.Second

// Recommender is the engine surface the handlers need.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
	Status() recommend.TrainingStatus
}

// Catalog is the store surface the handlers need.
type Catalog interface {
	MovieByID(ctx context.Context, id int) (*dataset.Movie, error)
	Stats(ctx context.Context) (*store.Counts, error)
	Ping(ctx context.Context) error
}

// Handler serves the recommendation endpoints.
type Handler struct {
	engine  Recommender
	catalog Catalog
}

// NewHandler creates a handler backed by the given engine and catalog.
func NewHandler(engine Recommender, catalog Catalog) *Handler {
	return &Handler{engine: engine, catalog: catalog}
}

// Recommendations handles GET /api/v1/recommendations/{userID}.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil || userID < 1 {
		rw.BadRequest("invalid user ID")
		return
	}

	h.recommend(rw, r, recommend.Request{
		UserID: userID,
		K:      parseK(r),
		Mode:   recommend.ModePersonalized,
	})
}

// Similar handles GET /api/v1/movies/{movieID}/similar.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	movieID, err := strconv.Atoi(chi.URLParam(r, "movieID"))
	if err != nil || movieID < 1 {
		rw.BadRequest("invalid movie ID")
		return
	}

	h.recommend(rw, r, recommend.Request{
		MovieID: movieID,
		K:       parseK(r),
		Mode:    recommend.ModeSimilar,
	})
}

// Popular handles GET /api/v1/popular.
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	h.recommend(rw, r, recommend.Request{
		K:    parseK(r),
		Mode: recommend.ModePopular,
	})
}

func (h *Handler) recommend(rw *responseWriter, r *http.Request, req recommend.Request) {
	req.RequestID = logging.RequestIDFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	resp, err := h.engine.Recommend(ctx, req)
	switch {
	case errors.Is(err, recommend.ErrNotTrained):
		rw.ServiceUnavailable("model not trained yet")
	case err != nil:
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Msg("recommendation failed")
		rw.InternalError("failed to generate recommendations")
	default:
		rw.Success(resp)
	}
}

// Movie handles GET /api/v1/movies/{movieID}.
func (h *Handler) Movie(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	movieID, err := strconv.Atoi(chi.URLParam(r, "movieID"))
	if err != nil || movieID < 1 {
		rw.BadRequest("invalid movie ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	movie, err := h.catalog.MovieByID(ctx, movieID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		rw.NotFound("movie not found")
	case err != nil:
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Int("movie_id", movieID).Msg("movie lookup failed")
		rw.InternalError("failed to load movie")
	default:
		rw.Success(movie)
	}
}

// StatusResponse is the payload for GET /api/v1/status.
type StatusResponse struct {
	Training recommend.TrainingStatus `json:"training"`
	Counts   *store.Counts            `json:"counts,omitempty"`
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	resp := StatusResponse{Training: h.engine.Status()}
	counts, err := h.catalog.Stats(ctx)
	if err != nil {
		logger := logging.Ctx(r.Context())
		logger.Warn().Err(err).Msg("store stats unavailable")
	} else {
		resp.Counts = counts
	}
	rw.Success(resp)
}

// Health handles GET /healthz. It reports ready only when the store
// answers and at least one model is trained.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := newResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.catalog.Ping(ctx); err != nil {
		rw.ServiceUnavailable("store unreachable")
		return
	}
	if h.engine.Status().LastTrainedAt.IsZero() {
		rw.ServiceUnavailable("model not trained")
		return
	}
	rw.Success(map[string]string{"status": "ok"})
}

// parseK reads the k query parameter; invalid or missing values return
// zero so the engine applies its default.
func parseK(r *http.Request) int {
	k, err := strconv.Atoi(r.URL.Query().Get("k"))
	if err != nil || k < 0 {
		return 0
	}
	return k
}
