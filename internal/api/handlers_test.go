// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/cinelens/cinelens/internal/config"
	"github.com/cinelens/cinelens/internal/dataset"
	"github.com/cinelens/cinelens/internal/recommend"
	"github.com/cinelens/cinelens/internal/store"
)

// stubEngine is a canned Recommender.
type stubEngine struct {
	resp    *recommend.Response
	err     error
	status  recommend.TrainingStatus
	lastReq recommend.Request
}

func (s *stubEngine) Recommend(_ context.Context, req recommend.Request) (*recommend.Response, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubEngine) Status() recommend.TrainingStatus { return s.status }

// stubCatalog is a canned Catalog.
type stubCatalog struct {
	movie    *dataset.Movie
	movieErr error
	counts   *store.Counts
	pingErr  error
}

func (s *stubCatalog) MovieByID(_ context.Context, _ int) (*dataset.Movie, error) {
	return s.movie, s.movieErr
}

func (s *stubCatalog) Stats(_ context.Context) (*store.Counts, error) {
	if s.counts == nil {
		return nil, errors.New("no stats")
	}
	return s.counts, nil
}

func (s *stubCatalog) Ping(_ context.Context) error { return s.pingErr }

func trainedStatus() recommend.TrainingStatus {
	return recommend.TrainingStatus{LastTrainedAt: time.Now(), ModelVersion: 1}
}

func testRouter(engine *stubEngine, catalog *stubCatalog) http.Handler {
	cfg := config.Default().Server
	return NewRouter(cfg, NewHandler(engine, catalog))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestRecommendationsEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		engine     *stubEngine
		wantStatus int
		wantCode   string
	}{
		{
			name: "success",
			path: "/api/v1/recommendations/42",
			engine: &stubEngine{
				resp:   &recommend.Response{Items: []recommend.ScoredItem{}},
				status: trainedStatus(),
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid user id",
			path:       "/api/v1/recommendations/abc",
			engine:     &stubEngine{status: trainedStatus()},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
		},
		{
			name:       "zero user id",
			path:       "/api/v1/recommendations/0",
			engine:     &stubEngine{status: trainedStatus()},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
		},
		{
			name:       "not trained",
			path:       "/api/v1/recommendations/42",
			engine:     &stubEngine{err: recommend.ErrNotTrained},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrCodeServiceUnavailable,
		},
		{
			name:       "engine failure",
			path:       "/api/v1/recommendations/42",
			engine:     &stubEngine{err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := testRouter(tt.engine, &stubCatalog{})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			resp := decodeResponse(t, rec)
			if tt.wantCode != "" {
				if resp.Success {
					t.Error("Success = true on error response")
				}
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want code %q", resp.Error, tt.wantCode)
				}
			} else if !resp.Success {
				t.Errorf("Success = false, body %s", rec.Body.String())
			}
		})
	}
}

func TestRecommendationsRequestMapping(t *testing.T) {
	engine := &stubEngine{resp: &recommend.Response{}, status: trainedStatus()}
	router := testRouter(engine, &stubCatalog{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/42?k=7", nil))

	if engine.lastReq.UserID != 42 {
		t.Errorf("UserID = %d, want 42", engine.lastReq.UserID)
	}
	if engine.lastReq.K != 7 {
		t.Errorf("K = %d, want 7", engine.lastReq.K)
	}
	if engine.lastReq.Mode != recommend.ModePersonalized {
		t.Errorf("Mode = %v, want personalized", engine.lastReq.Mode)
	}
	if engine.lastReq.RequestID == "" {
		t.Error("RequestID not propagated to the engine")
	}
}

func TestSimilarEndpoint(t *testing.T) {
	engine := &stubEngine{resp: &recommend.Response{}, status: trainedStatus()}
	router := testRouter(engine, &stubCatalog{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/movies/318/similar", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if engine.lastReq.MovieID != 318 {
		t.Errorf("MovieID = %d, want 318", engine.lastReq.MovieID)
	}
	if engine.lastReq.Mode != recommend.ModeSimilar {
		t.Errorf("Mode = %v, want similar", engine.lastReq.Mode)
	}
}

func TestPopularEndpoint(t *testing.T) {
	engine := &stubEngine{resp: &recommend.Response{}, status: trainedStatus()}
	router := testRouter(engine, &stubCatalog{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/popular", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if engine.lastReq.Mode != recommend.ModePopular {
		t.Errorf("Mode = %v, want popular", engine.lastReq.Mode)
	}
}

func TestMovieEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		catalog    *stubCatalog
		wantStatus int
	}{
		{
			name:       "found",
			path:       "/api/v1/movies/1",
			catalog:    &stubCatalog{movie: &dataset.Movie{ID: 1, Title: "Toy Story (1995)"}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not found",
			path:       "/api/v1/movies/999999",
			catalog:    &stubCatalog{movieErr: store.ErrNotFound},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid id",
			path:       "/api/v1/movies/abc",
			catalog:    &stubCatalog{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "store failure",
			path:       "/api/v1/movies/1",
			catalog:    &stubCatalog{movieErr: errors.New("db gone")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := testRouter(&stubEngine{status: trainedStatus()}, tt.catalog)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestStatusEndpoint(t *testing.T) {
	engine := &stubEngine{status: trainedStatus()}
	catalog := &stubCatalog{counts: &store.Counts{Ratings: 100, Users: 10, Movies: 50}}
	router := testRouter(engine, catalog)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Error("Success = false")
	}
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		engine     *stubEngine
		catalog    *stubCatalog
		wantStatus int
	}{
		{
			name:       "healthy",
			engine:     &stubEngine{status: trainedStatus()},
			catalog:    &stubCatalog{},
			wantStatus: http.StatusOK,
		},
		{
			name:       "store down",
			engine:     &stubEngine{status: trainedStatus()},
			catalog:    &stubCatalog{pingErr: errors.New("no db")},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "not trained",
			engine:     &stubEngine{},
			catalog:    &stubCatalog{},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := testRouter(tt.engine, tt.catalog)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	router := testRouter(&stubEngine{resp: &recommend.Response{}, status: trainedStatus()}, &stubCatalog{})

	t.Run("generated when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/popular", nil))
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("X-Request-ID header not set")
		}
	})

	t.Run("incoming value reused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/popular", nil)
		req.Header.Set("X-Request-ID", "trace-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if got := rec.Header().Get("X-Request-ID"); got != "trace-123" {
			t.Errorf("X-Request-ID = %q, want trace-123", got)
		}
	})
}

func TestRateLimit(t *testing.T) {
	cfg := config.Default().Server
	cfg.RateLimit = 2
	cfg.RateWindow = time.Minute

	router := NewRouter(cfg, NewHandler(
		&stubEngine{resp: &recommend.Response{}, status: trainedStatus()},
		&stubCatalog{},
	))

	var last int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/popular", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := testRouter(&stubEngine{status: trainedStatus()}, &stubCatalog{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
