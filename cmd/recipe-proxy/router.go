package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/savorly/recipe-proxy/pkg/favorites"
	"github.com/savorly/recipe-proxy/pkg/lifecycle"
	"github.com/savorly/recipe-proxy/pkg/strategy"
)

// server bundles the wired components behind the HTTP surface.
type server struct {
	interceptor *strategy.Interceptor
	lifecycle   *lifecycle.Controller
	favorites   *favorites.Store
	logger      zerolog.Logger
}

// newRouter builds the proxy's route table.
func newRouter(s *server) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/api/search", s.handleAPI)
	r.Get("/api/meal/{id}", s.handleAPI)
	r.Get("/api/categories", s.handleAPI)
	r.Get("/api/filter", s.handleAPI)
	r.Get("/api/random", s.handleAPI)

	r.Post("/cache/clear", s.handleClearCache)

	r.Route("/favorites", func(r chi.Router) {
		r.Get("/", s.handleListFavorites)
		r.Delete("/", s.handleClearFavorites)
		r.Get("/{id}", s.handleGetFavorite)
		r.Put("/{id}", s.handleSaveFavorite)
		r.Delete("/{id}", s.handleRemoveFavorite)
	})

	return r
}

// handleAPI relays API requests through the fetch interceptor so they get
// network-first semantics: live upstream data when reachable, the last
// cached response or a 503 when not.
func (s *server) handleAPI(w http.ResponseWriter, r *http.Request) {
	resp, err := s.interceptor.Handle(r.Context(), r)
	if err != nil {
		http.Error(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to relay response body")
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleClearCache carries the control channel: a typed message requesting
// deletion of every cache partition. The channel is fire-and-forget, so the
// response is 202 with no body regardless of the outcome.
func (s *server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	var msg lifecycle.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid message", http.StatusBadRequest)
		return
	}

	if err := s.lifecycle.HandleMessage(r.Context(), msg); err != nil {
		s.logger.Error().Err(err).Msg("Control message failed")
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.favorites.GetAll(r.Context())
	if err != nil {
		http.Error(w, "favorites unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, favs)
}

func (s *server) handleGetFavorite(w http.ResponseWriter, r *http.Request) {
	fav, err := s.favorites.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, favorites.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "favorites unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, fav)
}

func (s *server) handleSaveFavorite(w http.ResponseWriter, r *http.Request) {
	var fav favorites.Favorite
	if err := json.NewDecoder(r.Body).Decode(&fav); err != nil {
		http.Error(w, "invalid favorite", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	if fav.ID == "" {
		fav.ID = id
	}
	if fav.ID != id {
		http.Error(w, "id mismatch", http.StatusBadRequest)
		return
	}

	if err := s.favorites.Save(r.Context(), &fav); err != nil {
		if errors.Is(err, favorites.ErrMissingID) {
			http.Error(w, "favorite id is required", http.StatusBadRequest)
			return
		}
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, fav)
}

func (s *server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if err := s.favorites.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		http.Error(w, "remove failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleClearFavorites(w http.ResponseWriter, r *http.Request) {
	if err := s.favorites.Clear(r.Context()); err != nil {
		http.Error(w, "clear failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
