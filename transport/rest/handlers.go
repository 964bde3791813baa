package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type healthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Rooms   int    `json:"rooms"`
	Waiting int    `json:"waiting"`
}

type statsResponse struct {
	Name string `json:"name"`
	entity.PlayerStats
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "healthHandler")

	response := healthResponse{
		Status: "ok",
		Uptime: time.Since(that.started).Round(time.Second).String(),
	}

	overview, err := that.overview.Overview(r.Context())
	if err != nil {
		log.Error("failed to build overview", "error", err)

		response.Status = "degraded"
		that.writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	response.Rooms = overview.Rooms
	response.Waiting = overview.Waiting

	that.writeJSON(w, http.StatusOK, response)
}

func (that *Server) allStatsHandler(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.stats.All())
}

func (that *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(r)
	if !ok {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}

	that.writeJSON(w, http.StatusOK, statsResponse{Name: name, PlayerStats: that.stats.Get(name)})
}

func (that *Server) resetStatsHandler(w http.ResponseWriter, r *http.Request) {
	name, ok := nameParam(r)
	if !ok {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}

	that.stats.Reset(name)
	that.logger.Info("stats reset", "name", name)

	w.WriteHeader(http.StatusNoContent)
}

func nameParam(r *http.Request) (string, bool) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))

	return name, name != ""
}
