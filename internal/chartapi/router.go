// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-chartcore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package chartapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/ClusterCockpit/cc-chartcore/internal/chartcontroller"
	"github.com/ClusterCockpit/cc-chartcore/pkg/log"
)

// ErrorResponse is the JSON body returned for any failed request.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func handleError(rw http.ResponseWriter, statusCode int, err error) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(ErrorResponse{
		Status: http.StatusText(statusCode),
		Error:  err.Error(),
	})
}

type windowRequest struct {
	Time int64 `json:"time"`
}

// NewRouter builds the HTTP surface for one Controller: window adjustment
// endpoints, the SSE stream, and a cache stats endpoint, wrapped in
// gorilla/handlers' custom-format logging and CORS middleware the way
// cc-backend's server.go wraps its own router.
func NewRouter(controller *chartcontroller.Controller, hub *SSEHub) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/window/start", handleSetStart(controller)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/window/end", handleSetEnd(controller)).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/cache/stats", handleCacheStats(controller)).Methods(http.MethodGet)
	r.Handle("/api/v1/stream", hub).Methods(http.MethodGet)

	r.Use(handlers.CORS(
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedOrigins([]string{"*"}),
	))

	return handlers.CustomLoggingHandler(log.InfoWriter, r, func(w io.Writer, params handlers.LogFormatterParams) {
		log.Finfof(w, "%s %s (Response: %d, Size: %d)", params.Request.Method, params.URL.RequestURI(), params.StatusCode, params.Size)
	})
}

func handleSetStart(controller *chartcontroller.Controller) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var req windowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handleError(rw, http.StatusBadRequest, err)
			return
		}
		if err := controller.SetStart(r.Context(), req.Time); err != nil {
			handleError(rw, http.StatusBadRequest, err)
			return
		}
		rw.WriteHeader(http.StatusNoContent)
	}
}

func handleSetEnd(controller *chartcontroller.Controller) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var req windowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			handleError(rw, http.StatusBadRequest, err)
			return
		}
		if err := controller.SetEnd(r.Context(), req.Time); err != nil {
			handleError(rw, http.StatusBadRequest, err)
			return
		}
		rw.WriteHeader(http.StatusNoContent)
	}
}

type cacheStatsResponse struct {
	Intervals   int   `json:"intervals"`
	FinestRes   int64 `json:"finestResolutionSeconds"`
	CoarsestRes int64 `json:"coarsestResolutionSeconds"`
}

func handleCacheStats(controller *chartcontroller.Controller) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		stats := controller.CacheStats()
		rw.Header().Set("Content-Type", "application/json")
		json.NewEncoder(rw).Encode(cacheStatsResponse{
			Intervals:   stats.Intervals,
			FinestRes:   int64(stats.FinestRes),
			CoarsestRes: int64(stats.CoarsestRes),
		})
	}
}
