package handler

import (
	"net/http"

	"dynroute53/internal/service"
)

// Stats serves the dashboard counters.
func Stats(store service.StatsReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := service.CollectStats(r.Context(), store)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
