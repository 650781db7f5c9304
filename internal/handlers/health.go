package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	applog "pantry/internal/log"
)

const serviceName = "pantry"

type healthResponse struct {
	Service string    `json:"service"`
	Status  string    `json:"status"`
	Ledger  string    `json:"ledger"`
	Time    time.Time `json:"time"`
}

// Health reports liveness. Ledger is "unconfigured" when the process runs
// without a database, in which case the API answers 503.
func Health(w http.ResponseWriter, r *http.Request) {
	ledger := "ready"
	if service == nil || store == nil {
		ledger = "unconfigured"
	}
	resp := healthResponse{
		Service: serviceName,
		Status:  "ok",
		Ledger:  ledger,
		Time:    time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		applog.Error(r.Context(), "health response not written", "error", err)
		return
	}
	applog.Debug(r.Context(), "health checked", "ledger", ledger)
}
