package health

import (
	"encoding/json"
	"net/http"

	"github.com/schemavault/schemavault/vault"
)

type status struct {
	Status string `json:"status"`
	Tables int    `json:"tables"`
}

// Handler returns the liveness endpoint: GET /health reports process health
// and the current stored table count.
func Handler(v *vault.Vault) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status{Status: "ok", Tables: v.Count()})
	})
	return mux
}
