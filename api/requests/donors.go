package requests

import (
	"encoding/json"
	"net/http"

	"github.com/harsheyeditor/OneBlood/core/donorstatus"
)

// NewDonorStatusHandler exposes donor status snapshots via GET /api/requests/donors.
func NewDonorStatusHandler(store donorstatus.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(store.List()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
