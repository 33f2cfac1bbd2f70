// Package requests exposes the operations HTTP API: match log queries and
// donor status snapshots.
package requests

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/harsheyeditor/OneBlood/core/matchlog"
	"github.com/harsheyeditor/OneBlood/core/model"
)

// NewLogHandler returns an HTTP handler exposing match logs via GET /api/requests/logs.
// Requests must include an Authorization header with "Bearer <token>" when token is non-empty.
func NewLogHandler(store matchlog.LogStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		q := matchlog.Query{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.DonorID = r.URL.Query().Get("donor_id")
		q.RequestID = r.URL.Query().Get("request_id")
		if u := model.Urgency(r.URL.Query().Get("urgency")); u != "" && u.Valid() {
			q.Urgency = u
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func authorized(r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+token
}
