package httpapi

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readBodyJSON(r *http.Request, maxBytes int64, dest any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	return json.NewDecoder(r.Body).Decode(dest)
}
