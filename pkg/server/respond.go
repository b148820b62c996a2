package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// maxBodyBytes bounds request bodies. Chat requests carry the whole
// conversation and presentation.
const maxBodyBytes = 8 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("server: decode body: %w", err)
	}
	return nil
}

// pathInt reads a positive integer path value.
func pathInt(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// deviceID reads the device a library request is scoped to.
func deviceID(r *http.Request) string {
	if id := r.URL.Query().Get("deviceId"); id != "" {
		return id
	}
	return r.Header.Get("X-Device-ID")
}
