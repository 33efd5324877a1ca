package hosterhttp

import "net/http"

// The machine interface is deliberately open to any origin; only the
// Content-Type request header is accepted on preflight.

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

func (h *Handler) handlePreflight(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if _, ok := h.reg.Get(slug); !ok {
		h.writeJSONError(w, http.StatusNotFound, notFoundMessage(slug))
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "21600")
	w.WriteHeader(http.StatusNoContent)
}
