package server

import "net/http"

// NewMux wires the texture, status, catalog and health endpoints.
// cat may be nil when no catalog is served.
func NewMux(od *OnDemandTextures, cat *CatalogHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/status", od.StatusHandler())
	mux.Handle("/textures/", od.Handler())
	if cat != nil {
		mux.Handle("/catalog", withCORS(cat.Handler()))
		mux.Handle("/catalog/", withCORS(cat.Handler()))
	}
	return mux
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
