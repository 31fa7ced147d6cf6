package emulator

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// EchoHandler answers every request with a JSON description of itself:
//
//	{"Method": "GET", "Path": "/points", "Query": {"path": "sinusoid"}, "Content": null}
//
// Writes answer 201. It gives references something to point at when no real
// resources are available.
func EchoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		query := make(map[string]string, len(r.URL.Query()))
		for k, v := range r.URL.Query() {
			if len(v) > 0 {
				query[k] = v[0]
			}
		}
		var content any
		if len(body) > 0 {
			if err := json.Unmarshal(body, &content); err != nil {
				content = string(body)
			}
		}

		status := http.StatusOK
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			status = http.StatusCreated
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Method":  r.Method,
			"Path":    r.URL.Path,
			"Query":   query,
			"Content": content,
		})
	})
}

// ProxyHandler forwards every node to upstream, turning the emulator into a
// batch gateway in front of a plain REST API.
func ProxyHandler(upstream *url.URL) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		r.Host = upstream.Host
	}
	return proxy
}
