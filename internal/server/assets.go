package server

import (
	"net/http"
	"strings"
)

// AssetsHandler serves files written by a storage.LocalStore.
type AssetsHandler struct {
	prefix string
	files  http.Handler
}

// NewAssetsHandler serves root under prefix, e.g. "/assets/". Directory listings are disabled.
func NewAssetsHandler(prefix, root string) *AssetsHandler {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &AssetsHandler{
		prefix: prefix,
		files:  http.StripPrefix(prefix, http.FileServer(http.Dir(root))),
	}
}

func (h *AssetsHandler) Routes() []string { return []string{"GET " + h.prefix} }

func (h *AssetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	h.files.ServeHTTP(w, r)
}
