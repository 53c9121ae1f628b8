package server

import (
	"net/http"

	jsonwriter "github.com/anth0nytran/coaching-site/internal/json"
)

// VideosHandler serves the curated video list.
func (s *Server) VideosHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.catalog.Videos())
}

// CredentialsHandler lists credential images for the credentials section.
func (s *Server) CredentialsHandler(w http.ResponseWriter, r *http.Request) {
	_ = jsonwriter.Write(w, s.catalog.Credentials())
}
