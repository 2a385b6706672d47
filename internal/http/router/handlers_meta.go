package router

import (
	"net/http"
	"time"

	"github.com/yxshee/marfa-gallery/internal/platform/identifier"
)

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

type wordsResponse struct {
	Adjectives int    `json:"adjectives"`
	Nouns      int    `json:"nouns"`
	Capacity   int    `json:"capacity"`
	Separator  string `json:"separator"`
	Example    string `json:"example"`
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := healthResponse{
		Status:    "ok",
		Service:   "marfa-gallery-api",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := a.ready(r.Context()); err != nil {
		a.log.WithError(err).Warn("readiness check failed")
		status = http.StatusServiceUnavailable
		body.Status = "degraded"
	}
	writeJSON(w, status, body)
}

func (a *api) handleChain(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.chain)
}

func (a *api) handleWords(w http.ResponseWriter, _ *http.Request) {
	adjectives, nouns := a.gallery.Vocabulary()
	writeJSON(w, http.StatusOK, wordsResponse{
		Adjectives: adjectives,
		Nouns:      nouns,
		Capacity:   a.gallery.Capacity(),
		Separator:  identifier.Separator,
		Example:    a.gallery.SampleIdentifier(),
	})
}
