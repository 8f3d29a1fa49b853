// Package redirect serves the play links posted with queued tracks: opening
// one queues the track and sends the browser on to the web player.
package redirect

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Player queues tracks.
type Player interface {
	Play(ctx context.Context, uris []string, now bool) (bool, error)
}

// Handler returns the router for the play endpoints.
func Handler(p Player, target string) http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)

	play := func(w http.ResponseWriter, r *http.Request) {
		if uris := r.URL.Query()["uri"]; len(uris) == 1 && uris[0] != "" {
			if _, err := p.Play(r.Context(), uris, false); err != nil {
				log.Printf("[WARN] [Redirect] Failed to queue %s: %v", uris[0], err)
			} else {
				log.Printf("[INFO] [Redirect] Queued %s for %s", uris[0], r.RemoteAddr)
			}
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
	mux.Get("/", play)
	mux.Get("/play", play)
	return mux
}

// Run serves h on addr until ctx is cancelled.
func Run(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		log.Println("[INFO] [Redirect] Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	log.Printf("[INFO] [Redirect] Listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
