package server

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Start listens on addr and serves handler in the background, returning a
// shutdown function that drains in-flight requests until ctx is done.
func Start(addr string, handler http.Handler) (func(context.Context) error, error) {
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// Give an immediate bind failure a moment to surface.
	select {
	case err := <-errc:
		return nil, err
	case <-time.After(50 * time.Millisecond):
	}

	return srv.Shutdown, nil
}
