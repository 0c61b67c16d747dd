package results

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Serve runs the API on addr until ctx is canceled.
func Serve(ctx context.Context, addr string, h *Handler) error {
	srv := &http.Server{Addr: addr, Handler: NewRouter(h), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			h.Log.Errorf("api server shutdown: %v", err)
		}
		cancel()
	}()
	h.Log.Infof("serving results on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
