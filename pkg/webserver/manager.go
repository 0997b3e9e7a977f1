package webserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Manager owns the HTTP server and its router.
type Manager struct {
	addr string
	r    *mux.Router
}

func NewManager(addr string) *Manager {
	if addr == "" {
		addr = ":8080"
	}
	m := &Manager{
		addr: addr,
		r:    mux.NewRouter(),
	}
	m.rootHandlers()
	return m
}

// Router is the root router handlers get registered on.
func (m *Manager) Router() *mux.Router {
	return m.r
}

func (m *Manager) rootHandlers() {
	m.r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// Serve runs the server until the context is cancelled, then shuts down
// gracefully with a deadline.
func (m *Manager) Serve(ctx context.Context) {
	srv := &http.Server{
		Addr: m.addr,
		// Good practice to set timeouts to avoid Slowloris attacks.
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      m.r,
	}

	go func() {
		logrus.WithField("addr", m.addr).Info("webserver listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("webserver stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logrus.Info("webserver shutting down")
}
