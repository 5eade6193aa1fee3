// Package webserver exposes the dashboard over HTTP and a websocket.
package webserver

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"f1visualizer/pkg/cache"
	"f1visualizer/pkg/dashboard"
	"f1visualizer/pkg/pubsub"
	"f1visualizer/pkg/resources"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const DefaultAddr = ":8080"

var upgrader = websocket.Upgrader{} // use default options

// StatsSource reports the state of the response cache.
type StatsSource interface {
	Stats() (cache.Stats, error)
}

type Manager struct {
	r         *mux.Router
	addr      string
	dashboard *dashboard.Dashboard
	resources *resources.Manager
	cache     StatsSource
	stats     *pubsub.PubSub[cache.Stats]
}

func NewManager(addr string, d *dashboard.Dashboard, res *resources.Manager) *Manager {
	if addr == "" {
		addr = DefaultAddr
	}
	m := &Manager{
		r:         mux.NewRouter(),
		addr:      addr,
		dashboard: d,
		resources: res,
	}

	m.rootHandlers()
	m.apiHandlers()
	return m
}

// WithCache enables /api/cache and the cache notifications pushed to
// websocket clients.
func (m *Manager) WithCache(src StatsSource, ps *pubsub.PubSub[cache.Stats]) *Manager {
	m.cache = src
	m.stats = ps
	return m
}

func (m *Manager) Handler() http.Handler {
	return m.r
}

func (m *Manager) rootHandlers() {
	fs := http.FileServer(http.Dir(m.resources.Dir()))
	resStr := resources.URLPrefix

	m.r.PathPrefix(resStr).Handler(http.StripPrefix(resStr, fs))
	m.r.HandleFunc("/", m.pageHandler).Methods(http.MethodGet)
	m.r.HandleFunc("/ws", m.websocketHandler)
}

func (m *Manager) apiHandlers() {
	api := m.r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/seasons", m.seasonsHandler).Methods(http.MethodGet)
	api.HandleFunc("/events", m.eventsHandler).Methods(http.MethodGet)
	api.HandleFunc("/sessions", m.sessionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/view", m.viewHandler).Methods(http.MethodGet)
	api.HandleFunc("/charts/{chart:laps|telemetry}.{format:svg|png}", m.chartHandler).Methods(http.MethodGet)
	api.HandleFunc("/report.{format:txt|xlsx}", m.reportHandler).Methods(http.MethodGet)
	api.HandleFunc("/trackmap", m.trackMapHandler).Methods(http.MethodGet)
	api.HandleFunc("/cache", m.cacheHandler).Methods(http.MethodGet)
}

// Debug logs every registered route.
func (m *Manager) Debug() {
	_ = m.r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		fields := logrus.Fields{}
		if pathTemplate, err := route.GetPathTemplate(); err == nil {
			fields["path"] = pathTemplate
		}
		if methods, err := route.GetMethods(); err == nil {
			fields["methods"] = strings.Join(methods, ",")
		}
		logrus.WithFields(fields).Debug("Route")
		return nil
	})
}

// Serve listens until an interrupt is received, then shuts the server down.
func (m *Manager) Serve() error {
	srv := &http.Server{
		Addr:         m.addr,
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      m.r,
	}

	errChan := make(chan error, 1)
	go func() {
		logrus.Infof("webserver listening on %s", m.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	c := make(chan os.Signal, 1)
	// graceful shutdown on SIGINT (Ctrl+C) only
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	select {
	case err := <-errChan:
		return err
	case <-c:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(ctx)
	logrus.Info("webserver shutting down")
	return err
}
