// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/qui-tui/internal/metrics"
)

// MetricsServer exposes the Prometheus registry over HTTP. It is the only
// network listener in the application and is off by default.
type MetricsServer struct {
	server *http.Server
}

func NewMetricsServer(manager *metrics.MetricsManager, host string, port int, basicAuthUsers map[string]string) *MetricsServer {
	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := promhttp.HandlerFor(
		manager.GetRegistry(),
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	)

	router.Group(func(r chi.Router) {
		if len(basicAuthUsers) > 0 {
			r.Use(middleware.BasicAuth("metrics", basicAuthUsers))
		}
		r.Get("/metrics", handler.ServeHTTP)
	})

	return &MetricsServer{
		server: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", host, port),
			Handler: router,
		},
	}
}

// Start blocks until the server stops. A clean Shutdown returns nil.
func (s *MetricsServer) Start() error {
	log.Info().Str("address", s.server.Addr).Msg("Starting Prometheus metrics server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
