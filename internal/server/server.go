// Package server is the dev loader: an HTTP surface that transpiles
// TypeScript on demand and serves the browser AMD prelude.
package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kyunghoon/twasm/internal/config"
	"github.com/kyunghoon/twasm/pkg/cache"
	"github.com/kyunghoon/twasm/pkg/util/keylock"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type Server struct {
	conf           *config.TwasmConfig
	logger         *zap.Logger
	mux            *chi.Mux
	loadCache      cache.Bucket
	loadLock       *keylock.KeyLock
	metrics        *Telemetry
	metricsHandler http.Handler
}

// New assembles the router. Pass the handler returned by
// telemetry.SetupTelemetry as metricsHandler, or nil to leave
// /metrics unregistered.
func New(conf *config.TwasmConfig, logger *zap.Logger, metricsHandler http.Handler) *Server {
	s := &Server{
		conf:           conf,
		logger:         logger,
		mux:            chi.NewRouter(),
		loadLock:       keylock.New(),
		metrics:        NewServerMetrics(),
		metricsHandler: metricsHandler,
	}
	if conf.Cache.Enabled {
		c := cache.New(cache.Options{
			Logger: logger.Named("cache"),
		})
		s.loadCache = c.BucketWithOpts("load", cache.BucketOptions{
			DefaultTTL: conf.Cache.TTL,
			MaxItems:   conf.Cache.MaxItems,
		})
	}
	s.metrics.Setup(conf)
	s.configureRoutes()
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start() {
	serverConfig := s.conf.Server

	go func() {
		if serverConfig.TLS != nil {
			secureHostPort := fmt.Sprintf("%s:%d",
				serverConfig.Host, serverConfig.TLS.Port)
			secureServer := &http.Server{
				Addr:     secureHostPort,
				Handler:  s.mux,
				ErrorLog: zap.NewStdLog(s.logger.Named("https")),
			}
			s.logger.Info("Starting secure server on " + secureHostPort)
			s.logger.Debug("TLS Cert",
				zap.String("cert_file", serverConfig.TLS.CertFile),
				zap.String("key_file", serverConfig.TLS.KeyFile),
			)
			if err := secureServer.ListenAndServeTLS(
				serverConfig.TLS.CertFile,
				serverConfig.TLS.KeyFile,
			); err != nil {
				panic(err)
			}
		}
	}()

	go func() {
		hostPort := fmt.Sprintf("%s:%d",
			serverConfig.Host, serverConfig.Port)
		s.logger.Info("Starting server on " + hostPort)
		server := &http.Server{
			Addr:     hostPort,
			Handler:  s.mux,
			ErrorLog: zap.NewStdLog(s.logger.Named("http")),
		}
		if serverConfig.EnableHTTP2 {
			h2Server := &http2.Server{}
			if err := http2.ConfigureServer(server, h2Server); err != nil {
				panic(err)
			}
			if serverConfig.EnableH2C {
				server.Handler = h2c.NewHandler(s.mux, h2Server)
			}
		}
		if err := server.ListenAndServe(); err != nil {
			panic(err)
		}
	}()
}
