// Copyright 2018-2023 CERN
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// In applying this license, CERN does not waive the privileges and immunities
// granted to it by virtue of its status as an Intergovernmental Organization
// or submit itself to any jurisdiction.

// Package rhttp mounts the registered HTTP services on one server.
package rhttp

import (
	"context"
	"net"
	"net/http"
	"path"

	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/appctx"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/rhttp/global"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config is an option configuring the server.
type Config func(*Server)

// WithServices sets the services to mount, keyed by service name.
func WithServices(services map[string]global.Service) Config {
	return func(s *Server) {
		s.services = services
	}
}

// WithMiddlewares sets the middlewares applied to every service.
func WithMiddlewares(middlewares []global.Middleware) Config {
	return func(s *Server) {
		s.middlewares = middlewares
	}
}

// WithCertAndKeyFiles makes the server serve TLS.
func WithCertAndKeyFiles(cert, key string) Config {
	return func(s *Server) {
		s.certFile = cert
		s.keyFile = key
	}
}

// WithLogger sets the server logger.
func WithLogger(log zerolog.Logger) Config {
	return func(s *Server) {
		s.log = log
	}
}

// InitServices constructs every configured service through the global
// service registry.
func InitServices(conf map[string]map[string]interface{}, log *zerolog.Logger) (map[string]global.Service, error) {
	services := make(map[string]global.Service)
	for name, cfg := range conf {
		newFunc, ok := global.Services[name]
		if !ok {
			return nil, errors.Errorf("rhttp: http service %s does not exist", name)
		}
		slog := log.With().Str("service", name).Logger()
		svc, err := newFunc(cfg, &slog)
		if err != nil {
			return nil, errors.Wrapf(err, "rhttp: http service %s could not be started", name)
		}
		services[name] = svc
	}
	return services, nil
}

// Server serves the mounted HTTP services.
type Server struct {
	certFile    string
	keyFile     string
	httpServer  *http.Server
	listener    net.Listener
	services    map[string]global.Service
	middlewares []global.Middleware
	log         zerolog.Logger
}

// New returns a new server.
func New(c ...Config) (*Server, error) {
	s := &Server{
		httpServer:  &http.Server{},
		services:    map[string]global.Service{},
		middlewares: []global.Middleware{},
		log:         zerolog.Nop(),
	}
	for _, cc := range c {
		cc(s)
	}

	handler, err := s.getHandler()
	if err != nil {
		return nil, errors.Wrap(err, "rhttp: error creating http handler")
	}
	s.httpServer.Handler = handler
	return s, nil
}

// Start starts the server on the given listener.
func (s *Server) Start(ln net.Listener) error {
	s.listener = ln

	var err error
	if s.certFile != "" && s.keyFile != "" {
		s.log.Info().Msgf("https server listening at https://%s", s.listener.Addr())
		err = s.httpServer.ServeTLS(s.listener, s.certFile, s.keyFile)
	} else {
		s.log.Info().Msgf("http server listening at http://%s", s.listener.Addr())
		err = s.httpServer.Serve(s.listener)
	}
	if err == nil || err == http.ErrServerClosed {
		return nil
	}
	return err
}

// GracefulStop gracefully stops the server.
func (s *Server) GracefulStop(ctx context.Context) error {
	s.closeServices()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) closeServices() {
	for name, svc := range s.services {
		if err := svc.Close(); err != nil {
			s.log.Error().Err(err).Msgf("error closing service %q", name)
		} else {
			s.log.Info().Msgf("service %q correctly closed", name)
		}
	}
}

func (s *Server) getHandler() (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := appctx.WithLogger(req.Context(), &s.log)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	for _, m := range s.middlewares {
		r.Use(m)
	}

	for name, svc := range s.services {
		prefix := path.Join("/", svc.Prefix())
		r.Mount(prefix, svc.Handler())
		s.log.Info().Msgf("http service enabled: %s@%s", name, prefix)
	}

	return r, nil
}
