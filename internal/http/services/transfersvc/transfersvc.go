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

// Package transfersvc exposes the uniform transfer API and dispatches
// every request to the backend transfer service configured for the
// requested destination. Per request the stages run strictly in order:
// resolve destination, build driver, invoke operation. A fault in any
// stage skips the remaining ones and funnels once through the error
// normalization in pkg/transfer.
package transfersvc

import (
	"net/http"

	"github.com/EGI-Federation/eosc-future-data-transfer/internal/http/interceptors/auth"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/metrics"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/rhttp/global"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer/destination"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer/pool"
	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func init() {
	global.Register("transfersvc", New)
}

type config struct {
	Prefix string `mapstructure:"prefix"`
}

type svc struct {
	conf         *config
	destinations *destination.Registry
	pool         *pool.Pool
	router       chi.Router
}

// New returns a new transfersvc service. The service configuration
// carries the destination and transfer service tables consumed by the
// destination registry.
func New(m map[string]interface{}, log *zerolog.Logger) (global.Service, error) {
	conf := &config{}
	if err := mapstructure.Decode(m, conf); err != nil {
		return nil, errors.Wrap(err, "transfersvc: error decoding conf")
	}

	destinations, err := destination.New(m)
	if err != nil {
		return nil, err
	}

	s := &svc{
		conf:         conf,
		destinations: destinations,
		pool:         pool.New(),
		router:       chi.NewRouter(),
	}
	s.routerInit()
	return s, nil
}

func (s *svc) routerInit() {
	s.router.Use(metrics.Instrument)
	s.router.Use(auth.New())

	s.router.Post("/transfers", s.startTransfer)
	s.router.Get("/transfers", s.findTransfers)
	s.router.Get("/transfer/{jobId}", s.getTransferInfo)
	s.router.Get("/transfer/{jobId}/{fieldName}", s.getTransferInfoField)
	s.router.Delete("/transfer/{jobId}", s.cancelTransfer)
}

func (s *svc) Handler() http.Handler {
	return s.router
}

func (s *svc) Prefix() string {
	return s.conf.Prefix
}

// Close performs cleanup.
func (s *svc) Close() error {
	return nil
}

// resolveService walks the first two dispatch stages: destination key to
// service descriptor, descriptor to driver instance. No network call is
// attempted; any fault here never reaches a backend.
func (s *svc) resolveService(dest string) (transfer.Service, error) {
	sd, err := s.destinations.Resolve(dest)
	if err != nil {
		return nil, err
	}
	return s.pool.Get(sd)
}

// destinationKey returns the requested destination, falling back to the
// configured default when the request carries none.
func (s *svc) destinationKey(r *http.Request) string {
	if dest := r.URL.Query().Get("dest"); dest != "" {
		return dest
	}
	return s.destinations.Default()
}
