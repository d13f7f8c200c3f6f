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

// Package metrics exposes the Prometheus scrape endpoint.
package metrics

import (
	"net/http"

	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/metrics"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/rhttp/global"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func init() {
	global.Register("metrics", New)
}

type config struct {
	Prefix string `mapstructure:"prefix"`
}

func (c *config) init() {
	if c.Prefix == "" {
		c.Prefix = "metrics"
	}
}

type svc struct {
	conf *config
}

// New returns a new metrics service.
func New(m map[string]interface{}, log *zerolog.Logger) (global.Service, error) {
	conf := &config{}
	if err := mapstructure.Decode(m, conf); err != nil {
		return nil, errors.Wrap(err, "metrics: error decoding conf")
	}
	conf.init()
	return &svc{conf: conf}, nil
}

func (s *svc) Handler() http.Handler {
	return metrics.Handler()
}

func (s *svc) Prefix() string {
	return s.conf.Prefix
}

// Close performs cleanup.
func (s *svc) Close() error {
	return nil
}
