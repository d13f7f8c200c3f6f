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

// Package destination resolves a destination storage key to the
// descriptor of the backend transfer service configured for it. The
// mapping is read once at startup and is immutable afterwards; changing
// it means restarting the gateway.
package destination

import (
	"net/url"

	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/errtypes"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// ServiceDescriptor fully determines how to build a driver instance for
// one backend transfer service.
type ServiceDescriptor struct {
	// Service is the key of this service in the configuration.
	Service string `mapstructure:"-"`
	// Name is the display name of the service.
	Name string `mapstructure:"name"`
	// Kind selects the registered driver implementation.
	Kind string `mapstructure:"kind"`
	// Endpoint is the base URL of the service API.
	Endpoint string `mapstructure:"endpoint"`
	// TimeoutMS bounds every outbound call to the service.
	TimeoutMS int `mapstructure:"timeout_ms"`
	// Config carries free-form driver specific settings.
	Config map[string]interface{} `mapstructure:"config"`
}

type destEntry struct {
	Service string `mapstructure:"service"`
}

type config struct {
	DefaultDestination string                       `mapstructure:"default_destination"`
	Destinations       map[string]destEntry         `mapstructure:"destinations"`
	Services           map[string]ServiceDescriptor `mapstructure:"services"`
}

// Registry is the static destination-to-service mapping.
type Registry struct {
	defaultKey   string
	destinations map[string]*ServiceDescriptor
}

// New builds a registry from the given configuration map. Every
// destination must reference a defined service and every service
// descriptor must carry a kind and a well-formed endpoint URL.
func New(m map[string]interface{}) (*Registry, error) {
	c := &config{}
	if err := mapstructure.Decode(m, c); err != nil {
		return nil, errors.Wrap(err, "destination: error decoding conf")
	}

	r := &Registry{
		defaultKey:   c.DefaultDestination,
		destinations: map[string]*ServiceDescriptor{},
	}

	for key, sd := range c.Services {
		if sd.Kind == "" {
			return nil, errtypes.BadRequest("destination: service " + key + " has no kind")
		}
		u, err := url.Parse(sd.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, errtypes.BadRequest("destination: service " + key + " has a malformed endpoint: " + sd.Endpoint)
		}
	}

	for key, d := range c.Destinations {
		sd, ok := c.Services[d.Service]
		if !ok {
			return nil, errtypes.BadRequest("destination: " + key + " references unknown service " + d.Service)
		}
		sd.Service = d.Service
		r.destinations[key] = &sd
	}

	if r.defaultKey != "" {
		if _, ok := r.destinations[r.defaultKey]; !ok {
			return nil, errtypes.BadRequest("destination: default destination " + r.defaultKey + " is not configured")
		}
	}

	return r, nil
}

// Default returns the configured default destination key, or "".
func (r *Registry) Default() string {
	return r.defaultKey
}

// Resolve returns the service descriptor configured for the destination
// key. Lookup is an exact, case sensitive match; an unmapped key is a
// client error, never a retry condition.
func (r *Registry) Resolve(key string) (*ServiceDescriptor, error) {
	sd, ok := r.destinations[key]
	if !ok {
		return nil, errtypes.BadRequest("destination: no transfer service configured for destination " + key)
	}
	return sd, nil
}
